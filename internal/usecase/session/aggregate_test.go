package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/interview-assistant/internal/usecase/turn"
	"github.com/johnquangdev/interview-assistant/pkg/notify"
)

type fakeObject struct {
	data        []byte
	contentType string
	uploadedAt  time.Time
}

// fakeStore is an in-memory ObjectStore with injectable failures and call
// counters for asserting listing and enrichment scope.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	failPut  map[string]bool
	failGet  map[string]bool
	failList bool
	lists    int
	gets     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string]fakeObject),
		failPut: make(map[string]bool),
		failGet: make(map[string]bool),
	}
}

func (f *fakeStore) url(key string) string {
	return "https://store.local/artifacts/" + key
}

// put seeds an object directly, with an explicit upload time for history
// ordering.
func (f *fakeStore) put(key string, data []byte, uploadedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{data: data, uploadedAt: uploadedAt}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut[key] {
		return "", fmt.Errorf("injected put failure for %s", key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.objects[key] = fakeObject{data: buf, contentType: contentType, uploadedAt: time.Now()}
	return f.url(key), nil
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet[key] {
		return nil, fmt.Errorf("injected get failure for %s", key)
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return obj.data, nil
}

func (f *fakeStore) List(ctx context.Context, prefix string, limit int) ([]repositories.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.failList {
		return nil, fmt.Errorf("injected list failure")
	}
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	objects := make([]repositories.StoredObject, 0, len(keys))
	for _, key := range keys {
		obj := f.objects[key]
		objects = append(objects, repositories.StoredObject{
			Key:        key,
			URL:        f.url(key),
			Size:       int64(len(obj.data)),
			UploadedAt: obj.uploadedAt,
		})
	}
	return objects, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(f.objects, key)
	return nil
}

// fakeSessions is an in-memory SessionRepository.
type fakeSessions struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]*entities.InterviewSession
	updates    int
	failUpdate bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: make(map[uuid.UUID]*entities.InterviewSession)}
}

func (f *fakeSessions) Create(ctx context.Context, session *entities.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[session.ID] = session
	return nil
}

func (f *fakeSessions) FindByID(ctx context.Context, id uuid.UUID) (*entities.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	return row, nil
}

func (f *fakeSessions) Update(ctx context.Context, session *entities.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return fmt.Errorf("injected update failure")
	}
	f.rows[session.ID] = session
	f.updates++
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return entities.ErrSessionNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeSessions) ListByHandle(ctx context.Context, handle string, limit, offset int) ([]*entities.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*entities.InterviewSession
	for _, row := range f.rows {
		if row.UserHandle == handle {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

// fakeUsers is an in-memory UserRepository keyed by handle.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*entities.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Handle]; ok {
		return entities.ErrUserAlreadyExists
	}
	f.users[user.Handle] = user
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByHandle(ctx context.Context, handle string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[handle]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) Update(ctx context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Handle] = user
	return nil
}

func (f *fakeUsers) List(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []*entities.User
	for _, user := range f.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Handle < users[j].Handle })
	return users, nil
}

// fakeNotifier records dispatched messages and can fail on demand.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	fail bool
}

func (f *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("injected send failure")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestService(store *fakeStore, sessions *fakeSessions, users *fakeUsers, notifier notify.Dispatcher) *Service {
	return NewService(sessions, users, store, cache.NewMemoryStore(), notifier, zap.NewNop())
}

// seedSession creates an active index row and returns its ID.
func seedSession(t *testing.T, sessions *fakeSessions, handle, topic string) uuid.UUID {
	t.Helper()
	row := entities.NewInterviewSession(handle, topic)
	if err := sessions.Create(context.Background(), row); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return row.ID
}

// seedTurn writes a well-formed turn manifest plus its audio object.
func seedTurn(t *testing.T, store *fakeStore, sessionID string, n int, durationMs int64, createdAt, uploadedAt time.Time) {
	t.Helper()
	manifest := map[string]interface{}{
		"sessionId":                sessionID,
		"turn":                     n,
		"createdAt":                createdAt.UTC().Format(time.RFC3339),
		"durationMs":               durationMs,
		"userAudioUrl":             "https://store.local/artifacts/" + turn.AudioKey(sessionID, n),
		"transcript":               fmt.Sprintf("answer number %d about distributed systems", n),
		"assistantReply":           "Interesting. What was the trade-off?",
		"provider":                 "groq/llama-3.3-70b-versatile",
		"assistantAudioUrl":        nil,
		"assistantAudioDurationMs": 0,
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("seed turn manifest: %v", err)
	}
	store.put(turn.ManifestKey(sessionID, n), raw, uploadedAt)
	store.put(turn.AudioKey(sessionID, n), []byte("RIFF-fake"), uploadedAt)
}

func seedUserWithEmail(t *testing.T, users *fakeUsers, handle, email string) *entities.User {
	t.Helper()
	user := entities.NewUser(handle, "Test User")
	user.Email = &email
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestFinalize_TotalsAndManifest(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "backend engineering")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 2, 3100, base.Add(2*time.Minute), base.Add(2*time.Minute))
	seedTurn(t, store, id.String(), 1, 4200, base, base)
	seedTurn(t, store, id.String(), 3, 2700, base.Add(5*time.Minute), base.Add(5*time.Minute))

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if outcome.Manifest.Totals.Turns != 3 {
		t.Fatalf("expected 3 turns, got %d", outcome.Manifest.Totals.Turns)
	}
	if outcome.Manifest.Totals.DurationMs != 10000 {
		t.Fatalf("expected 10000ms total, got %d", outcome.Manifest.Totals.DurationMs)
	}
	if outcome.Manifest.StartedAt == nil || !outcome.Manifest.StartedAt.Equal(base) {
		t.Fatalf("startedAt should be the earliest turn, got %v", outcome.Manifest.StartedAt)
	}
	if outcome.Manifest.EndedAt == nil || !outcome.Manifest.EndedAt.Equal(base.Add(5*time.Minute)) {
		t.Fatalf("endedAt should be the latest turn, got %v", outcome.Manifest.EndedAt)
	}
	for i, mt := range outcome.Manifest.Turns {
		if mt.Turn != i+1 {
			t.Fatalf("manifest turns out of order: position %d has turn %d", i, mt.Turn)
		}
	}
	if len(outcome.Skipped) != 0 {
		t.Fatalf("expected no skipped turns, got %v", outcome.Skipped)
	}

	// The manifest object is the artifact of record.
	raw, err := store.Get(context.Background(), turn.SessionManifestKey(id.String()))
	if err != nil {
		t.Fatalf("session manifest not stored: %v", err)
	}
	var stored entities.SessionManifest
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored manifest unreadable: %v", err)
	}
	if stored.Totals != outcome.Manifest.Totals {
		t.Fatalf("stored totals %+v != returned totals %+v", stored.Totals, outcome.Manifest.Totals)
	}

	row, _ := sessions.FindByID(context.Background(), id)
	if !row.IsFinalized() {
		t.Fatal("index row should be finalized")
	}
	if row.TurnCount != 3 || row.DurationMs != 10000 {
		t.Fatalf("index snapshot wrong: turns=%d duration=%d", row.TurnCount, row.DurationMs)
	}
	if row.ManifestKey != turn.SessionManifestKey(id.String()) {
		t.Fatalf("index manifest key wrong: %s", row.ManifestKey)
	}
}

func TestFinalize_SkipsUnreadableTurn(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for n := 1; n <= 5; n++ {
		seedTurn(t, store, id.String(), n, 1000, base.Add(time.Duration(n)*time.Minute), base)
	}
	// Corrupt one manifest in place.
	store.put(turn.ManifestKey(id.String(), 3), []byte("{not json"), base)

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize should not fail on a corrupt turn: %v", err)
	}

	if outcome.Manifest.Totals.Turns != 4 {
		t.Fatalf("expected 4 counted turns, got %d", outcome.Manifest.Totals.Turns)
	}
	if outcome.Manifest.Totals.DurationMs != 4000 {
		t.Fatalf("expected 4000ms, got %d", outcome.Manifest.Totals.DurationMs)
	}
	if len(outcome.Skipped) != 1 {
		t.Fatalf("expected 1 skipped turn, got %d", len(outcome.Skipped))
	}
	if outcome.Skipped[0].Key != turn.ManifestKey(id.String(), 3) {
		t.Fatalf("wrong skipped key %s", outcome.Skipped[0].Key)
	}
	if !strings.Contains(outcome.Skipped[0].Reason, "decode") {
		t.Fatalf("skip reason should mention decode, got %q", outcome.Skipped[0].Reason)
	}
	for _, mt := range outcome.Manifest.Turns {
		if mt.Turn == 3 {
			t.Fatal("skipped turn leaked into the manifest")
		}
	}
}

func TestFinalize_SkipsFetchFailure(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 1, 2000, base, base)
	seedTurn(t, store, id.String(), 2, 2000, base.Add(time.Minute), base)
	store.failGet[turn.ManifestKey(id.String(), 2)] = true

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize should not fail on a fetch failure: %v", err)
	}
	if outcome.Manifest.Totals.Turns != 1 {
		t.Fatalf("expected 1 counted turn, got %d", outcome.Manifest.Totals.Turns)
	}
	if len(outcome.Skipped) != 1 || !strings.Contains(outcome.Skipped[0].Reason, "fetch failed") {
		t.Fatalf("expected fetch-failure skip, got %v", outcome.Skipped)
	}
}

func TestFinalize_ZeroTurns(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize of empty session failed: %v", err)
	}
	if outcome.Manifest.Totals.Turns != 0 || outcome.Manifest.Totals.DurationMs != 0 {
		t.Fatalf("expected zero totals, got %+v", outcome.Manifest.Totals)
	}
	if outcome.Manifest.StartedAt != nil || outcome.Manifest.EndedAt != nil {
		t.Fatal("empty session should have null start/end")
	}
	if len(outcome.Manifest.Turns) != 0 {
		t.Fatalf("expected no turns, got %d", len(outcome.Manifest.Turns))
	}
	if _, err := store.Get(context.Background(), turn.SessionManifestKey(id.String())); err != nil {
		t.Fatalf("empty manifest should still be persisted: %v", err)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 1, 4200, base, base)

	first, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	second, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("second finalize failed: %v", err)
	}

	if first.Manifest.Totals != second.Manifest.Totals {
		t.Fatalf("re-finalize changed totals: %+v vs %+v", first.Manifest.Totals, second.Manifest.Totals)
	}
	if sessions.updates != 2 {
		t.Fatalf("expected 2 index updates, got %d", sessions.updates)
	}
}

func TestFinalize_NotificationDelivered(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	users := newFakeUsers()
	notifier := &fakeNotifier{}
	svc := newTestService(store, sessions, users, notifier)

	seedUserWithEmail(t, users, "alice", "alice@example.com")
	id := seedSession(t, sessions, "alice", "system design")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 1, 4200, base, base)

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !outcome.Notification.Attempted || !outcome.Notification.Delivered {
		t.Fatalf("expected delivered notification, got %+v", outcome.Notification)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.To != "alice@example.com" {
		t.Fatalf("wrong recipient %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "system design") {
		t.Fatalf("subject should mention the topic, got %q", msg.Subject)
	}
}

func TestFinalize_NotificationFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	users := newFakeUsers()
	notifier := &fakeNotifier{fail: true}
	svc := newTestService(store, sessions, users, notifier)

	seedUserWithEmail(t, users, "alice", "alice@example.com")
	id := seedSession(t, sessions, "alice", "")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 1, 4200, base, base)

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("notification failure must not fail finalize: %v", err)
	}
	if !outcome.Notification.Attempted || outcome.Notification.Delivered {
		t.Fatalf("expected attempted undelivered notification, got %+v", outcome.Notification)
	}
	if outcome.Notification.Error == "" {
		t.Fatal("notification error should carry the reason")
	}
}

func TestFinalize_NotificationOptOut(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	users := newFakeUsers()
	notifier := &fakeNotifier{}
	svc := newTestService(store, sessions, users, notifier)

	user := seedUserWithEmail(t, users, "alice", "alice@example.com")
	user.NotificationPreferences = datatypes.JSON(`{"email_on_finalize": false}`)
	id := seedSession(t, sessions, "alice", "")

	outcome, err := svc.Finalize(context.Background(), id)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if outcome.Notification.Attempted {
		t.Fatalf("opted-out user should not be notified, got %+v", outcome.Notification)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("unexpected message sent: %v", notifier.sent)
	}
}

func TestFinalize_UnknownSession(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeSessions(), newFakeUsers(), nil)

	if _, err := svc.Finalize(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestFinalize_ManifestWriteFailure(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	store.failPut[turn.SessionManifestKey(id.String())] = true

	if _, err := svc.Finalize(context.Background(), id); err == nil {
		t.Fatal("expected error when manifest write fails")
	}
	if sessions.updates != 0 {
		t.Fatal("index row must not be finalized when the manifest write fails")
	}
}

func TestFinalize_ListFailure(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	store.failList = true

	if _, err := svc.Finalize(context.Background(), id); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestGet_DetailAfterFinalize(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := newTestService(store, sessions, newFakeUsers(), nil)

	id := seedSession(t, sessions, "alice", "")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	seedTurn(t, store, id.String(), 1, 4200, base, base)
	seedTurn(t, store, id.String(), 2, 3100, base.Add(time.Minute), base)

	if _, err := svc.Finalize(context.Background(), id); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	detail, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if detail.Manifest == nil {
		t.Fatal("detail should include the stored session manifest")
	}
	if len(detail.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(detail.Turns))
	}
	if detail.Turns[0].Turn != 1 || detail.Turns[1].Turn != 2 {
		t.Fatal("detail turns out of order")
	}
	if len(detail.Skipped) != 0 {
		t.Fatalf("unexpected skipped turns: %v", detail.Skipped)
	}
}
