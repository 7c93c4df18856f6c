package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/usecase/turn"
	"github.com/johnquangdev/interview-assistant/pkg/notify"
)

// SkippedTurn records one turn entry dropped during aggregation because its
// manifest could not be fetched or decoded.
type SkippedTurn struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// NotificationStatus reports the finalize notification as data. Delivery is
// best effort and never fails the finalize.
type NotificationStatus struct {
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// FinalizeOutcome is everything one finalize pass produced.
type FinalizeOutcome struct {
	Session      *entities.InterviewSession
	Manifest     *entities.SessionManifest
	ManifestKey  string
	ManifestURL  string
	Skipped      []SkippedTurn
	Notification NotificationStatus
}

// Finalize aggregates every readable turn of a session into a session
// manifest and persists it. Unreadable turns are skipped, not fatal; a
// session with zero turns finalizes to empty totals. Re-finalizing
// recomputes and overwrites (last writer wins).
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*FinalizeOutcome, error) {
	row, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	turns, skipped, err := s.collectTurns(ctx, id.String())
	if err != nil {
		return nil, err
	}

	manifest := buildSessionManifest(id.String(), turns)
	payload, err := json.Marshal(manifest)
	if err != nil {
		return nil, apperrors.ErrProcessingFailed(err)
	}

	key := turn.SessionManifestKey(id.String())
	url, err := s.store.Put(ctx, key, payload, turn.MIMEManifest)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("put session manifest", err).
			WithDetail("key", key)
	}

	// The stored manifest is the artifact of record; a stale index row
	// only degrades listings, so row update failures are logged, not
	// returned.
	totalsJSON, _ := json.Marshal(manifest.Totals)
	row.MarkFinalized(manifest.Totals.Turns, manifest.Totals.DurationMs, totalsJSON, key, manifest.StartedAt, manifest.EndedAt)
	if err := s.sessions.Update(ctx, row); err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Session index update failed after finalize",
				zap.String("session_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.invalidateHistory(ctx)

	outcome := &FinalizeOutcome{
		Session:     row,
		Manifest:    manifest,
		ManifestKey: key,
		ManifestURL: url,
		Skipped:     skipped,
	}
	outcome.Notification = s.notifyFinalized(ctx, row, manifest)

	if s.logger != nil {
		s.logger.Info("✅ Session finalized",
			zap.String("session_id", id.String()),
			zap.Int("turns", manifest.Totals.Turns),
			zap.Int64("duration_ms", manifest.Totals.DurationMs),
			zap.Int("skipped", len(skipped)),
		)
	}

	return outcome, nil
}

// collectTurns lists one session's turn manifests and fetches them with
// bounded concurrency. Fetch and decode failures become SkippedTurn entries;
// only the listing itself can fail the call.
func (s *Service) collectTurns(ctx context.Context, sessionID string) ([]*entities.TurnManifest, []SkippedTurn, error) {
	objects, err := s.store.List(ctx, turn.TurnsPrefix(sessionID), maxListKeys)
	if err != nil {
		return nil, nil, apperrors.ErrStorageFailed("list session turns", err)
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if turn.IsTurnManifestKey(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	type slot struct {
		manifest *entities.TurnManifest
		skipped  *SkippedTurn
	}
	slots := make([]slot, len(keys))

	var wg sync.WaitGroup
	sem := make(chan struct{}, fetchWorkers)
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := s.store.Get(ctx, key)
			if err != nil {
				slots[i].skipped = &SkippedTurn{Key: key, Reason: fmt.Sprintf("fetch failed: %v", err)}
				return
			}
			manifest, err := entities.DecodeTurnManifest(data)
			if err != nil {
				slots[i].skipped = &SkippedTurn{Key: key, Reason: err.Error()}
				return
			}
			slots[i].manifest = manifest
		}(i, key)
	}
	wg.Wait()

	var turns []*entities.TurnManifest
	var skipped []SkippedTurn
	for i := range slots {
		if slots[i].manifest != nil {
			turns = append(turns, slots[i].manifest)
			continue
		}
		if slots[i].skipped != nil {
			skipped = append(skipped, *slots[i].skipped)
			if s.logger != nil {
				s.logger.Warn("⚠️ Turn manifest skipped",
					zap.String("key", slots[i].skipped.Key),
					zap.String("reason", slots[i].skipped.Reason),
				)
			}
		}
	}

	// Workers finish out of order; the manifest's turn order is numeric.
	sort.Slice(turns, func(i, j int) bool { return turns[i].Turn < turns[j].Turn })

	return turns, skipped, nil
}

// buildSessionManifest folds readable turns into the aggregate view:
// totals, min/max timestamps, and per-turn entries with transcript previews.
func buildSessionManifest(sessionID string, turns []*entities.TurnManifest) *entities.SessionManifest {
	manifest := &entities.SessionManifest{
		SessionID: sessionID,
		Turns:     make([]entities.SessionManifestTurn, 0, len(turns)),
	}

	for _, t := range turns {
		manifest.Totals.Turns++
		manifest.Totals.DurationMs += t.DurationMs

		createdAt := t.CreatedAt
		if manifest.StartedAt == nil || createdAt.Before(*manifest.StartedAt) {
			started := createdAt
			manifest.StartedAt = &started
		}
		if manifest.EndedAt == nil || createdAt.After(*manifest.EndedAt) {
			ended := createdAt
			manifest.EndedAt = &ended
		}

		manifest.Turns = append(manifest.Turns, entities.SessionManifestTurn{
			Turn:       t.Turn,
			Audio:      t.UserAudioURL,
			Manifest:   turn.ManifestKey(sessionID, t.Turn),
			Transcript: entities.PreviewTranscript(t.Transcript),
			DurationMs: t.DurationMs,
			CreatedAt:  t.CreatedAt,
		})
	}

	return manifest
}

// notifyFinalized mails the finalize summary to the session's user when a
// dispatcher is configured and the user opted in. The outcome is data, not
// an error: finalize already succeeded.
func (s *Service) notifyFinalized(ctx context.Context, row *entities.InterviewSession, manifest *entities.SessionManifest) NotificationStatus {
	if s.notifier == nil {
		return NotificationStatus{}
	}

	user, err := s.users.FindByHandle(ctx, row.UserHandle)
	if err != nil {
		return NotificationStatus{Error: fmt.Sprintf("lookup user: %v", err)}
	}
	if !user.WantsFinalizeEmail() {
		return NotificationStatus{}
	}

	subject := "Your interview session is ready"
	if row.Topic != "" {
		subject = fmt.Sprintf("Your interview session on %q is ready", row.Topic)
	}
	speaking := (time.Duration(manifest.Totals.DurationMs) * time.Millisecond).Round(time.Second)

	msg := notify.Message{
		To:      *user.Email,
		Subject: subject,
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour interview practice session finished processing.\n\nTurns answered: %d\nSpeaking time: %s\nSession ID: %s\n",
			user.DisplayName, manifest.Totals.Turns, speaking, row.ID.String(),
		),
	}

	status := NotificationStatus{Attempted: true}
	if err := s.notifier.Send(ctx, msg); err != nil {
		status.Error = err.Error()
		if s.logger != nil {
			s.logger.Warn("⚠️ Finalize notification failed",
				zap.String("session_id", row.ID.String()),
				zap.Error(err),
			)
		}
		return status
	}

	status.Delivered = true
	return status
}
