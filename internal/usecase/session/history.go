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
	"github.com/johnquangdev/interview-assistant/internal/domain/repositories"
	"github.com/johnquangdev/interview-assistant/internal/usecase/turn"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// historyTTL keeps history pages hot between writes without letting
	// a dropped invalidation go stale for long.
	historyTTL = 30 * time.Second

	// historyGenKey holds the cache generation. Rotating it orphans every
	// cached page at once; the page TTL reaps the leftovers.
	historyGenKey = "history:gen"
	historyGenTTL = 12 * time.Hour
)

// HistoryTurn is one turn inside a history summary. Entries whose manifest
// could not be read keep their key and number with Enriched false.
type HistoryTurn struct {
	Turn        int        `json:"turn"`
	ManifestKey string     `json:"manifestKey"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	DurationMs  int64      `json:"durationMs,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Enriched    bool       `json:"enriched"`
}

// SessionSummary is one session in the history listing, derived from the
// object store alone so deleted or never-indexed sessions still show up.
type SessionSummary struct {
	SessionID    string        `json:"sessionId"`
	TurnCount    int           `json:"turnCount"`
	LatestTurnAt *time.Time    `json:"latestTurnAt,omitempty"`
	Finalized    bool          `json:"finalized"`
	ManifestKey  string        `json:"manifestKey,omitempty"`
	Turns        []HistoryTurn `json:"turns"`
}

// HistoryPage is one page of session summaries, newest activity first.
type HistoryPage struct {
	Sessions []*SessionSummary `json:"sessions"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int               `json:"total"`
}

// List returns one page of interview history. Sessions are grouped from a
// listing of the global prefix, ordered by most recent turn write, and only
// the requested page is enriched with manifest contents. Whole pages are
// cached briefly.
func (s *Service) List(ctx context.Context, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	cacheKey := s.historyPageKey(ctx, page, limit)
	if cacheKey != "" {
		if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached HistoryPage
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	result, err := s.buildHistoryPage(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(raw), historyTTL); err != nil && s.logger != nil {
				s.logger.Warn("⚠️ History page cache write failed", zap.Error(err))
			}
		}
	}

	return result, nil
}

// historyGroup accumulates one session's listing entries before enrichment.
type historyGroup struct {
	sessionID   string
	manifestKey string
	latest      *time.Time
	turnObjects []repositories.StoredObject
}

func (s *Service) buildHistoryPage(ctx context.Context, page, limit int) (*HistoryPage, error) {
	objects, err := s.store.List(ctx, turn.RootPrefix, 0)
	if err != nil {
		return nil, apperrors.ErrStorageFailed("list history", err)
	}

	groups := make(map[string]*historyGroup)
	for _, obj := range objects {
		sessionID := turn.SessionIDFromKey(obj.Key)
		if sessionID == "" {
			continue
		}
		g := groups[sessionID]
		if g == nil {
			g = &historyGroup{sessionID: sessionID}
			groups[sessionID] = g
		}
		switch {
		case turn.IsTurnManifestKey(obj.Key):
			g.turnObjects = append(g.turnObjects, obj)
			if g.latest == nil || obj.UploadedAt.After(*g.latest) {
				uploaded := obj.UploadedAt
				g.latest = &uploaded
			}
		case turn.IsSessionManifestKey(obj.Key):
			g.manifestKey = obj.Key
		}
	}

	ordered := make([]*historyGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.turnObjects, func(i, j int) bool {
			return g.turnObjects[i].Key < g.turnObjects[j].Key
		})
		ordered = append(ordered, g)
	}
	// Most recent activity first; sessions without any turn sort last.
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.latest == nil && b.latest == nil:
			return a.sessionID < b.sessionID
		case a.latest == nil:
			return false
		case b.latest == nil:
			return true
		case !a.latest.Equal(*b.latest):
			return a.latest.After(*b.latest)
		default:
			return a.sessionID < b.sessionID
		}
	})

	result := &HistoryPage{
		Sessions: []*SessionSummary{},
		Page:     page,
		Limit:    limit,
		Total:    len(ordered),
	}

	offset := (page - 1) * limit
	if offset >= len(ordered) {
		return result, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	for _, g := range ordered[offset:end] {
		summary := &SessionSummary{
			SessionID:    g.sessionID,
			TurnCount:    len(g.turnObjects),
			LatestTurnAt: g.latest,
			Finalized:    g.manifestKey != "",
			ManifestKey:  g.manifestKey,
		}
		summary.Turns = s.enrichTurns(ctx, g.turnObjects)
		result.Sessions = append(result.Sessions, summary)
	}

	return result, nil
}

// enrichTurns fetches the page's turn manifests with bounded concurrency.
// A failed fetch or decode leaves a bare entry rather than failing the page.
func (s *Service) enrichTurns(ctx context.Context, objects []repositories.StoredObject) []HistoryTurn {
	turns := make([]HistoryTurn, len(objects))

	var wg sync.WaitGroup
	sem := make(chan struct{}, fetchWorkers)
	for i, obj := range objects {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entry := HistoryTurn{ManifestKey: key}
			if n, ok := turn.TurnNumberFromKey(key); ok {
				entry.Turn = n
			}

			if data, err := s.store.Get(ctx, key); err == nil {
				if manifest, decErr := entities.DecodeTurnManifest(data); decErr == nil {
					entry.Turn = manifest.Turn
					entry.AudioURL = manifest.UserAudioURL
					entry.Transcript = entities.PreviewTranscript(manifest.Transcript)
					entry.DurationMs = manifest.DurationMs
					createdAt := manifest.CreatedAt
					entry.CreatedAt = &createdAt
					entry.Enriched = true
				}
			}

			turns[i] = entry
		}(i, obj.Key)
	}
	wg.Wait()

	return turns
}

// historyPageKey derives the cache key for one page under the current
// generation, creating the generation on first use. Returns "" when caching
// is unavailable.
func (s *Service) historyPageKey(ctx context.Context, page, limit int) string {
	if s.cache == nil {
		return ""
	}
	gen, ok, err := s.cache.Get(ctx, historyGenKey)
	if err != nil {
		return ""
	}
	if !ok || gen == "" {
		gen = uuid.NewString()
		if err := s.cache.Set(ctx, historyGenKey, gen, historyGenTTL); err != nil {
			return ""
		}
	}
	return fmt.Sprintf("history:%s:%d:%d", gen, page, limit)
}

// invalidateHistory rotates the cache generation so every cached history
// page misses from now on.
func (s *Service) invalidateHistory(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, historyGenKey, uuid.NewString(), historyGenTTL); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ History cache invalidation failed", zap.Error(err))
	}
}
