package presenter

import (
	sessionDTO "github.com/johnquangdev/interview-assistant/internal/adapter/dto/session"
	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	captureUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/capture"
	sessionUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/session"
)

// ToSessionResponse converts a session index row to its DTO
func ToSessionResponse(s *entities.InterviewSession) *sessionDTO.SessionResponse {
	if s == nil {
		return nil
	}
	return &sessionDTO.SessionResponse{
		ID:           s.ID.String(),
		UserHandle:   s.UserHandle,
		Topic:        s.Topic,
		Status:       string(s.Status),
		Baseline:     s.Baseline,
		CalibratedAt: s.CalibratedAt,
		TurnCount:    s.TurnCount,
		DurationMs:   s.DurationMs,
		ManifestKey:  s.ManifestKey,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ToSessionListResponse converts index rows to the list DTO
func ToSessionListResponse(rows []*entities.InterviewSession) *sessionDTO.ListResponse {
	sessions := make([]*sessionDTO.SessionResponse, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, ToSessionResponse(row))
	}
	return &sessionDTO.ListResponse{Sessions: sessions}
}

// ToCalibrateResponse converts a calibration result to its DTO
func ToCalibrateResponse(sessionID string, r entities.CalibrationResult) *sessionDTO.CalibrateResponse {
	return &sessionDTO.CalibrateResponse{
		SessionID:   sessionID,
		Baseline:    r.Baseline,
		SampleCount: r.SampleCount,
		MeasuredAt:  r.MeasuredAt,
	}
}

// ToTurnResponse converts a capture outcome to its DTO
func ToTurnResponse(o *captureUsecase.TurnOutcome) *sessionDTO.TurnResponse {
	if o == nil {
		return nil
	}
	resp := &sessionDTO.TurnResponse{
		Started:        o.Started,
		Reason:         o.Reason,
		Turn:           o.Turn,
		DurationMs:     o.DurationMs,
		Transcript:     o.Transcript,
		AssistantReply: o.AssistantReply,
		Provider:       o.Provider,
		AudioURL:       o.AudioURL,
		ManifestURL:    o.ManifestURL,
		ReplyAudioURL:  o.ReplyAudioURL,
	}
	if !o.CreatedAt.IsZero() {
		createdAt := o.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

func toSkippedTurns(skipped []sessionUsecase.SkippedTurn) []sessionDTO.SkippedTurnResponse {
	if len(skipped) == 0 {
		return nil
	}
	out := make([]sessionDTO.SkippedTurnResponse, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, sessionDTO.SkippedTurnResponse{Key: s.Key, Reason: s.Reason})
	}
	return out
}

// ToFinalizeResponse converts a finalize outcome to its DTO
func ToFinalizeResponse(o *sessionUsecase.FinalizeOutcome) *sessionDTO.FinalizeResponse {
	if o == nil {
		return nil
	}
	return &sessionDTO.FinalizeResponse{
		Session:     ToSessionResponse(o.Session),
		Manifest:    o.Manifest,
		ManifestKey: o.ManifestKey,
		ManifestURL: o.ManifestURL,
		Skipped:     toSkippedTurns(o.Skipped),
		Notification: &sessionDTO.NotificationResponse{
			Attempted: o.Notification.Attempted,
			Delivered: o.Notification.Delivered,
			Error:     o.Notification.Error,
		},
	}
}

// ToSessionDetailResponse converts the enriched single-session view
func ToSessionDetailResponse(d *sessionUsecase.Detail) *sessionDTO.SessionDetailResponse {
	if d == nil {
		return nil
	}
	turns := d.Turns
	if turns == nil {
		turns = []*entities.TurnManifest{}
	}
	return &sessionDTO.SessionDetailResponse{
		Session:  ToSessionResponse(d.Session),
		Manifest: d.Manifest,
		Turns:    turns,
		Skipped:  toSkippedTurns(d.Skipped),
	}
}

// ToHistoryResponse converts a history page to its DTO
func ToHistoryResponse(p *sessionUsecase.HistoryPage) *sessionDTO.HistoryResponse {
	if p == nil {
		return nil
	}
	sessions := make([]*sessionDTO.SessionSummaryResponse, 0, len(p.Sessions))
	for _, s := range p.Sessions {
		turns := make([]*sessionDTO.HistoryTurnResponse, 0, len(s.Turns))
		for _, t := range s.Turns {
			turns = append(turns, &sessionDTO.HistoryTurnResponse{
				Turn:        t.Turn,
				ManifestKey: t.ManifestKey,
				AudioURL:    t.AudioURL,
				Transcript:  t.Transcript,
				DurationMs:  t.DurationMs,
				CreatedAt:   t.CreatedAt,
				Enriched:    t.Enriched,
			})
		}
		sessions = append(sessions, &sessionDTO.SessionSummaryResponse{
			SessionID:    s.SessionID,
			TurnCount:    s.TurnCount,
			LatestTurnAt: s.LatestTurnAt,
			Finalized:    s.Finalized,
			ManifestKey:  s.ManifestKey,
			Turns:        turns,
		})
	}
	return &sessionDTO.HistoryResponse{
		Sessions: sessions,
		Page:     p.Page,
		Limit:    p.Limit,
		Total:    p.Total,
	}
}
