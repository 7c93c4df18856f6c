package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-assistant/errors"
	sessionDTO "github.com/johnquangdev/interview-assistant/internal/adapter/dto/session"
	"github.com/johnquangdev/interview-assistant/internal/adapter/presenter"
	captureUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/capture"
)

// Capture handles the interactive voice capture endpoints. They block for
// the duration of the capture; the process records one turn at a time.
type Capture struct {
	svc    *captureUsecase.Service
	logger *zap.Logger
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(svc *captureUsecase.Service, logger *zap.Logger) *Capture {
	return &Capture{svc: svc, logger: logger}
}

// Calibrate handles POST /sessions/:id/calibrate
// @Summary      Calibrate the noise floor
// @Description  Samples ambient audio and stores the median RMS as the session baseline. Must run before the first turn capture.
// @Tags         Capture
// @Produce      json
// @Param        id           path      string                  true   "Session ID (UUID)"
// @Param        duration_ms  query     int                     false  "Sampling duration in milliseconds"
// @Success      200          {object}  map[string]interface{}  "Measured baseline"
// @Failure      400          {object}  map[string]interface{}  "Invalid session ID or duration"
// @Failure      404          {object}  map[string]interface{}  "Session not found"
// @Failure      409          {object}  map[string]interface{}  "Capture busy or session finalized"
// @Failure      503          {object}  map[string]interface{}  "Audio input device unavailable"
// @Router       /sessions/{id}/calibrate [post]
func (h *Capture) Calibrate(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req sessionDTO.CalibrateRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	result, err := h.svc.Calibrate(c.Request().Context(), id, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToCalibrateResponse(id.String(), result))
}

// CaptureTurn handles POST /sessions/:id/turns
// @Summary      Capture one interview turn
// @Description  Records one voice-activated answer, transcribes it, generates the interviewer's reply, and persists audio plus manifest. Blocks until the turn ends. When no speech starts within the listen window the response has started=false and nothing is stored.
// @Tags         Capture
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "Session ID (UUID)"
// @Param        request  body      session.CaptureTurnRequest false  "Turn tuning"
// @Success      200      {object}  map[string]interface{}     "Turn outcome"
// @Failure      400      {object}  map[string]interface{}     "Invalid session ID or turn number"
// @Failure      404      {object}  map[string]interface{}     "Session not found"
// @Failure      409      {object}  map[string]interface{}     "Capture busy, calibration required, or session finalized"
// @Failure      500      {object}  map[string]interface{}     "Transcription or reply generation failed"
// @Failure      503      {object}  map[string]interface{}     "Audio input device unavailable"
// @Router       /sessions/{id}/turns [post]
func (h *Capture) CaptureTurn(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req sessionDTO.CaptureTurnRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	outcome, err := h.svc.CaptureTurn(c.Request().Context(), id, captureUsecase.TurnInput{
		Turn:    req.Turn,
		MaxWait: time.Duration(req.MaxWaitMs) * time.Millisecond,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTurnResponse(outcome))
}

// Cancel handles POST /sessions/:id/cancel
// @Summary      Cancel a running capture
// @Description  Requests a cooperative stop of the session's active capture. The recorder observes the request within one frame interval. Reports cancelled=false when nothing was running.
// @Tags         Capture
// @Produce      json
// @Param        id   path      string                  true  "Session ID (UUID)"
// @Success      200  {object}  map[string]interface{}  "Cancellation outcome"
// @Failure      400  {object}  map[string]interface{}  "Invalid session ID"
// @Router       /sessions/{id}/cancel [post]
func (h *Capture) Cancel(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	cancelled := h.svc.Cancel(id)
	return HandleSuccess(h.logger, c, sessionDTO.CancelResponse{Cancelled: cancelled})
}
