package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-assistant/errors"
	sessionDTO "github.com/johnquangdev/interview-assistant/internal/adapter/dto/session"
	"github.com/johnquangdev/interview-assistant/internal/adapter/presenter"
	sessionUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/session"
)

// Session handles session lifecycle endpoints
type Session struct {
	svc    *sessionUsecase.Service
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc *sessionUsecase.Service, logger *zap.Logger) *Session {
	return &Session{svc: svc, logger: logger}
}

func sessionIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("session ID must be a valid UUID")
	}
	return id, nil
}

// Create handles POST /sessions
// @Summary      Open an interview session
// @Description  Opens a new active session for an existing user handle
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      session.CreateSessionRequest  true  "Session creation"
// @Success      201      {object}  map[string]interface{}        "Session opened"
// @Failure      400      {object}  map[string]interface{}        "Invalid request"
// @Failure      404      {object}  map[string]interface{}        "Handle not registered"
// @Router       /sessions [post]
func (h *Session) Create(c echo.Context) error {
	var req sessionDTO.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	row, err := h.svc.Create(c.Request().Context(), sessionUsecase.CreateInput{
		Handle: req.UserHandle,
		Topic:  req.Topic,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToSessionResponse(row))
}

// History handles GET /sessions
// @Summary      List session history
// @Description  Returns one page of interview history derived from stored artifacts, most recent activity first. Sessions with unreadable manifests still appear, un-enriched.
// @Tags         Sessions
// @Produce      json
// @Param        page   query     int                     false  "Page number (1-based)"
// @Param        limit  query     int                     false  "Sessions per page (max 100)"
// @Success      200    {object}  map[string]interface{}  "History page"
// @Failure      500    {object}  map[string]interface{}  "Listing failed"
// @Router       /sessions [get]
func (h *Session) History(c echo.Context) error {
	var req sessionDTO.HistoryRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	page, err := h.svc.List(c.Request().Context(), req.Page, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToHistoryResponse(page))
}

// ListByHandle handles GET /sessions/by-handle
// @Summary      List one user's sessions
// @Description  Returns session index rows for a handle, newest first
// @Tags         Sessions
// @Produce      json
// @Param        handle  query     string                  true   "User handle"
// @Param        limit   query     int                     false  "Rows per page (max 100)"
// @Param        offset  query     int                     false  "Rows to skip"
// @Success      200     {object}  map[string]interface{}  "Sessions"
// @Failure      400     {object}  map[string]interface{}  "Missing handle"
// @Router       /sessions/by-handle [get]
func (h *Session) ListByHandle(c echo.Context) error {
	var req sessionDTO.ListByHandleRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	rows, err := h.svc.ListByHandle(c.Request().Context(), req.Handle, req.Limit, req.Offset)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionListResponse(rows))
}

// Get handles GET /sessions/:id
// @Summary      Get session detail
// @Description  Returns the index row, the stored session manifest when finalized, and every readable turn manifest
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string                  true  "Session ID (UUID)"
// @Success      200  {object}  map[string]interface{}  "Session detail"
// @Failure      400  {object}  map[string]interface{}  "Invalid session ID"
// @Failure      404  {object}  map[string]interface{}  "Session not found"
// @Router       /sessions/{id} [get]
func (h *Session) Get(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	detail, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionDetailResponse(detail))
}

// Finalize handles POST /sessions/:id/finalize
// @Summary      Finalize a session
// @Description  Aggregates every readable turn into a session manifest, persists it, and reports skipped turns plus notification status. Idempotent: re-finalizing recomputes and overwrites.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string                  true  "Session ID (UUID)"
// @Success      200  {object}  map[string]interface{}  "Finalize outcome"
// @Failure      400  {object}  map[string]interface{}  "Invalid session ID"
// @Failure      404  {object}  map[string]interface{}  "Session not found"
// @Failure      500  {object}  map[string]interface{}  "Manifest could not be stored"
// @Router       /sessions/{id}/finalize [post]
func (h *Session) Finalize(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	outcome, err := h.svc.Finalize(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToFinalizeResponse(outcome))
}

// Delete handles DELETE /sessions/:id
// @Summary      Delete a session
// @Description  Removes every stored artifact under the session prefix plus the index row
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string                  true  "Session ID (UUID)"
// @Success      200  {object}  map[string]interface{}  "Session deleted"
// @Failure      400  {object}  map[string]interface{}  "Invalid session ID"
// @Failure      404  {object}  map[string]interface{}  "Session not found"
// @Router       /sessions/{id} [delete]
func (h *Session) Delete(c echo.Context) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{"status": "deleted"})
}
