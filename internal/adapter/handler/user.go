package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-assistant/errors"
	userDTO "github.com/johnquangdev/interview-assistant/internal/adapter/dto/user"
	"github.com/johnquangdev/interview-assistant/internal/adapter/presenter"
	userUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/user"
)

// User handles the handle registry endpoints
type User struct {
	svc    *userUsecase.Service
	logger *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *userUsecase.Service, logger *zap.Logger) *User {
	return &User{svc: svc, logger: logger}
}

// Register handles POST /users
// @Summary      Register a user handle
// @Description  Registers a handle that interview sessions can be opened for. Handles are unique labels, no authentication.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      user.CreateUserRequest  true  "Handle registration"
// @Success      201      {object}  map[string]interface{}  "Handle registered"
// @Failure      400      {object}  map[string]interface{}  "Invalid handle or display name"
// @Failure      409      {object}  map[string]interface{}  "Handle already registered"
// @Router       /users [post]
func (h *User) Register(c echo.Context) error {
	var req userDTO.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrValidation(err))
	}

	u, err := h.svc.Create(c.Request().Context(), userUsecase.CreateInput{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToUserResponse(u))
}

// Get handles GET /users/:handle
// @Summary      Get a user handle
// @Description  Looks up one registered handle
// @Tags         Users
// @Produce      json
// @Param        handle  path      string                  true  "User handle"
// @Success      200     {object}  map[string]interface{}  "User"
// @Failure      404     {object}  map[string]interface{}  "Handle not registered"
// @Router       /users/{handle} [get]
func (h *User) Get(c echo.Context) error {
	u, err := h.svc.GetByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToUserResponse(u))
}
