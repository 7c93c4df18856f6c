package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-assistant/errors"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/storage"
	captureUsecase "github.com/johnquangdev/interview-assistant/internal/usecase/capture"
)

// Diagnostics handles operational probe endpoints for the two external
// resources a capture flow depends on: the artifact store and the input
// device.
type Diagnostics struct {
	store   *storage.MinIOClient
	capture *captureUsecase.Service
	logger  *zap.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(store *storage.MinIOClient, capture *captureUsecase.Service, logger *zap.Logger) *Diagnostics {
	return &Diagnostics{store: store, capture: capture, logger: logger}
}

// Storage handles GET /diagnostics/storage
// @Summary      Check artifact storage
// @Description  Reports bucket reachability and object count
// @Tags         Diagnostics
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Bucket info"
// @Failure      500  {object}  map[string]interface{}  "Bucket unreachable"
// @Router       /diagnostics/storage [get]
func (h *Diagnostics) Storage(c echo.Context) error {
	info, err := h.store.GetBucketInfo(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("bucket info", err))
	}

	return HandleSuccess(h.logger, c, info)
}

// Audio handles GET /diagnostics/audio
// @Summary      Check the audio input device
// @Description  Opens and immediately releases the capture device without recording
// @Tags         Diagnostics
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Device available"
// @Failure      409  {object}  map[string]interface{}  "A capture is in progress"
// @Failure      503  {object}  map[string]interface{}  "Device unavailable"
// @Router       /diagnostics/audio [get]
func (h *Diagnostics) Audio(c echo.Context) error {
	if err := h.capture.Probe(c.Request().Context()); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{"status": "available"})
}
