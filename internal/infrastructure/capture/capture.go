package capture

import (
	"fmt"

	"github.com/johnquangdev/interview-assistant/internal/audio"
	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// Capture driver names.
const (
	DriverMalgo     = "malgo"
	DriverSynthetic = "synthetic"
)

// NewSource builds the audio source named by the capture config.
func NewSource(cfg *config.CaptureConfig) (audio.Source, error) {
	switch cfg.Driver {
	case DriverMalgo, "":
		return NewDevice(cfg), nil
	case DriverSynthetic:
		return NewSynthetic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown capture driver: %s", cfg.Driver)
	}
}
