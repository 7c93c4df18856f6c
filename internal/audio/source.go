package audio

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSourceUnavailable means the audio input device could not be opened.
	ErrSourceUnavailable = errors.New("audio source unavailable")

	// ErrSourceClosed means the frame stream ended before the recorder
	// finished.
	ErrSourceClosed = errors.New("audio source closed")
)

// Frame is one fixed-cadence slice of captured mono PCM-16 audio together
// with its precomputed loudness and capture timestamp. Timestamps come from
// time.Now at capture, so comparisons use the monotonic clock.
type Frame struct {
	Samples []int16
	RMS     float64
	At      time.Time
}

// Source produces a steady stream of audio frames from an input device.
// Start opens the device and begins delivery; Stop releases it. A Source
// supports one Start/Stop cycle at a time.
type Source interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
	SampleRate() int
}
