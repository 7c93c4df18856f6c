package capture

import (
	"context"
	"sync"
	"time"

	"github.com/johnquangdev/interview-assistant/internal/audio"
	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// Synthetic waveform parameters. A square wave of amplitude A has an RMS of
// exactly A/32768, which keeps the generated loudness ratios predictable:
// the burst sits 15x above the ambient floor, well past any sane start
// threshold.
const (
	syntheticAmbientAmp = 200
	syntheticBurstAmp   = 3000

	syntheticSpeakFor = 2500 * time.Millisecond
	syntheticPauseFor = 3 * time.Second
)

// Synthetic emits a constant ambient hum with periodic speech-like bursts.
// It stands in for a microphone on headless machines so the full capture
// pipeline, calibration included, can run in development.
type Synthetic struct {
	cfg *config.CaptureConfig

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewSynthetic creates a generator source with the configured rate and
// frame cadence.
func NewSynthetic(cfg *config.CaptureConfig) *Synthetic {
	return &Synthetic{cfg: cfg}
}

// SampleRate returns the configured capture rate.
func (s *Synthetic) SampleRate() int {
	return s.cfg.SampleRate
}

// Start begins emitting frames on a ticker at the configured cadence.
func (s *Synthetic) Start(ctx context.Context) (<-chan audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, audio.ErrSourceUnavailable
	}

	frameSamples := s.cfg.SampleRate * s.cfg.FrameMs / 1000
	frames := make(chan audio.Frame, 64)
	done := make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(frames)

		ticker := time.NewTicker(s.cfg.FrameDuration())
		defer ticker.Stop()

		start := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				amp := int16(syntheticAmbientAmp)
				if inBurst(now.Sub(start)) {
					amp = syntheticBurstAmp
				}
				chunk := squareWave(frameSamples, amp)
				select {
				case frames <- audio.Frame{Samples: chunk, RMS: audio.RMS(chunk), At: now}:
				default:
				}
			}
		}
	}()

	s.done = done
	s.started = true

	return frames, nil
}

// Stop ends the generator goroutine and waits for it to exit.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	close(s.done)
	s.wg.Wait()

	s.done = nil
	s.started = false

	return nil
}

// inBurst reports whether the elapsed offset falls inside a speech burst.
// The cycle is a pause followed by a burst, so calibration right after
// Start measures the ambient floor.
func inBurst(elapsed time.Duration) bool {
	cycle := syntheticPauseFor + syntheticSpeakFor
	return elapsed%cycle >= syntheticPauseFor
}

func squareWave(n int, amp int16) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		if i%2 == 0 {
			chunk[i] = amp
		} else {
			chunk[i] = -amp
		}
	}
	return chunk
}
