package audio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
)

const (
	// DefaultCalibrationDuration is how long the noise floor is sampled.
	DefaultCalibrationDuration = 1800 * time.Millisecond

	// baselineFloor keeps the baseline strictly positive so downstream
	// ratio computations never divide by zero.
	baselineFloor = 0.001
)

// Calibrate measures the ambient noise floor by sampling frame RMS for the
// given duration and taking the median. The median, unlike the mean, is not
// biased by transient spikes such as coughs or keyboard clicks.
func Calibrate(ctx context.Context, src Source, duration time.Duration) (entities.CalibrationResult, error) {
	if duration <= 0 {
		duration = DefaultCalibrationDuration
	}

	frames, err := src.Start(ctx)
	if err != nil {
		return entities.CalibrationResult{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer src.Stop()

	var (
		values []float64
		first  time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return entities.CalibrationResult{}, ctx.Err()
		case f, ok := <-frames:
			if !ok {
				if len(values) == 0 {
					return entities.CalibrationResult{}, ErrSourceClosed
				}
				return buildResult(values, duration), nil
			}
			if first.IsZero() {
				first = f.At
			}
			values = append(values, f.RMS)
			if f.At.Sub(first) >= duration {
				return buildResult(values, duration), nil
			}
		}
	}
}

func buildResult(values []float64, duration time.Duration) entities.CalibrationResult {
	baseline := median(values)
	if baseline < baselineFloor {
		baseline = baselineFloor
	}
	return entities.CalibrationResult{
		Baseline:    baseline,
		SampleCount: len(values),
		Duration:    duration,
		MeasuredAt:  time.Now().UTC(),
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
