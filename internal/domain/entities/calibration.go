package entities

import "time"

// CalibrationResult captures the ambient noise floor measured from the
// input device before a session starts recording turns.
type CalibrationResult struct {
	Baseline    float64       `json:"baseline"`
	SampleCount int           `json:"sample_count"`
	Duration    time.Duration `json:"-"`
	MeasuredAt  time.Time     `json:"measured_at"`
}
