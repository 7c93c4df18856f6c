package audio

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// State is the recorder's position in its capture lifecycle.
type State int

const (
	StateIdle State = iota
	StateListening
	StateRecording
	StateStopped
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// StopReason explains why a capture ended.
type StopReason int

const (
	ReasonNone StopReason = iota
	ReasonNoSpeech
	ReasonSilence
	ReasonMaxDuration
	ReasonCancelled
)

// String returns a readable reason name.
func (r StopReason) String() string {
	switch r {
	case ReasonNoSpeech:
		return "no_speech"
	case ReasonSilence:
		return "silence"
	case ReasonMaxDuration:
		return "max_duration"
	case ReasonCancelled:
		return "cancelled"
	}
	return "none"
}

// CancelToken carries a cooperative stop request into a capture loop. The
// loop polls it every frame; nothing is ever terminated forcibly.
type CancelToken struct {
	fired atomic.Bool
}

// NewCancelToken creates an unfired token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests the capture to stop at the next frame.
func (t *CancelToken) Cancel() {
	t.fired.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	return t.fired.Load()
}

// RecorderConfig holds the segmentation thresholds for one turn capture.
// StartThreshold must exceed StopThreshold: the gap between them is the
// hysteresis band that keeps the machine from flapping between Listening
// and Recording right at the noise floor.
type RecorderConfig struct {
	// Baseline is the calibrated noise floor; every frame is judged by
	// the ratio of its RMS to this value.
	Baseline float64

	// StartThreshold is the ratio that begins a recording.
	StartThreshold float64

	// StopThreshold is the ratio that still counts as loud while
	// recording. Intentionally lower than StartThreshold.
	StopThreshold float64

	// MinDuration is the shortest a turn may run before silence can end
	// it, so a single transient cannot produce a near-empty turn.
	MinDuration time.Duration

	// MaxDuration force-stops the turn regardless of loudness.
	MaxDuration time.Duration

	// Silence is how long the signal must stay below StopThreshold
	// before the speaker is considered finished.
	Silence time.Duration

	// Grace extends Silence to absorb natural pauses such as breathing
	// or word searching.
	Grace time.Duration

	// MaxWait bounds how long the recorder listens for speech to start.
	// Zero means wait indefinitely.
	MaxWait time.Duration
}

// Default segmentation parameters.
const (
	DefaultStartThreshold = 3.0
	DefaultStopThreshold  = 2.0
	DefaultMinDuration    = 1200 * time.Millisecond
	DefaultMaxDuration    = 90 * time.Second
	DefaultSilence        = 1600 * time.Millisecond
	DefaultGrace          = 600 * time.Millisecond
	DefaultMaxWait        = 15 * time.Second
)

func (c *RecorderConfig) withDefaults() {
	if c.StartThreshold == 0 {
		c.StartThreshold = DefaultStartThreshold
	}
	if c.StopThreshold == 0 {
		c.StopThreshold = DefaultStopThreshold
	}
	if c.MinDuration == 0 {
		c.MinDuration = DefaultMinDuration
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.Silence == 0 {
		c.Silence = DefaultSilence
	}
	if c.Grace == 0 {
		c.Grace = DefaultGrace
	}
}

// Validate rejects configurations the state machine cannot run on.
func (c *RecorderConfig) Validate() error {
	if c.Baseline <= 0 {
		return fmt.Errorf("baseline must be positive, got %f", c.Baseline)
	}
	if c.StartThreshold <= c.StopThreshold {
		return fmt.Errorf("start threshold (%f) must exceed stop threshold (%f)", c.StartThreshold, c.StopThreshold)
	}
	if c.StopThreshold <= 0 {
		return fmt.Errorf("stop threshold must be positive, got %f", c.StopThreshold)
	}
	if c.MaxDuration <= c.MinDuration {
		return fmt.Errorf("max duration (%v) must exceed min duration (%v)", c.MaxDuration, c.MinDuration)
	}
	if c.Silence <= 0 {
		return fmt.Errorf("silence window must be positive, got %v", c.Silence)
	}
	return nil
}

// Decision is the outcome of feeding one frame to the recorder.
type Decision struct {
	State  State
	Done   bool
	Reason StopReason
}

// Recorder is an explicit finite-state machine over amplitude frames:
// Idle -> Listening -> Recording -> Stopped. It holds no timers and does no
// I/O; a driving loop feeds it frames and it answers with a Decision. All
// timing comes from frame timestamps, never from the system clock.
type Recorder struct {
	cfg RecorderConfig

	state       State
	reason      StopReason
	listenStart time.Time
	startedAt   time.Time
	stoppedAt   time.Time
	lastLoud    time.Time
	samples     []int16
}

// NewRecorder builds a recorder for one turn. Zero config fields take the
// package defaults; Baseline has no default and must be set.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recorder{cfg: cfg, state: StateIdle}, nil
}

// State returns the current machine state.
func (r *Recorder) State() State {
	return r.state
}

// Step advances the machine by one frame. cancelled carries the cooperative
// stop request sampled by the caller this tick. While recording, the stop
// conditions are evaluated in fixed priority order: the hard duration cap,
// then natural silence, then cancellation.
func (r *Recorder) Step(f Frame, cancelled bool) Decision {
	switch r.state {
	case StateStopped:
		return r.decision()

	case StateIdle:
		r.state = StateListening
		r.listenStart = f.At
		return r.listen(f, cancelled)

	case StateListening:
		return r.listen(f, cancelled)

	case StateRecording:
		return r.record(f, cancelled)
	}
	return r.decision()
}

func (r *Recorder) listen(f Frame, cancelled bool) Decision {
	if cancelled {
		return r.stop(f.At, ReasonCancelled)
	}

	if r.ratio(f) >= r.cfg.StartThreshold {
		r.state = StateRecording
		r.startedAt = f.At
		r.lastLoud = f.At
		r.samples = append(r.samples, f.Samples...)
		return r.decision()
	}

	if r.cfg.MaxWait > 0 && f.At.Sub(r.listenStart) >= r.cfg.MaxWait {
		return r.stop(f.At, ReasonNoSpeech)
	}

	return r.decision()
}

func (r *Recorder) record(f Frame, cancelled bool) Decision {
	r.samples = append(r.samples, f.Samples...)

	if r.ratio(f) >= r.cfg.StopThreshold {
		r.lastLoud = f.At
	}

	elapsed := f.At.Sub(r.startedAt)
	switch {
	case elapsed >= r.cfg.MaxDuration:
		return r.stop(f.At, ReasonMaxDuration)
	case elapsed >= r.cfg.MinDuration && f.At.Sub(r.lastLoud) >= r.cfg.Silence+r.cfg.Grace:
		return r.stop(f.At, ReasonSilence)
	case cancelled:
		return r.stop(f.At, ReasonCancelled)
	}

	return r.decision()
}

func (r *Recorder) ratio(f Frame) float64 {
	return f.RMS / r.cfg.Baseline
}

func (r *Recorder) stop(at time.Time, reason StopReason) Decision {
	r.state = StateStopped
	r.stoppedAt = at
	r.reason = reason
	return r.decision()
}

func (r *Recorder) decision() Decision {
	return Decision{
		State:  r.state,
		Done:   r.state == StateStopped,
		Reason: r.reason,
	}
}

// Turn is one captured utterance.
type Turn struct {
	// Started is false when no speech crossed the start threshold within
	// MaxWait. That outcome is a result, not an error: callers apply
	// their own timeout policy.
	Started bool

	Samples    []int16
	SampleRate int
	StartedAt  time.Time
	StoppedAt  time.Time

	// Duration is the wall-clock span from trigger to stop. Chunk counts
	// and encoder-reported lengths are not trusted because encoders may
	// buffer irregularly.
	Duration time.Duration

	Reason StopReason
}

// DurationMs reports the turn length in whole milliseconds.
func (t *Turn) DurationMs() int64 {
	return t.Duration.Milliseconds()
}

func (r *Recorder) turn(sampleRate int) *Turn {
	t := &Turn{
		SampleRate: sampleRate,
		Reason:     r.reason,
	}
	if !r.startedAt.IsZero() {
		t.Started = true
		t.Samples = r.samples
		t.StartedAt = r.startedAt
		t.StoppedAt = r.stoppedAt
		t.Duration = r.stoppedAt.Sub(r.startedAt)
	}
	return t
}

// Record drives a recorder over a live source until it stops, the context
// is cancelled, or the token fires. The source is released on every exit
// path. Cancellation is polled each frame, so a stop request takes effect
// within one frame interval.
func Record(ctx context.Context, src Source, cfg RecorderConfig, token *CancelToken) (*Turn, error) {
	rec, err := NewRecorder(cfg)
	if err != nil {
		return nil, err
	}
	if token == nil {
		token = NewCancelToken()
	}

	frames, err := src.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer src.Stop()

	for {
		select {
		case <-ctx.Done():
			token.Cancel()
			// Drain one more frame so the machine can observe the
			// cancellation with a frame timestamp. If the source is
			// already gone, stop with what we have.
			select {
			case f, ok := <-frames:
				if ok {
					rec.Step(f, true)
					return rec.turn(src.SampleRate()), nil
				}
			case <-time.After(time.Second):
			}
			rec.stop(time.Now(), ReasonCancelled)
			return rec.turn(src.SampleRate()), nil

		case f, ok := <-frames:
			if !ok {
				if rec.State() == StateRecording {
					rec.stop(time.Now(), ReasonCancelled)
					return rec.turn(src.SampleRate()), nil
				}
				return nil, ErrSourceClosed
			}
			cancelled := token.Cancelled() || ctx.Err() != nil
			if dec := rec.Step(f, cancelled); dec.Done {
				return rec.turn(src.SampleRate()), nil
			}
		}
	}
}
