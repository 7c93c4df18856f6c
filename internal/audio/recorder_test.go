package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

var base = time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}

func frame(ms int, rms float64) Frame {
	return Frame{
		Samples: []int16{100, -100, 200, -200},
		RMS:     rms,
		At:      at(ms),
	}
}

func testConfig() RecorderConfig {
	return RecorderConfig{
		Baseline:       0.02,
		StartThreshold: 3.0,
		StopThreshold:  2.0,
		MinDuration:    1200 * time.Millisecond,
		MaxDuration:    90 * time.Second,
		Silence:        1600 * time.Millisecond,
		Grace:          600 * time.Millisecond,
		MaxWait:        15 * time.Second,
	}
}

func TestRecorderStartTrigger(t *testing.T) {
	rec, err := NewRecorder(testConfig())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	// Ambient frames stay below 3x baseline, no recording starts.
	for ms := 0; ms < 500; ms += 50 {
		dec := rec.Step(frame(ms, 0.02), false)
		if dec.State != StateListening {
			t.Fatalf("at %dms expected listening, got %s", ms, dec.State)
		}
	}

	dec := rec.Step(frame(500, 0.08), false)
	if dec.State != StateRecording {
		t.Fatalf("expected recording after trigger, got %s", dec.State)
	}
	if dec.Done {
		t.Fatal("trigger frame must not finish the capture")
	}
}

func TestRecorderStartThresholdBoundary(t *testing.T) {
	// Exact power-of-two baseline keeps the threshold comparison free of
	// rounding noise.
	cfg := testConfig()
	cfg.Baseline = 0.25
	rec, err := NewRecorder(cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	if dec := rec.Step(frame(0, 0.5), false); dec.State == StateRecording {
		t.Fatal("ratio 2.0 must not trigger")
	}
	if dec := rec.Step(frame(50, 0.75), false); dec.State != StateRecording {
		t.Fatal("ratio 3.0 must trigger")
	}
}

func TestRecorderDidNotStart(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWait = 1000 * time.Millisecond
	rec, err := NewRecorder(cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	var dec Decision
	for ms := 0; ms <= 1000; ms += 50 {
		dec = rec.Step(frame(ms, 0.02), false)
		if ms < 1000 && dec.Done {
			t.Fatalf("stopped early at %dms", ms)
		}
	}
	if !dec.Done || dec.Reason != ReasonNoSpeech {
		t.Fatalf("expected no_speech stop, got done=%v reason=%s", dec.Done, dec.Reason)
	}

	turn := rec.turn(16000)
	if turn.Started {
		t.Fatal("turn must report it never started")
	}
	if turn.DurationMs() != 0 {
		t.Fatalf("unstarted turn duration = %d, want 0", turn.DurationMs())
	}
}

func TestRecorderMinDurationHold(t *testing.T) {
	// Silence window shorter than the minimum so the minimum is what
	// delays the stop.
	cfg := testConfig()
	cfg.Silence = 400 * time.Millisecond
	cfg.Grace = 200 * time.Millisecond
	rec, err := NewRecorder(cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	// One loud frame starts the turn, then immediate silence.
	if dec := rec.Step(frame(0, 0.08), false); dec.State != StateRecording {
		t.Fatalf("expected recording, got %s", dec.State)
	}

	var dec Decision
	for ms := 50; ms <= 1200; ms += 50 {
		dec = rec.Step(frame(ms, 0.01), false)
		if ms < 1200 && dec.Done {
			t.Fatalf("stopped at %dms before the 1200ms minimum", ms)
		}
	}
	if !dec.Done || dec.Reason != ReasonSilence {
		t.Fatalf("expected silence stop at 1200ms, got done=%v reason=%s", dec.Done, dec.Reason)
	}

	turn := rec.turn(16000)
	if turn.DurationMs() != 1200 {
		t.Fatalf("duration = %dms, want 1200", turn.DurationMs())
	}
}

func TestRecorderNaturalStopAfterBurst(t *testing.T) {
	// Burst of 0.08 over a 0.02 baseline for 2000ms, then silence. The
	// stop lands silence+grace after the last loud frame and the
	// reported duration covers the full span.
	rec, err := NewRecorder(testConfig())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	var dec Decision
	for ms := 0; ms <= 2000; ms += 50 {
		dec = rec.Step(frame(ms, 0.08), false)
		if dec.Done {
			t.Fatalf("stopped during the burst at %dms", ms)
		}
	}

	for ms := 2050; ms <= 6000; ms += 50 {
		dec = rec.Step(frame(ms, 0.01), false)
		if dec.Done {
			if ms != 4200 {
				t.Fatalf("stopped at %dms, want 4200", ms)
			}
			break
		}
		if ms == 6000 {
			t.Fatal("never stopped after the burst")
		}
	}

	if dec.Reason != ReasonSilence {
		t.Fatalf("reason = %s, want silence", dec.Reason)
	}

	turn := rec.turn(16000)
	if turn.DurationMs() != 4200 {
		t.Fatalf("duration = %dms, want 4200", turn.DurationMs())
	}
	if !turn.Started {
		t.Fatal("turn must report started")
	}
}

func TestRecorderMaxDurationForcedStop(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = 3000 * time.Millisecond
	rec, err := NewRecorder(cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	// Continuously loud: only the hard cap can end this.
	var dec Decision
	for ms := 0; ms <= 3000; ms += 50 {
		dec = rec.Step(frame(ms, 0.10), false)
		if ms < 3000 && dec.Done {
			t.Fatalf("stopped early at %dms", ms)
		}
	}
	if !dec.Done || dec.Reason != ReasonMaxDuration {
		t.Fatalf("expected max_duration stop, got done=%v reason=%s", dec.Done, dec.Reason)
	}

	turn := rec.turn(16000)
	if turn.DurationMs() != 3000 {
		t.Fatalf("duration = %dms, want exactly 3000", turn.DurationMs())
	}
}

func TestRecorderHysteresisBand(t *testing.T) {
	rec, err := NewRecorder(testConfig())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	// Ratio 2.5 sits between stop (2.0) and start (3.0): it must not
	// begin a recording.
	for ms := 0; ms < 400; ms += 50 {
		if dec := rec.Step(frame(ms, 0.05), false); dec.State == StateRecording {
			t.Fatalf("ratio 2.5 started recording at %dms", ms)
		}
	}

	// Trigger, then hold in the band. The same 2.5 ratio now counts as
	// loud, so the turn keeps running.
	if dec := rec.Step(frame(400, 0.07), false); dec.State != StateRecording {
		t.Fatalf("expected recording, got %s", dec.State)
	}
	for ms := 450; ms <= 5000; ms += 50 {
		if dec := rec.Step(frame(ms, 0.05), false); dec.Done {
			t.Fatalf("in-band frame ended the turn at %dms", ms)
		}
	}
}

func TestRecorderCancellation(t *testing.T) {
	t.Run("while recording", func(t *testing.T) {
		rec, err := NewRecorder(testConfig())
		if err != nil {
			t.Fatalf("NewRecorder: %v", err)
		}
		rec.Step(frame(0, 0.08), false)
		rec.Step(frame(50, 0.08), false)

		dec := rec.Step(frame(100, 0.08), true)
		if !dec.Done || dec.Reason != ReasonCancelled {
			t.Fatalf("expected cancelled stop, got done=%v reason=%s", dec.Done, dec.Reason)
		}
		turn := rec.turn(16000)
		if !turn.Started || turn.DurationMs() != 100 {
			t.Fatalf("cancelled turn started=%v duration=%dms", turn.Started, turn.DurationMs())
		}
	})

	t.Run("while listening", func(t *testing.T) {
		rec, err := NewRecorder(testConfig())
		if err != nil {
			t.Fatalf("NewRecorder: %v", err)
		}
		rec.Step(frame(0, 0.02), false)

		dec := rec.Step(frame(50, 0.02), true)
		if !dec.Done || dec.Reason != ReasonCancelled {
			t.Fatalf("expected cancelled stop, got done=%v reason=%s", dec.Done, dec.Reason)
		}
		if rec.turn(16000).Started {
			t.Fatal("cancelled wait must not report a started turn")
		}
	})
}

func TestRecorderCancellationLowestPriority(t *testing.T) {
	// A frame that satisfies the hard cap and carries a cancellation
	// reports the cap: stop conditions are evaluated in priority order.
	cfg := testConfig()
	cfg.MaxDuration = 2 * time.Second
	rec, err := NewRecorder(cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.Step(frame(0, 0.08), false)

	dec := rec.Step(frame(2000, 0.08), true)
	if dec.Reason != ReasonMaxDuration {
		t.Fatalf("reason = %s, want max_duration", dec.Reason)
	}
}

func TestRecorderConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*RecorderConfig)
	}{
		{"zero baseline", func(c *RecorderConfig) { c.Baseline = 0 }},
		{"negative baseline", func(c *RecorderConfig) { c.Baseline = -0.01 }},
		{"start below stop", func(c *RecorderConfig) { c.StartThreshold = 1.5; c.StopThreshold = 2.0 }},
		{"max below min", func(c *RecorderConfig) { c.MinDuration = 2 * time.Second; c.MaxDuration = time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mut(&cfg)
			if _, err := NewRecorder(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

// scriptedSource replays a fixed frame sequence for driver tests.
type scriptedSource struct {
	frames   []Frame
	rate     int
	startErr error
	stopped  bool
}

func (s *scriptedSource) Start(ctx context.Context) (<-chan Frame, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	ch := make(chan Frame, len(s.frames))
	for _, f := range s.frames {
		ch <- f
	}
	close(ch)
	return ch, nil
}

func (s *scriptedSource) Stop() error {
	s.stopped = true
	return nil
}

func (s *scriptedSource) SampleRate() int {
	return s.rate
}

func TestRecordDriver(t *testing.T) {
	var frames []Frame
	for ms := 0; ms <= 2000; ms += 50 {
		frames = append(frames, frame(ms, 0.08))
	}
	for ms := 2050; ms <= 5000; ms += 50 {
		frames = append(frames, frame(ms, 0.01))
	}
	src := &scriptedSource{frames: frames, rate: 16000}

	turn, err := Record(context.Background(), src, testConfig(), nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !turn.Started {
		t.Fatal("expected a started turn")
	}
	if turn.DurationMs() != 4200 {
		t.Fatalf("duration = %dms, want 4200", turn.DurationMs())
	}
	if turn.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", turn.SampleRate)
	}
	if len(turn.Samples) == 0 {
		t.Fatal("expected buffered samples")
	}
	if !src.stopped {
		t.Fatal("source must be released after recording")
	}
}

func TestRecordDriverDidNotStart(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWait = 500 * time.Millisecond

	var frames []Frame
	for ms := 0; ms <= 500; ms += 50 {
		frames = append(frames, frame(ms, 0.02))
	}
	src := &scriptedSource{frames: frames, rate: 16000}

	turn, err := Record(context.Background(), src, cfg, nil)
	if err != nil {
		t.Fatalf("quiet wait must not error, got %v", err)
	}
	if turn.Started {
		t.Fatal("expected did-not-start result")
	}
	if turn.Reason != ReasonNoSpeech {
		t.Fatalf("reason = %s, want no_speech", turn.Reason)
	}
	if !src.stopped {
		t.Fatal("source must be released after a quiet wait")
	}
}

func TestRecordDriverSourceUnavailable(t *testing.T) {
	src := &scriptedSource{startErr: errors.New("no capture device")}

	_, err := Record(context.Background(), src, testConfig(), nil)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestRecordDriverTokenCancel(t *testing.T) {
	var frames []Frame
	for ms := 0; ms <= 5000; ms += 50 {
		frames = append(frames, frame(ms, 0.08))
	}
	src := &scriptedSource{frames: frames, rate: 16000}

	token := NewCancelToken()
	token.Cancel()

	turn, err := Record(context.Background(), src, testConfig(), token)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if turn.Started {
		t.Fatal("pre-cancelled capture must not start")
	}
	if turn.Reason != ReasonCancelled {
		t.Fatalf("reason = %s, want cancelled", turn.Reason)
	}
	if !src.stopped {
		t.Fatal("source must be released after cancellation")
	}
}
