package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/johnquangdev/interview-assistant/internal/audio"
	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// Device captures mono PCM-16 frames from the default input device through
// miniaudio. It implements audio.Source and supports repeated Start/Stop
// cycles, opening and releasing the OS device on each one.
type Device struct {
	cfg *config.CaptureConfig

	mu      sync.Mutex
	actx    *malgo.AllocatedContext
	device  *malgo.Device
	frames  chan audio.Frame
	started bool
}

// NewDevice creates a capture device backed by the default microphone.
func NewDevice(cfg *config.CaptureConfig) *Device {
	return &Device{cfg: cfg}
}

// SampleRate returns the configured capture rate.
func (d *Device) SampleRate() int {
	return d.cfg.SampleRate
}

// Start opens the default input device and begins frame delivery. The
// miniaudio callback chunks incoming samples into fixed-cadence frames and
// drops frames when the consumer falls behind rather than blocking the
// audio thread.
func (d *Device) Start(ctx context.Context) (<-chan audio.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil, fmt.Errorf("capture device already started")
	}

	actx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio backend: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(d.cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	frameSamples := d.cfg.SampleRate * d.cfg.FrameMs / 1000
	frames := make(chan audio.Frame, 64)

	var buf []int16
	onRecvFrames := func(_, pSample []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		for i := 0; i < int(framecount); i++ {
			buf = append(buf, int16(binary.LittleEndian.Uint16(pSample[i*2:])))
		}
		for len(buf) >= frameSamples {
			chunk := make([]int16, frameSamples)
			copy(chunk, buf[:frameSamples])
			buf = append(buf[:0], buf[frameSamples:]...)
			select {
			case frames <- audio.Frame{Samples: chunk, RMS: audio.RMS(chunk), At: time.Now()}:
			default:
				// drop if consumer is slow
			}
		}
	}

	device, err := malgo.InitDevice(actx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		_ = actx.Uninit()
		actx.Free()
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = actx.Uninit()
		actx.Free()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	d.actx = actx
	d.device = device
	d.frames = frames
	d.started = true

	return frames, nil
}

// Stop releases the device and the audio backend. Safe to call when the
// device was never started. Uninit blocks until the data callback has
// returned, so closing the frame channel afterwards is race-free.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	d.device.Uninit()
	_ = d.actx.Uninit()
	d.actx.Free()
	close(d.frames)

	d.device = nil
	d.actx = nil
	d.frames = nil
	d.started = false

	return nil
}
