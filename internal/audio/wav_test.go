package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768}

	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("encoded size = %d, want %d", len(data), 44+len(samples)*2)
	}

	if !bytes.Equal(data[0:4], []byte("RIFF")) {
		t.Fatalf("chunk id = %q, want RIFF", data[0:4])
	}
	if !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("format = %q, want WAVE", data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Fatalf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Fatalf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(samples)*2) {
		t.Fatalf("data size = %d, want %d", got, len(samples)*2)
	}
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Fatal("expected error for empty samples")
	}
	if _, err := EncodeWAV([]int16{1, 2, 3}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(i%200 - 100)
	}

	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	decoded, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestDecodeWAVRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data func() []byte
	}{
		{"too short", func() []byte { return []byte("RIFF") }},
		{"not riff", func() []byte {
			d, _ := EncodeWAV([]int16{1, 2, 3}, 16000)
			copy(d[0:4], "JUNK")
			return d
		}},
		{"not wave", func() []byte {
			d, _ := EncodeWAV([]int16{1, 2, 3}, 16000)
			copy(d[8:12], "AIFF")
			return d
		}},
		{"stereo", func() []byte {
			d, _ := EncodeWAV([]int16{1, 2, 3}, 16000)
			binary.LittleEndian.PutUint16(d[22:24], 2)
			return d
		}},
		{"eight bit", func() []byte {
			d, _ := EncodeWAV([]int16{1, 2, 3}, 16000)
			binary.LittleEndian.PutUint16(d[34:36], 8)
			return d
		}},
		{"truncated data", func() []byte {
			d, _ := EncodeWAV([]int16{1, 2, 3, 4, 5, 6}, 16000)
			return d[:len(d)-4]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tt.data()); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestWAVDuration(t *testing.T) {
	data, err := EncodeWAV(make([]int16, 16000), 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	d, err := WAVDuration(data)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if d != time.Second {
		t.Fatalf("duration = %v, want 1s", d)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
	if got := RMS(make([]int16, 100)); got != 0 {
		t.Fatalf("silent RMS = %v, want 0", got)
	}

	// A constant-amplitude signal has RMS equal to that amplitude.
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = 16384
		if i%2 == 1 {
			samples[i] = -16384
		}
	}
	got := RMS(samples)
	want := 16384.0 / 32768.0
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("RMS = %v, want %v", got, want)
	}
}

func TestRMSBytes(t *testing.T) {
	samples := []int16{1000, -2000, 3000, -4000}
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	fromBytes := RMSBytes(raw)
	fromSamples := RMS(samples)
	if fromBytes != fromSamples {
		t.Fatalf("RMSBytes = %v, RMS = %v, want equal", fromBytes, fromSamples)
	}

	if got := RMSBytes([]byte{0x01}); got != 0 {
		t.Fatalf("odd byte count RMS = %v, want 0", got)
	}
}
