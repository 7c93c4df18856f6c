package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

func TestSynthesize_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload speechRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Input != "What was the hardest part?" {
			t.Errorf("unexpected input %q", payload.Input)
		}
		if payload.Voice != "alloy" {
			t.Errorf("unexpected voice %q", payload.Voice)
		}
		w.Header().Set("Content-Type", MIMESpeech)
		w.Write([]byte("ID3-fake-mp3-bytes"))
	}))
	defer ts.Close()

	client := NewSpeechClient(&config.SpeechConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "tts-1",
		Voice:   "alloy",
	})
	audio, err := client.Synthesize(context.Background(), "What was the hardest part?")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if string(audio) != "ID3-fake-mp3-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestSynthesize_Disabled(t *testing.T) {
	client := NewSpeechClient(&config.SpeechConfig{Enabled: false})
	if client.Enabled() {
		t.Fatal("client should report disabled")
	}
	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from disabled client")
	}
}

func TestSynthesize_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid voice"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewSpeechClient(&config.SpeechConfig{Enabled: true, APIKey: "k", BaseURL: ts.URL, Model: "tts-1", Voice: "nope"})
	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
