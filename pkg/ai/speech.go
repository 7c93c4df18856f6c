package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// SpeechClient converts the interviewer's reply text into spoken audio via an
// OpenAI-compatible /audio/speech endpoint. Disabled clients short-circuit so
// the capture flow can treat the reply track as optional.
type SpeechClient struct {
	enabled bool
	apiKey  string
	baseURL string
	model   string
	voice   string
	client  *http.Client
}

// MIMESpeech is the content type of synthesized reply audio.
const MIMESpeech = "audio/mpeg"

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// NewSpeechClient creates a text-to-speech client from config. A nil config
// yields a disabled client.
func NewSpeechClient(cfg *config.SpeechConfig) *SpeechClient {
	if cfg == nil {
		return &SpeechClient{}
	}
	return &SpeechClient{
		enabled: cfg.Enabled,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		voice:   cfg.Voice,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether synthesis is configured for this deployment.
func (s *SpeechClient) Enabled() bool {
	return s.enabled && s.apiKey != ""
}

// Synthesize renders reply text to MP3 bytes.
func (s *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("speech synthesis is not enabled")
	}
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	b, err := json.Marshal(speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/speech", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("speech API returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech API returned empty audio")
	}
	return audio, nil
}
