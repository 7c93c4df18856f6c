package ai

import (
	"bytes"
	"context"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// AssemblyAIClient transcribes one turn's audio synchronously through the
// official SDK: upload the buffer, then poll until the transcript reaches a
// terminal status.
type AssemblyAIClient struct {
	client   *aai.Client
	language string
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAIClient(cfg *config.AssemblyConfig) *AssemblyAIClient {
	var apiKey, baseURL, language string
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		language = cfg.Language
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	var client *aai.Client
	if baseURL != "" {
		client = aai.NewClientWithOptions(
			aai.WithAPIKey(apiKey),
			aai.WithBaseURL(baseURL),
		)
	} else {
		client = aai.NewClient(apiKey)
	}

	return &AssemblyAIClient{
		client:   client,
		language: language,
	}
}

// Transcribe uploads turn audio and waits for the finished transcript. A
// fixed language code from config skips the detection pass; otherwise the
// provider detects the spoken language per turn.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio to transcribe")
	}

	params := &aai.TranscriptOptionalParams{}
	if c.language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := c.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(audio), params)
	if err != nil {
		return "", fmt.Errorf("assemblyai transcription failed: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		reason := "unknown error"
		if transcript.Error != nil {
			reason = *transcript.Error
		}
		return "", fmt.Errorf("assemblyai returned error status: %s", reason)
	}

	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
