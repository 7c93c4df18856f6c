package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

func TestGenerateReply_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload["model"] != "llama-3.3-70b-versatile" {
			t.Errorf("unexpected model %v", payload["model"])
		}
		msgs, ok := payload["messages"].([]interface{})
		if !ok || len(msgs) != 2 {
			t.Fatalf("expected system+user messages, got %v", payload["messages"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Nice. What was the hardest bug you hit there?"}},
			},
		})
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	reply, err := client.GenerateReply(context.Background(), "backend engineering", "I built a job queue in Go.")
	if err != nil {
		t.Fatalf("generate reply failed: %v", err)
	}
	if reply != "Nice. What was the hardest bug you hit there?" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestGenerateReply_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.GenerateReply(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGenerateReply_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.GenerateReply(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateReply_EmptyTranscript(t *testing.T) {
	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key"})
	if _, err := client.GenerateReply(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestProviderLabel(t *testing.T) {
	client := NewGroqClient(&config.GroqConfig{APIKey: "k", Model: "llama-3.3-70b-versatile"})
	if got := client.Provider(); got != "groq/llama-3.3-70b-versatile" {
		t.Fatalf("unexpected provider label %q", got)
	}
}
