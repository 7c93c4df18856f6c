package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-assistant/pkg/config"
)

// Message is one outbound notification
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Dispatcher sends notifications. Implementations retry transient failures
// internally; a returned error means the message is not going out.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// EmailClient posts messages to an email webhook endpoint
type EmailClient struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
	logger   *zap.Logger

	// Retry tuning, overridable in tests
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// NewEmailClient creates an email dispatcher from config
func NewEmailClient(cfg *config.NotifyConfig, logger *zap.Logger) *EmailClient {
	return &EmailClient{
		endpoint:        cfg.Endpoint,
		apiKey:          cfg.APIKey,
		from:            cfg.From,
		client:          &http.Client{Timeout: 15 * time.Second},
		logger:          logger,
		initialInterval: 2 * time.Second,
		maxElapsed:      30 * time.Second,
	}
}

// Send delivers one message, retrying transient failures with exponential
// backoff. Permanent failures (4xx) return immediately.
func (e *EmailClient) Send(ctx context.Context, msg Message) error {
	if e.endpoint == "" {
		return fmt.Errorf("notify endpoint not configured")
	}
	if msg.From == "" {
		msg.From = e.from
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	sendFn := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if e.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.apiKey)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("notify endpoint returned status %d: %s", resp.StatusCode, string(body))
			if !IsRetryableStatus(resp.StatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.initialInterval
	bo.MaxElapsedTime = e.maxElapsed
	bo.MaxInterval = 10 * time.Second

	if err := backoff.Retry(sendFn, backoff.WithContext(bo, ctx)); err != nil {
		if e.logger != nil {
			e.logger.Error("❌ Notification delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
		return err
	}

	if e.logger != nil {
		e.logger.Info("✅ Notification delivered",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}

	return nil
}
