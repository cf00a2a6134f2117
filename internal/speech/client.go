package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MimeLyc/poe-dubber/pkg/log"
)

// Config configures the ElevenLabs text-to-speech client.
// Timeout is in seconds, zero disables it.
type Config struct {
	APIKey       string
	APIURL       string
	VoiceID      string
	ModelID      string
	OutputFormat string
	Timeout      int
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.VoiceID == "" {
		return fmt.Errorf("voice id is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// APIError is a non-2xx answer from the speech service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("speech API returned status %d: %s", e.StatusCode, e.Message)
}

// Client renders text to audio with a fixed voice
type Client struct {
	config     Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new speech client with the given configuration
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		config:  cfg,
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// Synthesize returns the complete audio body for text.
// The bytes are whatever container the configured output format produces.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.config.ModelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return nil, fmt.Errorf("speech request timed out: %w", err)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorDetail(body)}
	}

	log.Debug("Synthesized %d bytes of audio (%s)", len(body), resp.Header.Get("Content-Type"))
	return body, nil
}

func (c *Client) endpoint() string {
	u := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.config.VoiceID)
	if c.config.OutputFormat != "" {
		u += "?" + url.Values{"output_format": {c.config.OutputFormat}}.Encode()
	}
	return u
}

// errorDetail pulls a readable message out of an error body.
// The service answers with either {"detail":"..."} or {"detail":{"status":..,"message":".."}}.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var structured struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
		if structured.Status != "" {
			return structured.Status + ": " + structured.Message
		}
		return structured.Message
	}
	return string(envelope.Detail)
}
