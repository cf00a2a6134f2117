package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MimeLyc/poe-dubber/pkg/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
)

// Config configures the speech-to-text client.
// Timeout is in seconds, zero disables it.
type Config struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout int
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// Client transcribes audio files through the OpenAI audio API
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a client. An empty model selects whisper-1.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	aiConfig := openai.DefaultConfig(cfg.APIKey)
	aiConfig.BaseURL = strings.TrimRight(cfg.APIURL, "/")
	aiConfig.HTTPClient = &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &Client{
		api:   openai.NewClientWithConfig(aiConfig),
		model: model,
	}, nil
}

// Transcribe uploads the audio file and returns the recognised text.
// No language hint is sent; the service detects the spoken language.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("transcription of %s: %w", audioPath, err)
	}

	if tag, confidence := DetectLanguage(resp.Text); tag != language.Und {
		log.Debug("Transcript language looks like %s (confidence %.2f)", tag, confidence)
	}
	return resp.Text, nil
}
