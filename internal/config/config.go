package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MimeLyc/poe-dubber/internal/job"
)

// DefaultVoiceID is the ElevenLabs voice every dub is rendered with
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// Config holds all application configuration.
// It is read once at startup and not modified afterwards.
//
// Environment Variables:
// Required:
// - POE_ACCESS_KEY: shared secret expected in the x-poe-access-key header
// - OPENAI_API_KEY: key for transcription and translation
// - ELEVENLABS_API_KEY: key for speech synthesis
//
// OpenAI:
// - OPENAI_API_URL: API base URL (default: https://api.openai.com/v1)
// - OPENAI_TRANSCRIPTION_MODEL: (default: whisper-1)
// - OPENAI_TRANSLATION_MODEL: (default: gpt-4o-mini)
// - OPENAI_TIMEOUT: request timeout in seconds, 0 disables (default: 0)
// - OPENAI_MAX_TOKENS: translation max_tokens, 0 leaves it unset (default: 0)
// - OPENAI_TEMPERATURE: translation temperature, 0 leaves it unset (default: 0)
//
// ElevenLabs:
// - ELEVENLABS_API_URL: (default: https://api.elevenlabs.io)
// - ELEVENLABS_MODEL_ID: (default: eleven_multilingual_v2)
// - ELEVENLABS_OUTPUT_FORMAT: (default: mp3_44100_128)
// - ELEVENLABS_TIMEOUT: request timeout in seconds, 0 disables (default: 0)
//
// Jobs:
// - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
// - WORK_DIR: directory job files are written to (default: .)
// - JOB_CLEANUP: keep, failed or intermediate (default: keep)
//
// Object storage (disabled unless MINIO_ENDPOINT is set):
// - MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY
// - MINIO_BUCKET: (default: dubbed-videos)
// - MINIO_USE_SSL: (default: false)
// - MINIO_PUBLIC_URL: base URL for download links (optional)
//
// System:
// - HTTP_ADDR: listen address (default: :8000)
// - LOG_LEVEL: debug, info, warn, error (default: info)
type Config struct {
	HTTP       HTTPConfig       `json:"http"`
	OpenAI     OpenAIConfig     `json:"openai"`
	ElevenLabs ElevenLabsConfig `json:"elevenlabs"`
	Jobs       JobsConfig       `json:"jobs"`
	Minio      MinioConfig      `json:"minio"`
	System     SystemConfig     `json:"system"`
}

// HTTPConfig holds the server configuration
type HTTPConfig struct {
	Addr      string `json:"addr"`
	AccessKey string `json:"-"`
}

// OpenAIConfig holds the configuration for transcription and translation
type OpenAIConfig struct {
	APIKey             string  `json:"-"`
	APIURL             string  `json:"api_url"`
	TranscriptionModel string  `json:"transcription_model"`
	TranslationModel   string  `json:"translation_model"`
	MaxTokens          int     `json:"max_tokens"`
	Temperature        float64 `json:"temperature"`
	Timeout            int     `json:"timeout"`
}

// ElevenLabsConfig holds the configuration for speech synthesis
type ElevenLabsConfig struct {
	APIKey       string `json:"-"`
	APIURL       string `json:"api_url"`
	VoiceID      string `json:"voice_id"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format"`
	Timeout      int    `json:"timeout"`
}

// JobsConfig holds the configuration of the dubbing pipeline
type JobsConfig struct {
	FFmpegPath string            `json:"ffmpeg_path"`
	WorkDir    string            `json:"work_dir"`
	Cleanup    job.CleanupPolicy `json:"cleanup"`
}

// MinioConfig holds the optional object storage configuration
type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	PublicURL string `json:"public_url"`
}

// Enabled reports whether uploads to object storage are configured
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

// SystemConfig holds the system configuration
type SystemConfig struct {
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	cleanup, err := job.ParseCleanupPolicy(getEnvString("JOB_CLEANUP", string(job.CleanupKeep)))
	if err != nil {
		return nil, fmt.Errorf("JOB_CLEANUP: %w", err)
	}

	config := &Config{
		HTTP: HTTPConfig{
			Addr:      getEnvString("HTTP_ADDR", ":8000"),
			AccessKey: getEnvString("POE_ACCESS_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnvString("OPENAI_API_KEY", ""),
			APIURL:             getEnvString("OPENAI_API_URL", "https://api.openai.com/v1"),
			TranscriptionModel: getEnvString("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
			TranslationModel:   getEnvString("OPENAI_TRANSLATION_MODEL", "gpt-4o-mini"),
			MaxTokens:          getEnvInt("OPENAI_MAX_TOKENS", 0),
			Temperature:        getEnvFloat("OPENAI_TEMPERATURE", 0),
			Timeout:            getEnvInt("OPENAI_TIMEOUT", 0),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:       getEnvString("ELEVENLABS_API_KEY", ""),
			APIURL:       getEnvString("ELEVENLABS_API_URL", "https://api.elevenlabs.io"),
			VoiceID:      DefaultVoiceID,
			ModelID:      getEnvString("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
			OutputFormat: getEnvString("ELEVENLABS_OUTPUT_FORMAT", "mp3_44100_128"),
			Timeout:      getEnvInt("ELEVENLABS_TIMEOUT", 0),
		},
		Jobs: JobsConfig{
			FFmpegPath: getEnvString("FFMPEG_PATH", "ffmpeg"),
			WorkDir:    getEnvString("WORK_DIR", "."),
			Cleanup:    cleanup,
		},
		Minio: MinioConfig{
			Endpoint:  getEnvString("MINIO_ENDPOINT", ""),
			AccessKey: getEnvString("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnvString("MINIO_SECRET_KEY", ""),
			Bucket:    getEnvString("MINIO_BUCKET", "dubbed-videos"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnvString("MINIO_PUBLIC_URL", ""),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// WithWorkDir overrides WORK_DIR
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.Jobs.WorkDir = dir
	}
}

// WithHTTPAddr overrides HTTP_ADDR
func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		c.HTTP.Addr = addr
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	var missing []string
	if c.HTTP.AccessKey == "" {
		missing = append(missing, "POE_ACCESS_KEY")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.ElevenLabs.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, ", "))
	}

	if c.OpenAI.Timeout < 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must not be negative")
	}
	if c.OpenAI.MaxTokens < 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must not be negative")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if c.ElevenLabs.Timeout < 0 {
		return fmt.Errorf("ELEVENLABS_TIMEOUT must not be negative")
	}
	if c.Minio.Enabled() && c.Minio.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
	}
	return nil
}

// String renders the configuration with secrets masked
func (c *Config) String() string {
	return fmt.Sprintf(
		"http{addr=%s access_key=%s} openai{url=%s transcription=%s translation=%s max_tokens=%d temperature=%g timeout=%ds key=%s} "+
			"elevenlabs{url=%s voice=%s model=%s format=%s timeout=%ds key=%s} "+
			"jobs{ffmpeg=%s work_dir=%s cleanup=%s} minio{enabled=%t endpoint=%s bucket=%s ssl=%t} log_level=%s",
		c.HTTP.Addr, mask(c.HTTP.AccessKey),
		c.OpenAI.APIURL, c.OpenAI.TranscriptionModel, c.OpenAI.TranslationModel, c.OpenAI.MaxTokens, c.OpenAI.Temperature, c.OpenAI.Timeout, mask(c.OpenAI.APIKey),
		c.ElevenLabs.APIURL, c.ElevenLabs.VoiceID, c.ElevenLabs.ModelID, c.ElevenLabs.OutputFormat, c.ElevenLabs.Timeout, mask(c.ElevenLabs.APIKey),
		c.Jobs.FFmpegPath, c.Jobs.WorkDir, c.Jobs.Cleanup,
		c.Minio.Enabled(), c.Minio.Endpoint, c.Minio.Bucket, c.Minio.UseSSL,
		c.System.LogLevel,
	)
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "***"
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
