package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"valid", Config{APIKey: "k", APIURL: "u", Model: "m"}, ""},
		{"missing key", Config{APIURL: "u", Model: "m"}, "API key is required"},
		{"missing url", Config{APIKey: "k", Model: "m"}, "API URL is required"},
		{"missing model", Config{APIKey: "k", APIURL: "u"}, "model is required"},
		{"negative tokens", Config{APIKey: "k", APIURL: "u", Model: "m", MaxTokens: -1}, "max tokens"},
		{"temperature too high", Config{APIKey: "k", APIURL: "u", Model: "m", Temperature: 2.5}, "temperature"},
		{"negative timeout", Config{APIKey: "k", APIURL: "u", Model: "m", Timeout: -1}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChatCompletionOptions(t *testing.T) {
	opts := NewChatCompletionOptions()
	assert.Empty(t, opts.SystemPrompt)

	opts = opts.WithSystemPrompt("sys")
	assert.Equal(t, "sys", opts.SystemPrompt)
}

func TestMessageMarshaling(t *testing.T) {
	data, err := json.Marshal(Message{Role: "user", Content: "Hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"Hello"}`, string(data))
}

func TestErrorImplementation(t *testing.T) {
	var err error = &Error{Message: "quota exceeded", Type: "insufficient_quota", Code: "429"}
	assert.Equal(t, "LLM API Error: quota exceeded (type: insufficient_quota, code: 429)", err.Error())

	var target *Error
	assert.True(t, errors.As(err, &target))
}
