package translator

import (
	"context"
	"fmt"

	"github.com/MimeLyc/poe-dubber/internal/llm"
	"github.com/MimeLyc/poe-dubber/pkg/log"
)

const systemPromptTemplate = "Translate the following text into %s."

// chatClient is the part of llm.Client the translator needs
type chatClient interface {
	SimpleChat(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// Translator translates a transcript with a single chat completion
type Translator struct {
	client chatClient
}

// New creates a translator on top of an llm client
func New(client *llm.Client) *Translator {
	return &Translator{client: client}
}

// SystemPrompt returns the instruction sent as the system message.
// The target language is inserted verbatim.
func SystemPrompt(targetLanguage string) string {
	return fmt.Sprintf(systemPromptTemplate, targetLanguage)
}

// Translate returns the first choice of the completion unchanged
func (t *Translator) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	log.Debug("Translating %d characters into %q", len(text), targetLanguage)

	translated, err := t.client.SimpleChat(ctx, text, SystemPrompt(targetLanguage))
	if err != nil {
		return "", fmt.Errorf("translate into %s: %w", targetLanguage, err)
	}
	return translated, nil
}
