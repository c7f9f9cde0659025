// Package ai defines the text generation backends used to rank jobs.
package ai

import "context"

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Generator sends a system instruction and a user message to a model and
// returns its textual answer.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}
