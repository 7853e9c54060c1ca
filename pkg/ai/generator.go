package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Temperature is passed explicitly: retrieval-faithful answers use 0,
// creative program generation uses a higher value.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}
