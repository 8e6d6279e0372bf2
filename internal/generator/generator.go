package generator

import "context"

// Generator produces an assistant reply for a single prompt. Implementations
// may fail; callers get no streaming, no multi-turn context, no retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// briefResponseInstruction is prepended to every prompt so replies stay short
// enough for a chat bubble.
const briefResponseInstruction = "Please provide a brief response in 2-3 sentences: "

// WrapPrompt applies the brief-response instruction to a raw user prompt.
func WrapPrompt(prompt string) string {
	return briefResponseInstruction + prompt
}
