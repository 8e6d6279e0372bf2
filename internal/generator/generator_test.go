package generator

import (
	"strings"
	"testing"
)

func TestWrapPrompt(t *testing.T) {
	wrapped := WrapPrompt("what is the capital of France?")
	if !strings.HasPrefix(wrapped, "Please provide a brief response in 2-3 sentences: ") {
		t.Fatalf("missing brief-response instruction: %q", wrapped)
	}
	if !strings.HasSuffix(wrapped, "what is the capital of France?") {
		t.Fatalf("prompt content altered: %q", wrapped)
	}
}
