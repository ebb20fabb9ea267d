package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTutorPromptEmbedsDocument(t *testing.T) {
	text := "\n--- PAGE 1 ---\nNewton's first law\n"
	prompt := TutorPrompt(text)

	assert.Contains(t, prompt, text)
	assert.Contains(t, prompt, "[Page X]")
	assert.NotEqual(t, FallbackPrompt, prompt)
}

func TestTutorPromptFallsBackWithoutDocument(t *testing.T) {
	assert.Equal(t, FallbackPrompt, TutorPrompt(""))
}
