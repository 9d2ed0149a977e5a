package ai

import (
	"strings"
	"testing"
)

func TestBuildPromptWithContext(t *testing.T) {
	prompt := BuildPrompt("When is the exam?", []string{
		"The final exam takes place in week 15.",
		"Bring a calculator to the exam.",
	})

	if !strings.Contains(prompt, "[Reference material]") {
		t.Error("reference material header missing")
	}
	if !strings.Contains(prompt, "--- Context 1 ---") || !strings.Contains(prompt, "--- Context 2 ---") {
		t.Error("context sections not numbered")
	}
	if !strings.Contains(prompt, "week 15") {
		t.Error("chunk text missing from prompt")
	}
	if !strings.Contains(prompt, "[Question]\nWhen is the exam?") {
		t.Error("question not placed after question header")
	}
	if !strings.HasSuffix(prompt, "[Answer]\n") {
		t.Error("prompt must end with the answer header")
	}
}

func TestBuildPromptWithoutContext(t *testing.T) {
	prompt := BuildPrompt("When is the exam?", nil)

	if strings.Contains(prompt, "[Reference material]") {
		t.Error("empty context must not produce a reference section")
	}
	if !strings.Contains(prompt, noContextNote) {
		t.Error("missing-material note absent")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens("", nil); got < 1 {
		t.Errorf("estimate must be at least 1, got %d", got)
	}

	small := estimateTokens("short question", nil)
	large := estimateTokens("short question", []string{strings.Repeat("x", 4000)})
	if large <= small {
		t.Errorf("context should raise the estimate: %d <= %d", large, small)
	}
}
