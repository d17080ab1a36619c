package prompts

import (
	"strings"
	"testing"
)

func TestBuildPromptSubstitutesVariables(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}

	prompt, err := pm.BuildPrompt("resume_score", map[string]string{
		"JobTitle":        "Store Worker",
		"JobRequirements": "Customer handling",
		"Resume":          "Three years in retail.",
	})
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}

	for _, want := range []string{"Store Worker", "Customer handling", "Three years in retail."} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
	if strings.Contains(prompt, "{{.") {
		t.Fatalf("expected all placeholders substituted, got: %s", prompt)
	}
}

func TestBuildPromptUnknownTemplate(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}

	if _, err := pm.BuildPrompt("no_such_template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestTemplatesLoaded(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}

	names := pm.GetTemplates()
	found := false
	for _, name := range names {
		if name == "resume_score" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected resume_score template, got %v", names)
	}
}
