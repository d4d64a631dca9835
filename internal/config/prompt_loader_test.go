package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}
	return path
}

func TestLoadPromptFromFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}

	t.Run("valid prompt file", func(t *testing.T) {
		path := writePromptFile(t, dir, "review.txt", "You are a career coach.\n")

		content, err := cfg.loadPromptFromFile(path, "system", "reviewResume")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if content != "You are a career coach." {
			t.Errorf("expected trimmed content, got %q", content)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := cfg.loadPromptFromFile(filepath.Join(dir, "missing.txt"), "system", "reviewResume")
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not-found error, got: %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writePromptFile(t, dir, "empty.txt", "   \n\t\n")

		_, err := cfg.loadPromptFromFile(path, "user", "chat")
		if err == nil {
			t.Fatal("expected error for empty file")
		}
		if !strings.Contains(err.Error(), "is empty") {
			t.Errorf("expected empty-file error, got: %v", err)
		}
	})
}

func TestLoadPromptsFromFiles(t *testing.T) {
	dir := t.TempDir()

	reviewSystem := writePromptFile(t, dir, "review_system.txt", "Review system prompt")
	chatSystem := writePromptFile(t, dir, "chat_system.txt", "Chat system prompt")
	planUser := writePromptFile(t, dir, "plan_user.txt", "Plan user prompt")

	cfg := &Config{}
	cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = reviewSystem
	cfg.AI.Chat.CustomPrompts.SystemPrompts.ChatFile = chatSystem
	cfg.AI.Plan.CustomPrompts.UserPrompts.AgentPlanFile = planUser

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := GetLoadedPrompts()
	if loaded.Global.SystemPrompts.ReviewResume != "Review system prompt" {
		t.Errorf("global review system prompt not loaded: %q", loaded.Global.SystemPrompts.ReviewResume)
	}
	if loaded.Chat.SystemPrompts.Chat != "Chat system prompt" {
		t.Errorf("chat-specific system prompt not loaded: %q", loaded.Chat.SystemPrompts.Chat)
	}
	if loaded.Plan.UserPrompts.AgentPlan != "Plan user prompt" {
		t.Errorf("plan-specific user prompt not loaded: %q", loaded.Plan.UserPrompts.AgentPlan)
	}
}

func TestLoadPromptsFromFilesFailureKeepsNothingPartial(t *testing.T) {
	dir := t.TempDir()
	good := writePromptFile(t, dir, "good.txt", "Good prompt")

	cfg := &Config{}
	cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = good
	cfg.AI.CustomPrompts.SystemPrompts.ChatFile = filepath.Join(dir, "missing.txt")

	if err := cfg.loadPromptsFromFiles(); err == nil {
		t.Fatal("expected error when one prompt file is missing")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	dir := t.TempDir()
	existing := writePromptFile(t, dir, "prompt.txt", "content")

	t.Run("all files exist", func(t *testing.T) {
		cfg := &Config{}
		cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = existing
		cfg.AI.Query.CustomPrompts.UserPrompts.AgentQueryFile = existing

		if err := cfg.validatePromptFiles(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no files configured", func(t *testing.T) {
		cfg := &Config{}
		if err := cfg.validatePromptFiles(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing file reported", func(t *testing.T) {
		cfg := &Config{}
		cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = existing
		cfg.AI.Chat.CustomPrompts.SystemPrompts.ChatFile = filepath.Join(dir, "nope.txt")

		err := cfg.validatePromptFiles()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "nope.txt") {
			t.Errorf("error should name the missing file, got: %v", err)
		}
	})
}

func TestPromptFilePaths(t *testing.T) {
	cfg := &Config{}
	cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = "/prompts/review.txt"
	cfg.AI.CustomPrompts.UserPrompts.ChatFile = "/prompts/chat_user.txt"
	cfg.AI.Query.CustomPrompts.SystemPrompts.AgentQueryFile = "/prompts/query.txt"
	// Duplicate path configured in two places should appear once
	cfg.AI.Review.CustomPrompts.SystemPrompts.ReviewResumeFile = "/prompts/review.txt"

	paths := cfg.PromptFilePaths()

	if len(paths) != 3 {
		t.Fatalf("expected 3 deduplicated paths, got %d: %v", len(paths), paths)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			t.Errorf("duplicate path returned: %s", p)
		}
		seen[p] = true
	}
	for _, want := range []string{"/prompts/review.txt", "/prompts/chat_user.txt", "/prompts/query.txt"} {
		if !seen[want] {
			t.Errorf("expected path %s in %v", want, paths)
		}
	}
}
