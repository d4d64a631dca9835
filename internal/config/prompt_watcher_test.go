package config

import (
	"testing"
	"time"
)

func TestNewPromptWatcherNoFiles(t *testing.T) {
	cfg := &Config{}

	watcher := NewPromptWatcher(cfg, time.Second, nil, nil, nil)
	if watcher != nil {
		t.Error("expected nil watcher when no prompt files are configured")
	}
}

func TestPromptWatcherLifecycle(t *testing.T) {
	dir := t.TempDir()
	promptFile := writePromptFile(t, dir, "review.txt", "Review prompt")

	cfg := &Config{}
	cfg.AI.CustomPrompts.SystemPrompts.ReviewResumeFile = promptFile

	watcher := NewPromptWatcher(cfg, 10*time.Millisecond, nil, nil, nil)
	if watcher == nil {
		t.Fatal("expected a watcher when prompt files are configured")
	}

	files := watcher.WatchedFiles()
	if len(files) != 1 || files[0] != promptFile {
		t.Errorf("expected watched files [%s], got %v", promptFile, files)
	}

	if watcher.IsRunning() {
		t.Error("watcher should not be running before Start")
	}

	if err := watcher.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	if !watcher.IsRunning() {
		t.Error("watcher should be running after Start")
	}

	// Starting twice is an error
	if err := watcher.Start(); err == nil {
		t.Error("expected error starting an already running watcher")
	}

	if err := watcher.Stop(); err != nil {
		t.Fatalf("failed to stop watcher: %v", err)
	}
	if watcher.IsRunning() {
		t.Error("watcher should not be running after Stop")
	}

	// Stopping twice is a no-op
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got: %v", err)
	}
}

func TestNewPromptWatcherZeroDebounceDefaults(t *testing.T) {
	dir := t.TempDir()
	promptFile := writePromptFile(t, dir, "chat.txt", "Chat prompt")

	cfg := &Config{}
	cfg.AI.Chat.CustomPrompts.SystemPrompts.ChatFile = promptFile

	watcher := NewPromptWatcher(cfg, 0, nil, nil, nil)
	if watcher == nil {
		t.Fatal("expected a watcher")
	}
	if watcher.debounceDelay != time.Second {
		t.Errorf("expected default debounce of 1s, got %v", watcher.debounceDelay)
	}
}
