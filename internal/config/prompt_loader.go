package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// GetLoadedPrompts returns a snapshot of the loaded prompt content
func GetLoadedPrompts() AllLoadedPrompts {
	return getLoadedPrompts()
}

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified. Called at startup and again by the prompt watcher when a
// watched file changes.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	var all AllLoadedPrompts

	// Load global prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &all.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &all.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	// Load operation-specific prompts
	operations := []struct {
		name    string
		prompts *PromptConfig
		target  *OperationLoadedPrompts
	}{
		{"review", &c.AI.Review.CustomPrompts, &all.Review},
		{"chat", &c.AI.Chat.CustomPrompts, &all.Chat},
		{"plan", &c.AI.Plan.CustomPrompts, &all.Plan},
		{"query", &c.AI.Query.CustomPrompts, &all.Query},
	}

	for _, op := range operations {
		if err := c.loadSystemPromptsFromFiles(&op.prompts.SystemPrompts, &op.target.SystemPrompts); err != nil {
			return fmt.Errorf("failed to load %s system prompts: %w", op.name, err)
		}
		if err := c.loadUserPromptsFromFiles(&op.prompts.UserPrompts, &op.target.UserPrompts); err != nil {
			return fmt.Errorf("failed to load %s user prompts: %w", op.name, err)
		}
	}

	setLoadedPrompts(all)

	c.logPromptLoadingSummary(&all)

	return nil
}

// ReloadPrompts re-reads every configured prompt file and swaps in the new
// set. On failure the previously loaded prompts stay in effect.
func (c *Config) ReloadPrompts() error {
	return c.loadPromptsFromFiles()
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	if prompts.ReviewResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.ReviewResumeFile, "system", "reviewResume")
		if err != nil {
			return err
		}
		target.ReviewResume = content
	}

	if prompts.ChatFile != "" {
		content, err := c.loadPromptFromFile(prompts.ChatFile, "system", "chat")
		if err != nil {
			return err
		}
		target.Chat = content
	}

	if prompts.AgentPlanFile != "" {
		content, err := c.loadPromptFromFile(prompts.AgentPlanFile, "system", "agentPlan")
		if err != nil {
			return err
		}
		target.AgentPlan = content
	}

	if prompts.AgentQueryFile != "" {
		content, err := c.loadPromptFromFile(prompts.AgentQueryFile, "system", "agentQuery")
		if err != nil {
			return err
		}
		target.AgentQuery = content
	}

	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	if prompts.ReviewResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.ReviewResumeFile, "user", "reviewResume")
		if err != nil {
			return err
		}
		target.ReviewResume = content
	}

	if prompts.ChatFile != "" {
		content, err := c.loadPromptFromFile(prompts.ChatFile, "user", "chat")
		if err != nil {
			return err
		}
		target.Chat = content
	}

	if prompts.AgentPlanFile != "" {
		content, err := c.loadPromptFromFile(prompts.AgentPlanFile, "user", "agentPlan")
		if err != nil {
			return err
		}
		target.AgentPlan = content
	}

	if prompts.AgentQueryFile != "" {
		content, err := c.loadPromptFromFile(prompts.AgentQueryFile, "user", "agentQuery")
		if err != nil {
			return err
		}
		target.AgentQuery = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// PromptFilePaths returns every configured prompt file path, deduplicated.
// Used by the prompt watcher to decide which files to watch for changes.
func (c *Config) PromptFilePaths() []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		paths = append(paths, path)
	}

	collect := func(prompts *PromptConfig) {
		add(prompts.SystemPrompts.ReviewResumeFile)
		add(prompts.SystemPrompts.ChatFile)
		add(prompts.SystemPrompts.AgentPlanFile)
		add(prompts.SystemPrompts.AgentQueryFile)
		add(prompts.UserPrompts.ReviewResumeFile)
		add(prompts.UserPrompts.ChatFile)
		add(prompts.UserPrompts.AgentPlanFile)
		add(prompts.UserPrompts.AgentQueryFile)
	}

	collect(&c.AI.CustomPrompts)
	collect(&c.AI.Review.CustomPrompts)
	collect(&c.AI.Chat.CustomPrompts)
	collect(&c.AI.Plan.CustomPrompts)
	collect(&c.AI.Query.CustomPrompts)

	return paths
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	// Helper function to validate a file path
	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.ReviewResumeFile, "system", "reviewResume")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ChatFile, "system", "chat")
	validateFile(c.AI.CustomPrompts.SystemPrompts.AgentPlanFile, "system", "agentPlan")
	validateFile(c.AI.CustomPrompts.SystemPrompts.AgentQueryFile, "system", "agentQuery")
	validateFile(c.AI.CustomPrompts.UserPrompts.ReviewResumeFile, "user", "reviewResume")
	validateFile(c.AI.CustomPrompts.UserPrompts.ChatFile, "user", "chat")
	validateFile(c.AI.CustomPrompts.UserPrompts.AgentPlanFile, "user", "agentPlan")
	validateFile(c.AI.CustomPrompts.UserPrompts.AgentQueryFile, "user", "agentQuery")

	// Validate operation-specific prompt files
	validateFile(c.AI.Review.CustomPrompts.SystemPrompts.ReviewResumeFile, "review system", "reviewResume")
	validateFile(c.AI.Review.CustomPrompts.UserPrompts.ReviewResumeFile, "review user", "reviewResume")
	validateFile(c.AI.Chat.CustomPrompts.SystemPrompts.ChatFile, "chat system", "chat")
	validateFile(c.AI.Chat.CustomPrompts.UserPrompts.ChatFile, "chat user", "chat")
	validateFile(c.AI.Plan.CustomPrompts.SystemPrompts.AgentPlanFile, "plan system", "agentPlan")
	validateFile(c.AI.Plan.CustomPrompts.UserPrompts.AgentPlanFile, "plan user", "agentPlan")
	validateFile(c.AI.Query.CustomPrompts.SystemPrompts.AgentQueryFile, "query system", "agentQuery")
	validateFile(c.AI.Query.CustomPrompts.UserPrompts.AgentQueryFile, "query user", "agentQuery")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary(all *AllLoadedPrompts) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := 0

	promptChecks := []struct {
		content string
		message string
	}{
		{all.Global.SystemPrompts.ReviewResume, "[CONFIG] Global system review prompt: loaded from file"},
		{all.Global.SystemPrompts.Chat, "[CONFIG] Global system chat prompt: loaded from file"},
		{all.Global.SystemPrompts.AgentPlan, "[CONFIG] Global system plan prompt: loaded from file"},
		{all.Global.SystemPrompts.AgentQuery, "[CONFIG] Global system query prompt: loaded from file"},
		{all.Global.UserPrompts.ReviewResume, "[CONFIG] Global user review prompt: loaded from file"},
		{all.Global.UserPrompts.Chat, "[CONFIG] Global user chat prompt: loaded from file"},
		{all.Global.UserPrompts.AgentPlan, "[CONFIG] Global user plan prompt: loaded from file"},
		{all.Global.UserPrompts.AgentQuery, "[CONFIG] Global user query prompt: loaded from file"},
		{all.Review.SystemPrompts.ReviewResume, "[CONFIG] Review-specific system prompt: loaded from file"},
		{all.Review.UserPrompts.ReviewResume, "[CONFIG] Review-specific user prompt: loaded from file"},
		{all.Chat.SystemPrompts.Chat, "[CONFIG] Chat-specific system prompt: loaded from file"},
		{all.Chat.UserPrompts.Chat, "[CONFIG] Chat-specific user prompt: loaded from file"},
		{all.Plan.SystemPrompts.AgentPlan, "[CONFIG] Plan-specific system prompt: loaded from file"},
		{all.Plan.UserPrompts.AgentPlan, "[CONFIG] Plan-specific user prompt: loaded from file"},
		{all.Query.SystemPrompts.AgentQuery, "[CONFIG] Query-specific system prompt: loaded from file"},
		{all.Query.UserPrompts.AgentQuery, "[CONFIG] Query-specific user prompt: loaded from file"},
	}

	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
