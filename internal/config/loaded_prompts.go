package config

import (
	"sync"
)

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	ReviewResume string
	Chat         string
	AgentPlan    string
	AgentQuery   string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	ReviewResume string
	Chat         string
	AgentPlan    string
	AgentQuery   string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global LoadedPrompts
	Review OperationLoadedPrompts
	Chat   OperationLoadedPrompts
	Plan   OperationLoadedPrompts
	Query  OperationLoadedPrompts
}

// getLoadedPrompts returns a snapshot of the loaded prompts. Prompt files can
// be rewritten at runtime by the watcher, so access goes through the lock.
func getLoadedPrompts() AllLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

// setLoadedPrompts replaces the loaded prompt set atomically
func setLoadedPrompts(prompts AllLoadedPrompts) {
	loadedPromptsMu.Lock()
	defer loadedPromptsMu.Unlock()
	loadedPrompts = prompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	all := getLoadedPrompts()

	switch operationType {
	case "review":
		return all.Review
	case "chat":
		return all.Chat
	case "plan":
		return all.Plan
	case "query":
		return all.Query
	default:
		return OperationLoadedPrompts{
			SystemPrompts: all.Global.SystemPrompts,
			UserPrompts:   all.Global.UserPrompts,
		}
	}
}
