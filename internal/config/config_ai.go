package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetReviewConfig returns the AI configuration for review operations with fallback to global config
func (c *Config) GetReviewConfig() OperationAIConfig {
	config := c.AI.Review

	c.applyOperationDefaults(&config)

	// Apply review-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ReviewResume == "" {
		config.CustomPrompts.SystemPrompts.ReviewResume = c.AI.CustomPrompts.SystemPrompts.ReviewResume
	}
	if config.CustomPrompts.UserPrompts.ReviewResume == "" {
		config.CustomPrompts.UserPrompts.ReviewResume = c.AI.CustomPrompts.UserPrompts.ReviewResume
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ReviewResumeFile == "" {
		config.CustomPrompts.SystemPrompts.ReviewResumeFile = c.AI.CustomPrompts.SystemPrompts.ReviewResumeFile
	}
	if config.CustomPrompts.UserPrompts.ReviewResumeFile == "" {
		config.CustomPrompts.UserPrompts.ReviewResumeFile = c.AI.CustomPrompts.UserPrompts.ReviewResumeFile
	}

	return config
}

// GetChatConfig returns the AI configuration for chat operations with fallback to global config
func (c *Config) GetChatConfig() OperationAIConfig {
	config := c.AI.Chat

	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.Chat == "" {
		config.CustomPrompts.SystemPrompts.Chat = c.AI.CustomPrompts.SystemPrompts.Chat
	}
	if config.CustomPrompts.UserPrompts.Chat == "" {
		config.CustomPrompts.UserPrompts.Chat = c.AI.CustomPrompts.UserPrompts.Chat
	}
	if config.CustomPrompts.SystemPrompts.ChatFile == "" {
		config.CustomPrompts.SystemPrompts.ChatFile = c.AI.CustomPrompts.SystemPrompts.ChatFile
	}
	if config.CustomPrompts.UserPrompts.ChatFile == "" {
		config.CustomPrompts.UserPrompts.ChatFile = c.AI.CustomPrompts.UserPrompts.ChatFile
	}

	return config
}

// GetPlanConfig returns the AI configuration for plan operations with fallback to global config
func (c *Config) GetPlanConfig() OperationAIConfig {
	config := c.AI.Plan

	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.AgentPlan == "" {
		config.CustomPrompts.SystemPrompts.AgentPlan = c.AI.CustomPrompts.SystemPrompts.AgentPlan
	}
	if config.CustomPrompts.UserPrompts.AgentPlan == "" {
		config.CustomPrompts.UserPrompts.AgentPlan = c.AI.CustomPrompts.UserPrompts.AgentPlan
	}
	if config.CustomPrompts.SystemPrompts.AgentPlanFile == "" {
		config.CustomPrompts.SystemPrompts.AgentPlanFile = c.AI.CustomPrompts.SystemPrompts.AgentPlanFile
	}
	if config.CustomPrompts.UserPrompts.AgentPlanFile == "" {
		config.CustomPrompts.UserPrompts.AgentPlanFile = c.AI.CustomPrompts.UserPrompts.AgentPlanFile
	}

	return config
}

// GetQueryConfig returns the AI configuration for agent query operations with fallback to global config
func (c *Config) GetQueryConfig() OperationAIConfig {
	config := c.AI.Query

	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.AgentQuery == "" {
		config.CustomPrompts.SystemPrompts.AgentQuery = c.AI.CustomPrompts.SystemPrompts.AgentQuery
	}
	if config.CustomPrompts.UserPrompts.AgentQuery == "" {
		config.CustomPrompts.UserPrompts.AgentQuery = c.AI.CustomPrompts.UserPrompts.AgentQuery
	}
	if config.CustomPrompts.SystemPrompts.AgentQueryFile == "" {
		config.CustomPrompts.SystemPrompts.AgentQueryFile = c.AI.CustomPrompts.SystemPrompts.AgentQueryFile
	}
	if config.CustomPrompts.UserPrompts.AgentQueryFile == "" {
		config.CustomPrompts.UserPrompts.AgentQueryFile = c.AI.CustomPrompts.UserPrompts.AgentQueryFile
	}

	return config
}

// GetLoadedReviewPrompts returns a copy of the loaded prompts for review operation
func (c *Config) GetLoadedReviewPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().Review
}

// GetLoadedChatPrompts returns a copy of the loaded prompts for chat operation
func (c *Config) GetLoadedChatPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().Chat
}

// GetLoadedPlanPrompts returns a copy of the loaded prompts for plan operation
func (c *Config) GetLoadedPlanPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().Plan
}

// GetLoadedQueryPrompts returns a copy of the loaded prompts for query operation
func (c *Config) GetLoadedQueryPrompts() OperationLoadedPrompts {
	return getLoadedPrompts().Query
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return getLoadedPrompts().Global
}
