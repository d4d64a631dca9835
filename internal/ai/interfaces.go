package ai

import (
	"context"

	"kareerbot/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ReviewResume(ctx context.Context, input types.ReviewResumeInput) (types.ReviewResumeOutput, *TokenUsage, error)
	Chat(ctx context.Context, input types.ChatInput) (types.ChatOutput, *TokenUsage, error)
	GeneratePlan(ctx context.Context, input types.PlanInput) (types.PlanOutput, *TokenUsage, error)
	AgentQuery(ctx context.Context, input types.AgentQueryInput) (types.AgentQueryOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// PromptBuilder interface for building AI prompts
type PromptBuilder interface {
	BuildReviewPrompt(resumeText string) string
	BuildPlanPrompt(goal string) string
}
