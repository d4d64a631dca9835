package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"kareerbot/internal/config"
	kareerbotErrors "kareerbot/internal/errors"
	"kareerbot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *kareerbotErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *kareerbotErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, kareerbotErrors.NewAIError(kareerbotErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

const modelCheckTimeout = 10 * time.Second

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		// Consider other network errors retryable (e.g., connection refused)
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// generate runs a single generate-content call with tracing, the operation
// timeout, circuit breaker, and retry logic. All public operations funnel
// through here.
func (g *GeminiProvider) generate(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (*genai.GenerateContentResponse, context.Context, error) {
	tracer := otel.Tracer("kareerbot.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	// Every provider call is bounded by the operation timeout regardless of
	// what deadline the caller carries.
	callCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, ctx, kareerbotErrors.NewAIError(kareerbotErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result, ctx, nil
}

// executeTextOperation runs an operation whose reply is consumed as free text
func executeTextOperation(
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	result, _, err := g.generate(ctx, operationName, userPrompt, systemPrompt, g.buildTextConfig(), spanAttributes...)
	if err != nil {
		return "", nil, err
	}
	return result.Text(), extractTokenUsage(result), nil
}

// executeJSONOperation runs a schema-constrained operation and unmarshals the
// reply into Out.
func executeJSONOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out

	result, spanCtx, err := g.generate(ctx, operationName, userPrompt, systemPrompt, genaiConfig, spanAttributes...)
	if err != nil {
		return output, nil, err
	}

	if err := json.Unmarshal([]byte(StripCodeFences(result.Text())), &output); err != nil {
		if span := trace.SpanFromContext(spanCtx); span.IsRecording() {
			span.RecordError(err)
		}
		return output, nil, kareerbotErrors.NewAIError(kareerbotErrors.ErrCodeMalformedReply,
			"Failed to parse AI response for "+operationName, err)
	}

	return output, extractTokenUsage(result), nil
}

// ReviewResume implements AIProvider interface for resume feedback
func (g *GeminiProvider) ReviewResume(ctx context.Context, input types.ReviewResumeInput) (types.ReviewResumeOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForReview(input.ResumeText)

	raw, tokenUsage, err := executeTextOperation(
		g,
		ctx,
		"review_resume",
		userPrompt,
		systemPrompt,
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
	if err != nil {
		return types.ReviewResumeOutput{}, nil, err
	}

	feedback, err := ParseFeedback(raw)
	if err != nil {
		return types.ReviewResumeOutput{}, nil, err
	}

	return types.ReviewResumeOutput{Feedback: feedback}, tokenUsage, nil
}

// Chat implements AIProvider interface for career chat
func (g *GeminiProvider) Chat(ctx context.Context, input types.ChatInput) (types.ChatOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForChat(input)

	reply, tokenUsage, err := executeTextOperation(
		g,
		ctx,
		"chat",
		userPrompt,
		systemPrompt,
		attribute.Int("input.message_length", len(input.Message)),
		attribute.Int("input.history_turns", len(input.History)),
	)
	if err != nil {
		return types.ChatOutput{}, nil, err
	}

	return types.ChatOutput{Reply: strings.TrimSpace(reply)}, tokenUsage, nil
}

// GeneratePlan implements AIProvider interface for career plan generation
func (g *GeminiProvider) GeneratePlan(ctx context.Context, input types.PlanInput) (types.PlanOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForPlan(input.Goal)

	plan, tokenUsage, err := executeJSONOperation[types.Plan](
		g,
		ctx,
		"agent_plan",
		userPrompt,
		systemPrompt,
		g.buildPlanSchema(),
		attribute.Int("input.goal_length", len(input.Goal)),
	)
	if err != nil {
		return types.PlanOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.step_count", len(plan.Plan)))
	}

	return types.PlanOutput{Plan: plan}, tokenUsage, nil
}

// AgentQuery implements AIProvider interface for persona-driven agent queries
func (g *GeminiProvider) AgentQuery(ctx context.Context, input types.AgentQueryInput) (types.AgentQueryOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForQuery(input)

	reply, tokenUsage, err := executeTextOperation(
		g,
		ctx,
		"agent_query",
		userPrompt,
		systemPrompt,
		attribute.Int("input.query_length", len(input.Query)),
		attribute.Int("input.history_turns", len(input.ChatHistory)),
	)
	if err != nil {
		return types.AgentQueryOutput{}, nil, err
	}

	return types.AgentQueryOutput{Reply: strings.TrimSpace(reply)}, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildTextConfig creates the generation config for free-text replies
func (g *GeminiProvider) buildTextConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}
	return config
}

// buildPlanSchema creates the schema for career plan requests
func (g *GeminiProvider) buildPlanSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"goal": {Type: genai.TypeString},
				"plan": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"step":        {Type: genai.TypeInteger},
							"description": {Type: genai.TypeString},
						},
						Required: []string{"step", "description"},
					},
				},
			},
			Required: []string{"goal", "plan"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// getPromptsForReview returns system and user prompts for resume feedback
func (g *GeminiProvider) getPromptsForReview(resumeText string) (string, string) {
	systemPrompt := g.getSystemPrompt("review")
	userPrompt := g.getUserPrompt("review")

	// The resume is interpolated verbatim, never sanitized or truncated here.
	return systemPrompt, fmt.Sprintf(userPrompt, resumeText)
}

// getPromptsForChat returns system and user prompts for career chat
func (g *GeminiProvider) getPromptsForChat(input types.ChatInput) (string, string) {
	systemPrompt := g.getSystemPrompt("chat")
	userPrompt := g.getUserPrompt("chat")

	resume := input.ResumeText
	if resume == "" {
		resume = "(none provided)"
	}

	return systemPrompt, fmt.Sprintf(userPrompt, resume, renderHistory(input.History), input.Message)
}

// getPromptsForPlan returns system and user prompts for plan generation
func (g *GeminiProvider) getPromptsForPlan(goal string) (string, string) {
	systemPrompt := g.getSystemPrompt("plan")
	userPrompt := g.getUserPrompt("plan")

	return systemPrompt, fmt.Sprintf(userPrompt, goal)
}

// getPromptsForQuery returns system and user prompts for agent queries
func (g *GeminiProvider) getPromptsForQuery(input types.AgentQueryInput) (string, string) {
	systemPrompt := g.getSystemPrompt("query")
	userPrompt := g.getUserPrompt("query")

	persona := input.Persona
	if persona == "" {
		persona = DefaultAgentPersona
	}

	return systemPrompt, fmt.Sprintf(userPrompt, persona, renderHistory(input.ChatHistory), input.Query)
}

// renderHistory flattens prior turns into a prompt block. History arrives
// with every request; nothing is kept between calls.
func renderHistory(history []types.ChatMessage) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}

	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Sender)
		b.WriteString(": ")
		b.WriteString(msg.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configSystemPrompts *config.SystemPrompts
	if configPrompts != nil {
		configSystemPrompts = &configPrompts.SystemPrompts
	} else {
		configSystemPrompts = &config.SystemPrompts{}
	}
	defaults := GetDefaultPromptConfig()

	switch promptType {
	case "review":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ReviewResume,
			configSystemPrompts.ReviewResume,
			defaults.SystemPrompts.ReviewResume,
		)
	case "chat":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.Chat,
			configSystemPrompts.Chat,
			defaults.SystemPrompts.Chat,
		)
	case "plan":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.AgentPlan,
			configSystemPrompts.AgentPlan,
			defaults.SystemPrompts.AgentPlan,
		)
	case "query":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.AgentQuery,
			configSystemPrompts.AgentQuery,
			defaults.SystemPrompts.AgentQuery,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configUserPrompts *config.UserPrompts
	if configPrompts != nil {
		configUserPrompts = &configPrompts.UserPrompts
	} else {
		configUserPrompts = &config.UserPrompts{}
	}
	defaults := GetDefaultPromptConfig()

	switch promptType {
	case "review":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ReviewResume,
			configUserPrompts.ReviewResume,
			defaults.UserPrompts.ReviewResume,
		)
	case "chat":
		return resolvePrompt(
			loadedPrompts.UserPrompts.Chat,
			configUserPrompts.Chat,
			defaults.UserPrompts.Chat,
		)
	case "plan":
		return resolvePrompt(
			loadedPrompts.UserPrompts.AgentPlan,
			configUserPrompts.AgentPlan,
			defaults.UserPrompts.AgentPlan,
		)
	case "query":
		return resolvePrompt(
			loadedPrompts.UserPrompts.AgentQuery,
			configUserPrompts.AgentQuery,
			defaults.UserPrompts.AgentQuery,
		)
	default:
		return ""
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// getPrompts returns the appropriate prompts for the operation, prioritizing loaded content over config
func (g *GeminiProvider) getPrompts(operationType string) (config.OperationLoadedPrompts, *config.PromptConfig) {
	loadedPrompts := config.GetPromptsForOperation(operationType)
	configPrompts := &g.config.CustomPrompts
	return loadedPrompts, configPrompts
}

// resolvePrompt selects the correct prompt string based on priority:
// file-loaded prompt, then config prompt, then hardcoded default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
