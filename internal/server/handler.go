package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"kareerbot/internal/observability"
	"kareerbot/internal/types"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// createReviewHandler wraps the review handler with observability
func (s *Server) createReviewHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("kareerbot.api")
		ctx, span := tracer.Start(ctx, "api.review")
		defer span.End()

		var req ReviewRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.ResumeText) == "" {
			err := fmt.Errorf("missing resume text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
			return
		}

		if s.MaxRequestSize > 0 && len(req.ResumeText) > int(s.MaxRequestSize) {
			err := fmt.Errorf("resume text too large: %d chars", len(req.ResumeText))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Resume text too large", fmt.Sprintf("resumeText exceeds size limit of %d characters", s.MaxRequestSize), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.String("operation", "review"),
		)

		s.reviewAndRespond(ctx, w, om, span, types.ReviewResumeInput{ResumeText: req.ResumeText})
	}
}

// reviewAndRespond runs the review operation and writes the outcome. Shared by
// the text endpoint and the upload endpoint, which joins here after extraction.
func (s *Server) reviewAndRespond(ctx context.Context, w http.ResponseWriter, om *observability.ObservabilityManager, span oteltrace.Span, input types.ReviewResumeInput) {
	reviewConfig := s.AppConfig.GetReviewConfig()
	aiService, err := s.newAIService(&reviewConfig, "review", s.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "service_creation"))
		writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
		return
	}

	metrics := om.GetMetrics()
	var result types.ReviewResumeOutput
	err = metrics.TrackAIOperationWithTokens(ctx, "review", func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := aiService.Provider.ReviewResume(ctx, input)
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, om)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "ai_processing"))
		metrics.RecordBusinessMetric(ctx, "resume_reviewed", false, om)
		if isMalformedReply(err) {
			metrics.RecordBusinessMetric(ctx, "feedback_parse_failure", false, om)
		}
		s.writeAIFailure(w, "review", err)
		return
	}

	metrics.RecordBusinessMetric(ctx, "resume_reviewed", true, om,
		attribute.Int("feedback.strengths", len(result.Feedback.Strengths)),
		attribute.Int("feedback.improvements", len(result.Feedback.Improvements)))

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("feedback.strengths", len(result.Feedback.Strengths)),
		attribute.Int("feedback.improvements", len(result.Feedback.Improvements)),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// createChatHandler wraps the chat handler with observability
func (s *Server) createChatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("kareerbot.api")
		ctx, span := tracer.Start(ctx, "api.chat")
		defer span.End()

		var req ChatRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			err := fmt.Errorf("missing message")
			span.RecordError(err)
			writeErrorResponse(w, "Missing message", "message field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.message_length", len(req.Message)),
			attribute.Int("request.history_turns", len(req.History)),
			attribute.String("operation", "chat"),
		)

		input := types.ChatInput{
			Message:    req.Message,
			ResumeText: req.ResumeText,
			History:    req.History,
		}

		chatConfig := s.AppConfig.GetChatConfig()
		aiService, err := s.newAIService(&chatConfig, "chat", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result types.ChatOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "chat", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.Chat(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "chat_reply", false, om)
			s.writeAIFailure(w, "chat", err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "chat_reply", true, om,
			attribute.Int("reply_length", len(result.Reply)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.reply_length", len(result.Reply)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createPlanHandler wraps the agent-plan handler with observability
func (s *Server) createPlanHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("kareerbot.api")
		ctx, span := tracer.Start(ctx, "api.plan")
		defer span.End()

		var req PlanRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Goal) == "" {
			err := fmt.Errorf("missing goal")
			span.RecordError(err)
			writeErrorResponse(w, "Missing goal", "goal field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.goal_length", len(req.Goal)),
			attribute.String("operation", "plan"),
		)

		input := types.PlanInput{Goal: req.Goal}

		planConfig := s.AppConfig.GetPlanConfig()
		aiService, err := s.newAIService(&planConfig, "plan", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result types.PlanOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "plan", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.GeneratePlan(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "plan_generated", false, om)
			s.writeAIFailure(w, "plan", err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "plan_generated", true, om,
			attribute.Int("plan_steps", len(result.Plan.Plan)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.plan_steps", len(result.Plan.Plan)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createQueryHandler wraps the agent-query handler with observability
func (s *Server) createQueryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("kareerbot.api")
		ctx, span := tracer.Start(ctx, "api.query")
		defer span.End()

		var req QueryRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Query) == "" {
			err := fmt.Errorf("missing query")
			span.RecordError(err)
			writeErrorResponse(w, "Missing query", "query field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.query_length", len(req.Query)),
			attribute.Int("request.history_turns", len(req.ChatHistory)),
			attribute.String("operation", "query"),
		)

		input := types.AgentQueryInput{
			Query:       req.Query,
			ChatHistory: req.ChatHistory,
			Persona:     req.Persona,
		}

		queryConfig := s.AppConfig.GetQueryConfig()
		aiService, err := s.newAIService(&queryConfig, "query", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		var result types.AgentQueryOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "query", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.AgentQuery(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "agent_query", false, om)
			s.writeAIFailure(w, "query", err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "agent_query", true, om,
			attribute.Int("reply_length", len(result.Reply)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.reply_length", len(result.Reply)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
