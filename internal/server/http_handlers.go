package server

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"kareerbot/internal/errors"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "kareerbot",
		"version": s.Version,
	}

	// Check AI model availability for all operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check prompt watcher status if hot reload is active
	if promptStatus := s.checkPromptWatcherHealth(); promptStatus != nil {
		response["prompt_reload"] = promptStatus
	}

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelsHealth checks the health of the AI models used by each operation
func (s *Server) checkAIModelsHealth() map[string]any {
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	for _, op := range []string{"review", "chat", "plan", "query"} {
		opConfig := s.operationConfig(op)
		if service, err := s.newAIService(&opConfig, op, s.Logger); err == nil {
			aiStatus[op] = service.GetModelInfo(ctx)
		} else {
			aiStatus[op] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", op, err),
			}
		}
	}

	return aiStatus
}

// checkPromptWatcherHealth reports prompt hot-reload status
func (s *Server) checkPromptWatcherHealth() map[string]any {
	if s.PromptWatcher == nil {
		return nil
	}

	return map[string]any{
		"running":       s.PromptWatcher.IsRunning(),
		"watched_files": s.PromptWatcher.WatchedFiles(),
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "kareerbot",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_size_bytes":  s.Upload.MaxFileSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if goerrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeAIFailure writes the generic provider-failure response. Model replies
// and provider error details are logged, never echoed to the client.
func (s *Server) writeAIFailure(w http.ResponseWriter, operation string, err error) {
	s.Logger.LogError(err, "AI operation failed", "operation", operation)
	writeErrorResponse(w, "Failed to get feedback from AI.", "", http.StatusInternalServerError)
}

// isMalformedReply reports whether the error is a rejected model reply
func isMalformedReply(err error) bool {
	var appErr *errors.AppError
	return goerrors.As(err, &appErr) && appErr.Code == errors.ErrCodeMalformedReply
}

// clientFacingStatus maps an application error to the HTTP status and message
// the client may see. Validation and unsupported-format failures are the
// caller's fault and keep their message; everything else collapses to the
// generic provider-failure body.
func clientFacingStatus(err error) (int, string, bool) {
	var appErr *errors.AppError
	if !goerrors.As(err, &appErr) {
		return http.StatusInternalServerError, "", false
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest, appErr.Message, true
	case errors.ErrorTypeExtraction:
		if appErr.Code == errors.ErrCodeUnsupportedFormat {
			return http.StatusBadRequest, appErr.Message, true
		}
		return http.StatusInternalServerError, "", false
	default:
		return http.StatusInternalServerError, "", false
	}
}
