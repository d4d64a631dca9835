package server

import (
	"time"

	"kareerbot/internal/ai"
	"kareerbot/internal/config"
	kareerbotErrors "kareerbot/internal/errors"
	"kareerbot/internal/types"
)

// ReviewRequest represents the request body for the review-resume endpoint
type ReviewRequest struct {
	ResumeText string `json:"resumeText"`
}

// ChatRequest represents the request body for the chat endpoint. History is
// carried by the client on every call; the server holds no conversation state.
type ChatRequest struct {
	Message    string              `json:"message"`
	ResumeText string              `json:"resumeText,omitempty"`
	History    []types.ChatMessage `json:"history,omitempty"`
}

// PlanRequest represents the request body for the agent-plan endpoint
type PlanRequest struct {
	Goal string `json:"goal"`
}

// QueryRequest represents the request body for the agent-query endpoint
type QueryRequest struct {
	Query       string              `json:"query"`
	ChatHistory []types.ChatMessage `json:"chat_history,omitempty"`
	Persona     string              `json:"persona,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Prompt hot reload
	PromptWatcher *config.PromptWatcher

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Upload handling
	Upload config.UploadConfig

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *kareerbotErrors.Logger

	// AI service construction, replaceable in tests
	newAIService func(cfg *config.OperationAIConfig, operationType string, logger *kareerbotErrors.Logger) (*ai.Service, error)
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	Upload         config.UploadConfig
	RateLimit      *config.RateLimitConfig
}

// operationConfig returns the resolved AI configuration for an operation
func (s *Server) operationConfig(operation string) config.OperationAIConfig {
	switch operation {
	case "chat":
		return s.AppConfig.GetChatConfig()
	case "plan":
		return s.AppConfig.GetPlanConfig()
	case "query":
		return s.AppConfig.GetQueryConfig()
	default:
		return s.AppConfig.GetReviewConfig()
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *kareerbotErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		Upload:         cfg.Upload,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		newAIService:   ai.NewService,
	}
}
