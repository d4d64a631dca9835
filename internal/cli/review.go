package cli

import (
	"context"
	"fmt"

	"kareerbot/internal/ai"
	"kareerbot/internal/common"
	"kareerbot/internal/types"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [resume-file]",
	Short: "Review a resume and print structured feedback",
	Long: `Review a resume using AI and print three strengths and three areas
for improvement. The command takes one argument: the path to the resume file.
Plain text, PDF and DOCX files are supported; binary documents are converted
to text before review.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if reviewConfig.OutputFormat == "" {
			reviewConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(reviewConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runReview,
}

var reviewConfig common.CommandConfig

func init() {
	reviewCmd.Flags().StringVarP(&reviewConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	reviewCmd.Flags().StringVar(&reviewConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = reviewCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for review operation
	reviewAIConfig := cfg.GetReviewConfig()
	aiService, err := ai.NewService(&reviewAIConfig, "review", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	createInput := func(contents []string) (types.ReviewResumeInput, error) {
		if len(contents) != 1 {
			return types.ReviewResumeInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.ReviewResumeInput{
			ResumeText: contents[0],
		}, nil
	}

	logDetails := func(input types.ReviewResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume review",
			"resume_chars", len(input.ResumeText),
			"output_format", cfg.OutputFormat)
	}

	// Create a wrapper function that uses our specific AI service
	reviewOperation := func(ctx context.Context, input types.ReviewResumeInput) (types.ReviewResumeOutput, *ai.TokenUsage, error) {
		return aiService.Provider.ReviewResume(ctx, input)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		reviewConfig,
		args,
		createInput,
		reviewOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to review resume: %w", err)
	}
	logger.Info("Resume review completed successfully")
	return nil
}
