package cli

import (
	"fmt"

	"kareerbot/internal/ai"
	"kareerbot/internal/common"
	"kareerbot/internal/types"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [goal]",
	Short: "Generate a step-by-step career plan for a goal",
	Long: `Generate a numbered career plan for a stated goal using AI.
The command takes one argument: the goal as a quoted string, for example
"become a staff engineer within two years".`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if planConfig.OutputFormat == "" {
			planConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(planConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runPlan,
}

var planConfig common.CommandConfig

func init() {
	planCmd.Flags().StringVarP(&planConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	planCmd.Flags().StringVar(&planConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = planCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// runPlan takes the goal directly from the argument list, so it skips the
// file-reading half of the shared command runner.
func runPlan(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	planAIConfig := cfg.GetPlanConfig()
	aiService, err := ai.NewService(&planAIConfig, "plan", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	input := types.PlanInput{Goal: args[0]}

	logger.Info("Starting career plan generation",
		"goal_chars", len(input.Goal),
		"output_format", planConfig.OutputFormat)

	result, tokenUsage, err := aiService.Provider.GeneratePlan(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("failed to generate career plan: %w", err)
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(result, planConfig); err != nil {
		return err
	}

	logger.Info("Career plan generation completed successfully")
	return nil
}
