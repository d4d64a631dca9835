package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"kareerbot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ReviewResumeOutput", &ReviewTextFormatter{})
	registry.RegisterFormatter("markdown", "ReviewResumeOutput", &ReviewMarkdownFormatter{})
	registry.RegisterFormatter("text", "PlanOutput", &PlanTextFormatter{})
	registry.RegisterFormatter("markdown", "PlanOutput", &PlanMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ReviewResumeOutput:
		return "ReviewResumeOutput"
	case types.PlanOutput:
		return "PlanOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReviewTextFormatter handles text formatting for resume feedback
type ReviewTextFormatter struct{}

func (rtf *ReviewTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ReviewResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected ReviewResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME FEEDBACK ===\n\n")

	output.WriteString("Strengths:\n")
	for i, strength := range result.Feedback.Strengths {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, strength))
	}
	output.WriteString("\n")

	output.WriteString("Areas for Improvement:\n")
	for i, improvement := range result.Feedback.Improvements {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, improvement))
	}

	return output.String(), nil
}

func (rtf *ReviewTextFormatter) SupportedType() string {
	return "ReviewResumeOutput"
}

// ReviewMarkdownFormatter handles markdown formatting for resume feedback
type ReviewMarkdownFormatter struct{}

func (rmf *ReviewMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ReviewResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected ReviewResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Feedback\n\n")

	output.WriteString("## Strengths\n\n")
	for _, strength := range result.Feedback.Strengths {
		output.WriteString(fmt.Sprintf("- %s\n", strength))
	}
	output.WriteString("\n")

	output.WriteString("## Areas for Improvement\n\n")
	for _, improvement := range result.Feedback.Improvements {
		output.WriteString(fmt.Sprintf("- %s\n", improvement))
	}

	return output.String(), nil
}

func (rmf *ReviewMarkdownFormatter) SupportedType() string {
	return "ReviewResumeOutput"
}

// PlanTextFormatter handles text formatting for career plans
type PlanTextFormatter struct{}

func (ptf *PlanTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PlanOutput)
	if !ok {
		return "", fmt.Errorf("expected PlanOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CAREER PLAN ===\n\n")
	output.WriteString("Goal: ")
	output.WriteString(result.Plan.Goal)
	output.WriteString("\n\n")

	if len(result.Plan.Plan) > 0 {
		output.WriteString("Steps:\n")
		for _, step := range result.Plan.Plan {
			output.WriteString(fmt.Sprintf("%d. %s\n", step.Step, step.Description))
		}
	} else {
		output.WriteString("No steps generated.\n")
	}

	return output.String(), nil
}

func (ptf *PlanTextFormatter) SupportedType() string {
	return "PlanOutput"
}

// PlanMarkdownFormatter handles markdown formatting for career plans
type PlanMarkdownFormatter struct{}

func (pmf *PlanMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.PlanOutput)
	if !ok {
		return "", fmt.Errorf("expected PlanOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Career Plan\n\n")
	output.WriteString("**Goal:** ")
	output.WriteString(result.Plan.Goal)
	output.WriteString("\n\n")

	if len(result.Plan.Plan) > 0 {
		output.WriteString("## Steps\n\n")
		for _, step := range result.Plan.Plan {
			output.WriteString(fmt.Sprintf("%d. %s\n", step.Step, step.Description))
		}
	} else {
		output.WriteString("## No Steps Generated\n\nTry restating the goal with more detail.\n")
	}

	return output.String(), nil
}

func (pmf *PlanMarkdownFormatter) SupportedType() string {
	return "PlanOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
