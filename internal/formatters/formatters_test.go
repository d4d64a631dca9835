package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"kareerbot/internal/types"
)

func sampleReview() types.ReviewResumeOutput {
	return types.ReviewResumeOutput{
		Feedback: types.Feedback{
			Strengths:    []string{"clear impact statements", "strong technical depth", "good progression"},
			Improvements: []string{"quantify outcomes", "tighten the summary", "add relevant keywords"},
		},
	}
}

func samplePlan() types.PlanOutput {
	return types.PlanOutput{
		Plan: types.Plan{
			Goal: "become a staff engineer",
			Plan: []types.PlanStep{
				{Step: 1, Description: "Lead a cross-team project"},
				{Step: 2, Description: "Mentor two engineers"},
			},
		},
	}
}

func TestFormatReviewJSON(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReview(), "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded types.ReviewResumeOutput
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("json output should round-trip: %v", err)
	}
	if len(decoded.Feedback.Strengths) != 3 {
		t.Errorf("expected 3 strengths, got %d", len(decoded.Feedback.Strengths))
	}
}

func TestFormatReviewText(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReview(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"RESUME FEEDBACK", "Strengths:", "Areas for Improvement:", "quantify outcomes"} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatReviewMarkdown(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReview(), "markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"# Resume Feedback", "## Strengths", "## Areas for Improvement", "- clear impact statements"} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatPlanText(t *testing.T) {
	output, err := GlobalRegistry.Format(samplePlan(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"CAREER PLAN", "Goal: become a staff engineer", "1. Lead a cross-team project"} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatPlanMarkdown(t *testing.T) {
	output, err := GlobalRegistry.Format(samplePlan(), "markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"# Career Plan", "**Goal:** become a staff engineer", "## Steps"} {
		t.Run(want, func(t *testing.T) {
			if !strings.Contains(output, want) {
				t.Errorf("markdown output missing %q:\n%s", want, output)
			}
		})
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	if _, err := GlobalRegistry.Format(sampleReview(), "xml"); err == nil {
		t.Error("expected an error for unknown format")
	}
}

func TestFormatFallsBackToJSON(t *testing.T) {
	// Types without a dedicated formatter fall back to the generic JSON one.
	output, err := GlobalRegistry.Format(types.ChatOutput{Reply: "hello"}, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"reply"`) {
		t.Errorf("expected json fallback output, got:\n%s", output)
	}
}
