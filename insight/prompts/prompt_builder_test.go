package prompts

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	pb := NewPromptBuilder()
	metadata := `{"sales_data": ["product_id", "sales_amount"]}`
	prompt := pb.BuildAnalysisPrompt("top products by revenue", metadata)

	for _, want := range []string{
		"top products by revenue",
		metadata,
		"response_type",
		"single read-only SELECT",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("analysis prompt missing %q", want)
		}
	}

	// The question appears twice: once as context, once as the final task.
	if strings.Count(prompt, "top products by revenue") != 2 {
		t.Error("question should be repeated at the end of the prompt")
	}
}

func TestBuildErrorPrompt(t *testing.T) {
	pb := NewPromptBuilder()
	prompt := pb.BuildErrorPrompt("sales by moon phase", errors.New("no such column: moon_phase"))

	if !strings.Contains(prompt, "sales by moon phase") {
		t.Error("error prompt missing the question")
	}
	if !strings.Contains(prompt, "no such column: moon_phase") {
		t.Error("error prompt missing the underlying error")
	}
}
