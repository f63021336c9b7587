package prompts

import (
	"strings"
	"testing"
)

func TestBuildAnalysisPrompt_ContainsInputs(t *testing.T) {
	columns := []string{"Roll No", "SSC Percentage", "Branch"}
	question := "Which roll number has the highest SSC percentage?"

	prompt := BuildAnalysisPrompt(columns, question)

	for _, col := range columns {
		if !strings.Contains(prompt, col) {
			t.Errorf("prompt missing column %q", col)
		}
	}

	if got := strings.Count(prompt, question); got != 1 {
		t.Errorf("question appears %d times, want exactly 1", got)
	}
}

func TestBuildAnalysisPrompt_HardRequirements(t *testing.T) {
	prompt := BuildAnalysisPrompt([]string{"country", "emissions"}, "Plot emissions per country")

	for _, want := range []string{
		"print()",
		"plt.savefig('" + ChartArtifactName + "'",
		"Do NOT create sample data",
		"top 20",
		"rotate x-axis labels",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPrompt_QuestionVerbatim(t *testing.T) {
	// Formatting directives in the question must survive untouched.
	question := "show %s and {totals} for 100% of rows"
	prompt := BuildAnalysisPrompt([]string{"a"}, question)
	if !strings.Contains(prompt, question) {
		t.Errorf("question not embedded verbatim")
	}
}
