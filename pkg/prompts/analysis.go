// Package prompts builds LLM instruction strings for analysis code generation.
package prompts

import (
	"fmt"
	"strings"
)

// ChartArtifactName is the well-known filename the generated code must
// save its chart to, relative to the execution workspace.
const ChartArtifactName = "output.png"

const (
	// RotateLabelsThreshold is the category count above which x-axis
	// labels must be rotated.
	RotateLabelsThreshold = 10
	// TruncateThreshold is the category count above which charts must be
	// truncated to TopN entries with a note.
	TruncateThreshold = 20
	// TopN is the number of entries to keep when truncating.
	TopN = 20
)

// BuildAnalysisPrompt creates the instruction string for generating Python
// analysis code over a preloaded DataFrame. Pure string construction: the
// column list and the question are embedded verbatim, each exactly once.
func BuildAnalysisPrompt(columns []string, question string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a Python data analyst. A pandas DataFrame named `df` is already loaded with the user's actual data.\n\n")
	prompt.WriteString(fmt.Sprintf("Columns: %s\n\n", strings.Join(columns, ", ")))
	prompt.WriteString(fmt.Sprintf("Write Python code that answers: %s\n\n", question))

	prompt.WriteString("Hard requirements:\n")
	prompt.WriteString("1. Use the existing `df` variable directly. Do NOT create sample data or call pd.DataFrame() to fabricate data.\n")
	prompt.WriteString("2. ALWAYS print a clear, concise answer using print() before any plotting code.\n")
	prompt.WriteString(fmt.Sprintf("3. ALWAYS create exactly one chart and save it with plt.savefig('%s', dpi=300, bbox_inches='tight') followed by plt.show().\n", ChartArtifactName))
	prompt.WriteString("4. Start with import statements (pandas, matplotlib.pyplot, seaborn).\n")
	prompt.WriteString("5. Do not print DataFrames, lists, or tables unless explicitly asked.\n\n")

	prompt.WriteString("Presentation rules:\n")
	prompt.WriteString("- Use plt.style.use('seaborn-v0_8'), sns.set_palette(\"husl\"), and plt.grid(True, alpha=0.3).\n")
	prompt.WriteString("- Use a (16, 10) figure size when there are many categories, (12, 8) otherwise.\n")
	prompt.WriteString(fmt.Sprintf("- With more than %d categories, rotate x-axis labels by 90 degrees or switch to a horizontal bar chart.\n", RotateLabelsThreshold))
	prompt.WriteString(fmt.Sprintf("- With more than %d categories, show only the top %d entries and print a note that the rest are omitted.\n", TruncateThreshold, TopN))
	prompt.WriteString("- Finish layout with plt.tight_layout().\n")

	return prompt.String()
}
