// Package pycode normalizes LLM-generated Python analysis code before
// execution. All transforms are syntactic, best-effort, and idempotent;
// no attempt is made to validate the code semantically.
package pycode

import (
	"regexp"
	"strings"
)

// saveCall is the persistence call inserted when generated code displays a
// chart without saving it. The path is relative to the execution workspace.
const saveCall = "plt.savefig('output.png', dpi=300, bbox_inches='tight')"

// inplaceRewrite pairs a known in-place mutation idiom with its
// assignment-form replacement. Calling these with inplace=True on an
// intermediate expression is a validity bug in generated code.
type inplaceRewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

var inplaceRewrites = []inplaceRewrite{
	{
		pattern:     regexp.MustCompile(`(df(?:\[[^\]]+\])?)\.fillna\(([^,()]+),\s*inplace=True\)`),
		replacement: `$1 = $1.fillna($2)`,
	},
	{
		pattern:     regexp.MustCompile(`(df(?:\[[^\]]+\])?)\.replace\(([^()]+?),\s*inplace=True\)`),
		replacement: `$1 = $1.replace($2)`,
	},
	{
		pattern:     regexp.MustCompile(`(df(?:\[[^\]]+\])?)\.dropna\(\s*inplace=True\s*\)`),
		replacement: `$1 = $1.dropna()`,
	},
}

// Sanitize normalizes raw model output into executable code. It strips
// markdown fencing, rewrites known-bad in-place mutation idioms, and
// guarantees that any interactive chart display is paired with a file
// save. Running Sanitize on already-clean code returns it unchanged.
func Sanitize(raw string) string {
	code := StripFences(raw)
	code = rewriteInPlaceOps(code)
	code = ensureChartSave(code)
	return code
}

// StripFences removes markdown code fences and a leading language-tag
// line from model output. Unfenced input passes through untouched.
func StripFences(raw string) string {
	code := strings.TrimSpace(raw)

	if strings.HasPrefix(code, "```") {
		// Drop the opening fence line, including any language tag.
		if idx := strings.IndexByte(code, '\n'); idx >= 0 {
			code = code[idx+1:]
		} else {
			code = strings.TrimPrefix(code, "```")
		}
	}
	if strings.HasSuffix(code, "```") {
		code = strings.TrimSuffix(code, "```")
	}
	code = strings.TrimSpace(code)

	// Some models emit a bare "python" line before the code.
	if first, rest, ok := strings.Cut(code, "\n"); ok && strings.TrimSpace(first) == "python" {
		code = strings.TrimSpace(rest)
	}

	return code
}

func rewriteInPlaceOps(code string) string {
	for _, rw := range inplaceRewrites {
		code = rw.pattern.ReplaceAllString(code, rw.replacement)
	}
	return code
}

// ensureChartSave pairs display and persistence calls so that exactly one
// chart artifact is written even when the model forgot the save (or the
// show). Code that already has both, or neither, is left alone; the
// executor harness covers the neither case.
func ensureChartSave(code string) string {
	hasShow := strings.Contains(code, "plt.show()")
	hasSave := strings.Contains(code, "plt.savefig(")

	switch {
	case hasShow && !hasSave:
		return strings.ReplaceAll(code, "plt.show()", saveCall+"\nplt.show()")
	case hasSave && !hasShow:
		return code + "\nplt.show()"
	default:
		return code
	}
}
