package llm

import (
	"regexp"
	"strings"
)

var codeBlockRE = regexp.MustCompile("```(?:shell|bash|sh)?\\s*([^`]+)```")

// CleanCommand strips a model reply down to a runnable command line: the
// content of the first code fence when present, the first line with stray
// backticks removed otherwise.
func CleanCommand(output string) string {
	if m := codeBlockRE.FindStringSubmatch(output); m != nil {
		return strings.TrimSpace(m[1])
	}
	line := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		line = output[:idx]
	}
	return strings.Trim(strings.TrimSpace(line), "`")
}

// CleanLines applies CleanCommand per line and drops empties, for list-shaped
// replies.
func CleanLines(output string) []string {
	if m := codeBlockRE.FindStringSubmatch(output); m != nil {
		output = m[1]
	}
	var out []string
	for _, line := range strings.Split(output, "\n") {
		cleaned := strings.Trim(strings.TrimSpace(line), "`")
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
