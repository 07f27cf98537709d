package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/phildougherty/llmsh/llm"
	"github.com/phildougherty/llmsh/safety"
)

// workflow is the confirmation gate. Every model-produced command passes
// through Decide before it can reach the job manager; there is no other path.
type workflow struct {
	bridge       *llm.Bridge
	checker      *safety.Checker
	explanations map[string]string
	in           *bufio.Reader
	out          io.Writer
}

func newWorkflow(bridge *llm.Bridge, checker *safety.Checker, in *bufio.Reader, out io.Writer) *workflow {
	return &workflow{
		bridge:       bridge,
		checker:      checker,
		explanations: make(map[string]string),
		in:           in,
		out:          out,
	}
}

// Decide presents a candidate command and returns the command to run and
// whether the user accepted it. An edit replaces the candidate and re-enters
// the same gate; anything but an explicit run answer rejects.
func (w *workflow) Decide(ctx context.Context, candidate string) (string, bool) {
	for {
		fmt.Fprintf(w.out, "\nTranslated command: %s\n", cmdStyle.Render(candidate))
		if explanation := w.explain(ctx, candidate); explanation != "" {
			fmt.Fprintf(w.out, "Explanation: %s\n", noteStyle.Render(explanation))
		}
		if reasons := w.checker.Check(candidate); len(reasons) > 0 {
			fmt.Fprintln(w.out, warnStyle.Render("Warning: "+strings.Join(reasons, "; ")))
		}

		fmt.Fprint(w.out, "Run [r], edit [e], anything else aborts: ")
		line, err := w.in.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "y", "run":
			return candidate, true
		case "e", "edit":
			fmt.Fprint(w.out, "edit> ")
			edited, err := w.in.ReadString('\n')
			if err != nil && edited == "" {
				return "", false
			}
			if text := strings.TrimSpace(edited); text != "" {
				candidate = text
			}
		default:
			return "", false
		}
	}
}

// explain fetches a one-line description, best effort. Results are cached per
// command text so repeated candidates cost one bridge call.
func (w *workflow) explain(ctx context.Context, command string) string {
	if cached, ok := w.explanations[command]; ok {
		return cached
	}
	explanation, err := w.bridge.Explain(ctx, command)
	if err != nil {
		return ""
	}
	w.explanations[command] = explanation
	return explanation
}
