// Package llm is the bridge between the shell and a language model. The
// model is opaque: one Complete call in, one text reply out. Everything else
// (prompts, timeouts, cleanup of the reply) lives on this side.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects the system prompt for a request.
type Mode int

const (
	// ModeTranslate turns a natural-language request into one shell command.
	ModeTranslate Mode = iota
	// ModeExplain produces a one-sentence description of a shell command.
	ModeExplain
	// ModeSuggest produces a short list of related commands, one per line.
	ModeSuggest
	// ModeAnswer answers a free-form question.
	ModeAnswer
)

// Request is one bridge call. WorkingDir and History give the model session
// context where the mode wants it; Input is the user's text (for ModeSuggest,
// the command prefix, possibly empty).
type Request struct {
	Mode       Mode
	Input      string
	WorkingDir string
	History    []string
}

// Client is the interface for interacting with a Large Language Model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// promptFor builds the system prompt and user content for a request.
func promptFor(req Request) (system, user string) {
	switch req.Mode {
	case ModeTranslate:
		return "You are a shell command translator. Convert natural language to shell commands. " +
			"Respond ONLY with the exact command to execute, nothing else. No markdown, no explanations.", req.Input
	case ModeExplain:
		return "Explain what this shell command does in one brief sentence:", req.Input
	case ModeSuggest:
		if req.Input != "" {
			system = fmt.Sprintf("Suggest 3 useful variations or related commands for '%s'. "+
				"Provide only the commands, one per line, no explanations.", req.Input)
		} else {
			system = "Suggest 3 useful shell commands based on the current context. " +
				"Provide only the commands, one per line, no explanations."
		}
		return system, contextLine(req)
	default:
		return "You are a helpful command-line assistant. Provide clear, concise answers.", req.Input
	}
}

// contextLine summarizes the session for context-driven modes.
func contextLine(req Request) string {
	return fmt.Sprintf("Current directory: %s. Last commands: %s",
		req.WorkingDir, strings.Join(req.History, ", "))
}
