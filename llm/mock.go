package llm

import (
	"context"
	"fmt"
)

// Mock is a stand-in client for development and tests. With no Reply hook it
// returns canned responses per mode.
type Mock struct {
	// Reply, when set, handles every request.
	Reply func(ctx context.Context, req Request) (string, error)
}

func (m *Mock) Complete(ctx context.Context, req Request) (string, error) {
	if m.Reply != nil {
		return m.Reply(ctx, req)
	}
	switch req.Mode {
	case ModeTranslate:
		return fmt.Sprintf("echo %q", req.Input), nil
	case ModeExplain:
		return "Prints a line of text to standard output.", nil
	case ModeSuggest:
		return "ls -la\ngit status\ndf -h", nil
	default:
		return fmt.Sprintf("I am a mock assistant. You asked: %q", req.Input), nil
	}
}
