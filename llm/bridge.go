package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/phildougherty/llmsh/errors"
)

// Bridge wraps a Client with the policy the shell relies on: a bounded
// timeout per call, a capped history window, and reply cleanup. Errors carry
// KindTranslationTimeout when the deadline expired and
// KindTranslationUnavailable for any other transport failure; a canceled
// context passes through untouched so the caller can tell an interrupt apart
// from a failure.
type Bridge struct {
	client  Client
	timeout time.Duration
	window  int
	log     zerolog.Logger
}

func NewBridge(client Client, timeout time.Duration, window int, log zerolog.Logger) *Bridge {
	return &Bridge{client: client, timeout: timeout, window: window, log: log}
}

func (b *Bridge) complete(ctx context.Context, req Request) (string, error) {
	if b.window > 0 && len(req.History) > b.window {
		req.History = req.History[len(req.History)-b.window:]
	}

	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	out, err := b.client.Complete(cctx, req)
	b.log.Debug().Int("mode", int(req.Mode)).Dur("took", time.Since(start)).
		Err(err).Msg("bridge call")

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || cctx.Err() == context.DeadlineExceeded:
			return "", errors.WithKind(errors.KindTranslationTimeout,
				"no reply from the model within %s", b.timeout)
		case errors.Is(err, context.Canceled):
			return "", err
		default:
			return "", errors.WrapKind(err, errors.KindTranslationUnavailable, "model request failed")
		}
	}
	return strings.TrimSpace(out), nil
}

// Translate converts a natural-language request into one candidate command.
// An empty reply counts as unavailable; the caller never executes "".
func (b *Bridge) Translate(ctx context.Context, input, workingDir string, history []string) (string, error) {
	out, err := b.complete(ctx, Request{
		Mode:       ModeTranslate,
		Input:      input,
		WorkingDir: workingDir,
		History:    history,
	})
	if err != nil {
		return "", err
	}
	cmd := CleanCommand(out)
	if cmd == "" {
		return "", errors.WithKind(errors.KindTranslationUnavailable, "model returned no command")
	}
	return cmd, nil
}

// Explain describes a command in one sentence.
func (b *Bridge) Explain(ctx context.Context, command string) (string, error) {
	return b.complete(ctx, Request{Mode: ModeExplain, Input: command})
}

// Suggest returns related commands for a prefix, or context-based ones when
// the prefix is empty.
func (b *Bridge) Suggest(ctx context.Context, prefix, workingDir string, history []string) ([]string, error) {
	out, err := b.complete(ctx, Request{
		Mode:       ModeSuggest,
		Input:      prefix,
		WorkingDir: workingDir,
		History:    history,
	})
	if err != nil {
		return nil, err
	}
	return CleanLines(out), nil
}

// Answer responds to a free-form question.
func (b *Bridge) Answer(ctx context.Context, question string) (string, error) {
	return b.complete(ctx, Request{Mode: ModeAnswer, Input: question})
}
