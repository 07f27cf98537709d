// Package shell is the controlling loop: it reads input, classifies it,
// and dispatches to builtins, the job manager, or the model bridge. Commands
// produced by the model reach execution only through the confirmation gate.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/phildougherty/llmsh/config"
	"github.com/phildougherty/llmsh/errors"
	"github.com/phildougherty/llmsh/intent"
	"github.com/phildougherty/llmsh/jobs"
	"github.com/phildougherty/llmsh/llm"
	"github.com/phildougherty/llmsh/parser"
	"github.com/phildougherty/llmsh/safety"
	"github.com/phildougherty/llmsh/session"
)

type Shell struct {
	cfg      *config.Config
	sess     *session.Session
	jobs     *jobs.Manager
	bridge   *llm.Bridge
	classify *intent.Classifier
	workflow *workflow
	builtins map[string]builtin

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	log    zerolog.Logger

	interactive bool
	interrupt   chan os.Signal
	exitCode    int
	quit        bool
}

// New wires a shell over its collaborators. interactive controls the banner
// and prompt; pipe stdin in and it reads like a script.
func New(cfg *config.Config, sess *session.Session, jm *jobs.Manager, bridge *llm.Bridge,
	checker *safety.Checker, log zerolog.Logger, in io.Reader, out, errOut io.Writer,
	interactive bool) *Shell {

	s := &Shell{
		cfg:         cfg,
		sess:        sess,
		jobs:        jm,
		bridge:      bridge,
		in:          bufio.NewReader(in),
		out:         out,
		errOut:      errOut,
		log:         log,
		interactive: interactive,
		interrupt:   make(chan os.Signal, 1),
	}
	s.registerBuiltins()
	s.classify = intent.NewClassifier(s, cfg.KnownCommands)
	s.workflow = newWorkflow(bridge, checker, s.in, out)
	return s
}

// Run is the read-classify-dispatch loop. It returns the session exit
// status: the code from `exit`, or the last foreground pipeline's code.
func (s *Shell) Run() int {
	signal.Notify(s.interrupt, os.Interrupt)
	defer signal.Stop(s.interrupt)

	if s.interactive {
		fmt.Fprintln(s.out, banner())
	}

	for !s.quit {
		s.jobs.ReportFinished(s.out)
		if s.interactive {
			fmt.Fprint(s.out, s.prompt())
		}

		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		s.drainInterrupt()

		if err := s.handleLine(line); err != nil {
			s.printError(err)
		}
	}

	s.jobs.Shutdown()
	if s.quit {
		return s.exitCode
	}
	return s.sess.LastStatus()
}

func (s *Shell) prompt() string {
	wd := s.sess.WorkingDir()
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rest, ok := strings.CutPrefix(wd, home); ok {
			wd = "~" + rest
		}
	}
	return promptStyle.Render("llmsh:"+wd+"$") + " "
}

// handleLine processes one input line end to end. Every error kind recovers
// here; the loop never dies on bad input.
func (s *Shell) handleLine(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	seq := s.sess.History().Append(trimmed)

	in := s.classify.Classify(trimmed)
	s.log.Debug().Str("kind", in.Kind.String()).Str("input", trimmed).Msg("classified")

	switch in.Kind {
	case intent.Question:
		return s.answer(in.Text)
	case intent.SuggestionRequest:
		return s.suggest(seq, in.Text)
	case intent.NaturalLanguage:
		return s.translate(seq, in.Text)
	default:
		return s.runLine(in.Text)
	}
}

// runLine executes command input: alias expansion, parse, then builtin or
// spawn.
func (s *Shell) runLine(line string) error {
	expanded := s.sess.ExpandAliases(line)
	p, err := parser.Parse(expanded, s.sess.Lookup)
	if err != nil {
		s.sess.SetLastStatus(2)
		return err
	}
	return s.runPipeline(p, expanded)
}

func (s *Shell) runPipeline(p *parser.Pipeline, raw string) error {
	if p.Empty() {
		return nil
	}

	if !p.Background && len(p.Commands) == 1 {
		if fn, ok := s.builtins[p.Commands[0].Args[0]]; ok {
			return s.runBuiltin(fn, p.Commands[0].Args[1:])
		}
	}

	job, err := s.jobs.Launch(p, raw, jobs.LaunchOptions{
		Env: s.sess.Environ(),
		Dir: s.sess.WorkingDir(),
	})
	if err != nil {
		s.sess.SetLastStatus(127)
		if job == nil {
			return err
		}
		// Partial pipeline: report the failure but still drain the members
		// that did start.
		s.printError(err)
	}
	if job == nil {
		return nil
	}

	if p.Background {
		fmt.Fprintf(s.out, "[%d] %d\n", job.ID, job.Pgid)
		return nil
	}
	code := s.jobs.WaitForeground(job, s.out)
	s.sess.SetLastStatus(code)
	return nil
}

func (s *Shell) runBuiltin(fn builtin, args []string) error {
	err := fn(s, args)
	if err != nil {
		var exit exitRequest
		if errors.As(err, &exit) {
			s.quit = true
			s.exitCode = exit.code
			return nil
		}
		s.sess.SetLastStatus(1)
		return err
	}
	s.sess.SetLastStatus(0)
	return nil
}

func (s *Shell) answer(question string) error {
	if question == "" {
		return nil
	}
	ctx, cancel := s.bridgeContext()
	defer cancel()

	fmt.Fprintln(s.out, noteStyle.Render("Thinking..."))
	reply, err := s.bridge.Answer(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\n%s\n%s\n\n", headStyle.Render("Answer:"), reply)
	return nil
}

func (s *Shell) translate(seq int, input string) error {
	ctx, cancel := s.bridgeContext()
	defer cancel()

	fmt.Fprintf(s.out, "Processing as natural language: %s\n", noteStyle.Render(input))
	candidate, err := s.bridge.Translate(ctx, input,
		s.sess.WorkingDir(), s.sess.History().Recent(s.cfg.HistoryWindow))
	if err != nil {
		return err
	}
	return s.confirmAndRun(ctx, seq, candidate)
}

func (s *Shell) suggest(seq int, prefix string) error {
	ctx, cancel := s.bridgeContext()
	defer cancel()

	list, err := s.bridge.Suggest(ctx, prefix,
		s.sess.WorkingDir(), s.sess.History().Recent(s.cfg.HistoryWindow))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No suggestions available.")
		return nil
	}

	fmt.Fprintln(s.out, "\nSuggested commands:")
	for i, cmd := range list {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, suggestStyle.Render(cmd))
	}
	fmt.Fprint(s.out, "Run which? [number, Enter skips] ")

	line, rerr := s.in.ReadString('\n')
	if rerr != nil && line == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(list) {
		return nil
	}
	// A picked suggestion is model output like any translation; it still
	// goes through the gate.
	return s.confirmAndRun(ctx, seq, list[n-1])
}

func (s *Shell) confirmAndRun(ctx context.Context, seq int, candidate string) error {
	final, accepted := s.workflow.Decide(ctx, candidate)
	if !accepted {
		s.sess.History().Reject(seq)
		fmt.Fprintln(s.out, "Command aborted.")
		return nil
	}
	s.sess.History().Resolve(seq, final)
	return s.runLine(final)
}

// bridgeContext builds a context canceled by SIGINT, so a slow model call
// can be abandoned from the keyboard.
func (s *Shell) bridgeContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		select {
		case <-s.interrupt:
			cancel()
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		once.Do(func() { close(done) })
		cancel()
	}
}

// drainInterrupt discards a SIGINT that arrived while the prompt was idle.
func (s *Shell) drainInterrupt() {
	select {
	case <-s.interrupt:
	default:
	}
}

func (s *Shell) printError(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(s.errOut, "Interrupted.")
		return
	}
	fmt.Fprintln(s.errOut, errStyle.Render(fmt.Sprintf("llmsh: %v", err)))
}
