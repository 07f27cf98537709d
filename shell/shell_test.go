package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/phildougherty/llmsh/config"
	"github.com/phildougherty/llmsh/errors"
	"github.com/phildougherty/llmsh/jobs"
	"github.com/phildougherty/llmsh/llm"
	"github.com/phildougherty/llmsh/safety"
	"github.com/phildougherty/llmsh/session"
)

type testShell struct {
	*Shell
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

// newTestShell builds a non-interactive shell whose confirmation answers are
// scripted through input and whose model is the given reply hook.
func newTestShell(t *testing.T, input string, reply func(context.Context, llm.Request) (string, error)) *testShell {
	t.Helper()

	cfg := &config.Config{
		TimeoutSeconds: 1,
		HistoryWindow:  5,
		HistorySize:    100,
		Safety: config.Safety{
			DangerPatterns: []string{`^rm(\s|$)`},
			ProtectedPaths: []string{"/etc/**"},
		},
	}
	sess, err := session.New(cfg.HistorySize)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	checker, err := safety.NewChecker(cfg.Safety)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	bridge := llm.NewBridge(&llm.Mock{Reply: reply}, cfg.Timeout(), cfg.HistoryWindow, zerolog.Nop())

	var out, errOut bytes.Buffer
	s := New(cfg, sess, jobs.NewManager(zerolog.Nop()), bridge, checker,
		zerolog.Nop(), strings.NewReader(input), &out, &errOut, false)
	return &testShell{Shell: s, out: &out, errOut: &errOut}
}

func translateTo(command string) func(context.Context, llm.Request) (string, error) {
	return func(ctx context.Context, req llm.Request) (string, error) {
		if req.Mode == llm.ModeExplain {
			return "Does a thing.", nil
		}
		return command, nil
	}
}

func lastEntry(t *testing.T, s *Shell) session.HistoryEntry {
	t.Helper()
	entries := s.sess.History().Entries()
	if len(entries) == 0 {
		t.Fatal("history empty")
	}
	return entries[len(entries)-1]
}

func TestTranslationConfirmedRuns(t *testing.T) {
	ts := newTestShell(t, "r\n", translateTo("pwd"))

	if err := ts.handleLine("show me the current directory\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}

	if !strings.Contains(ts.out.String(), ts.sess.WorkingDir()) {
		t.Errorf("accepted command did not run:\n%s", ts.out.String())
	}
	entry := lastEntry(t, ts.Shell)
	if entry.Resolved != "pwd" || entry.Rejected {
		t.Errorf("history entry = %+v, want resolved to pwd", entry)
	}
}

func TestTranslationRejectedRunsNothing(t *testing.T) {
	ts := newTestShell(t, "n\n", translateTo("pwd"))

	if err := ts.handleLine("show me the current directory\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}

	if !strings.Contains(ts.out.String(), "Command aborted.") {
		t.Errorf("no abort notice:\n%s", ts.out.String())
	}
	if strings.Contains(ts.out.String(), ts.sess.WorkingDir()+"\n") {
		t.Error("rejected command ran")
	}
	if len(ts.jobs.Snapshot()) != 0 {
		t.Error("rejected translation reached the job table")
	}
	entry := lastEntry(t, ts.Shell)
	if !entry.Rejected || entry.Resolved != "" {
		t.Errorf("history entry = %+v, want rejected", entry)
	}
}

func TestTranslationEditedReentersGate(t *testing.T) {
	ts := newTestShell(t, "e\npwd\nr\n", translateTo("definitely-not-this"))

	if err := ts.handleLine("show me the current directory\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}

	entry := lastEntry(t, ts.Shell)
	if entry.Resolved != "pwd" {
		t.Errorf("resolved = %q, want edited command", entry.Resolved)
	}
	if !strings.Contains(ts.out.String(), ts.sess.WorkingDir()) {
		t.Error("edited command did not run")
	}
}

func TestTranslationTimeoutSpawnsNothing(t *testing.T) {
	stall := func(ctx context.Context, req llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	ts := newTestShell(t, "", stall)
	ts.bridge = llm.NewBridge(&llm.Mock{Reply: stall}, 10*time.Millisecond, 5, zerolog.Nop())
	ts.workflow.bridge = ts.bridge

	err := ts.handleLine("delete everything please\n")
	if errors.KindOf(err) != errors.KindTranslationTimeout {
		t.Fatalf("kind = %v, want KindTranslationTimeout", errors.KindOf(err))
	}
	if len(ts.jobs.Snapshot()) != 0 {
		t.Error("timed-out translation reached the job table")
	}
	if entry := lastEntry(t, ts.Shell); entry.Resolved != "" {
		t.Errorf("resolved = %q, want none", entry.Resolved)
	}
}

func TestQuestionAnswered(t *testing.T) {
	ts := newTestShell(t, "", func(ctx context.Context, req llm.Request) (string, error) {
		if req.Mode != llm.ModeAnswer {
			t.Errorf("mode = %d, want ModeAnswer", req.Mode)
		}
		if req.Input != "what does chmod 755 mean" {
			t.Errorf("question = %q", req.Input)
		}
		return "It sets rwxr-xr-x permissions.", nil
	})

	if err := ts.handleLine("? what does chmod 755 mean\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !strings.Contains(ts.out.String(), "rwxr-xr-x") {
		t.Errorf("answer missing:\n%s", ts.out.String())
	}
}

func TestSuggestionPickIsGated(t *testing.T) {
	ts := newTestShell(t, "2\nr\n", func(ctx context.Context, req llm.Request) (string, error) {
		switch req.Mode {
		case llm.ModeSuggest:
			if req.Input != "git" {
				t.Errorf("prefix = %q, want git", req.Input)
			}
			return "git status\npwd\ngit log", nil
		case llm.ModeExplain:
			return "Prints the working directory.", nil
		default:
			t.Errorf("unexpected mode %d", req.Mode)
			return "", nil
		}
	})

	if err := ts.handleLine("git ??\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !strings.Contains(ts.out.String(), "1) ") || !strings.Contains(ts.out.String(), "3) ") {
		t.Errorf("suggestions not listed:\n%s", ts.out.String())
	}
	if entry := lastEntry(t, ts.Shell); entry.Resolved != "pwd" {
		t.Errorf("resolved = %q, want picked suggestion", entry.Resolved)
	}
	if !strings.Contains(ts.out.String(), ts.sess.WorkingDir()) {
		t.Error("picked suggestion did not run")
	}
}

func TestSuggestionSkipRunsNothing(t *testing.T) {
	ts := newTestShell(t, "\n", func(ctx context.Context, req llm.Request) (string, error) {
		return "ls -la\ngit status", nil
	})

	if err := ts.handleLine("git ??\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if len(ts.jobs.Snapshot()) != 0 {
		t.Error("skipped suggestion reached the job table")
	}
}

func TestDirectCommandSkipsBridge(t *testing.T) {
	ts := newTestShell(t, "", func(ctx context.Context, req llm.Request) (string, error) {
		t.Error("bridge called for a direct command")
		return "", nil
	})

	if err := ts.handleLine("pwd\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !strings.Contains(ts.out.String(), ts.sess.WorkingDir()) {
		t.Errorf("pwd output missing:\n%s", ts.out.String())
	}
}

func TestDangerousCandidateWarns(t *testing.T) {
	ts := newTestShell(t, "n\n", translateTo("rm -rf build"))

	if err := ts.handleLine("clean up the build directory\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !strings.Contains(ts.out.String(), "Warning:") {
		t.Errorf("no risk warning shown:\n%s", ts.out.String())
	}
}

func TestAliasExpansionBeforeParse(t *testing.T) {
	ts := newTestShell(t, "", nil)
	ts.sess.SetAlias("whereami", "pwd")

	if err := ts.handleLine("whereami\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !strings.Contains(ts.out.String(), ts.sess.WorkingDir()) {
		t.Errorf("alias did not expand to pwd:\n%s", ts.out.String())
	}
}

func TestParseErrorRecovers(t *testing.T) {
	ts := newTestShell(t, "", nil)

	err := ts.handleLine("ls | | wc\n")
	if errors.KindOf(err) != errors.KindParse {
		t.Fatalf("kind = %v, want KindParse", errors.KindOf(err))
	}
	if ts.quit {
		t.Error("parse error terminated the shell")
	}
	if ts.sess.LastStatus() != 2 {
		t.Errorf("status = %d, want 2", ts.sess.LastStatus())
	}
}

func TestExitSetsCode(t *testing.T) {
	ts := newTestShell(t, "", nil)

	if err := ts.handleLine("exit 3\n"); err != nil {
		t.Fatalf("handleLine: %v", err)
	}
	if !ts.quit || ts.exitCode != 3 {
		t.Errorf("quit=%v code=%d, want quit with 3", ts.quit, ts.exitCode)
	}
}
