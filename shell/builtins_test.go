package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phildougherty/llmsh/errors"
)

// chdirShell builds a test shell and restores the process working directory
// afterwards, since cd moves it.
func chdirShell(t *testing.T) *testShell {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return newTestShell(t, "", nil)
}

func TestCd(t *testing.T) {
	ts := chdirShell(t)
	dir := t.TempDir()

	if err := ts.handleLine("cd " + dir + "\n"); err != nil {
		t.Fatalf("cd: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	if got := ts.sess.WorkingDir(); got != dir && got != resolved {
		t.Errorf("working dir = %q, want %q", got, dir)
	}
	if pwd, _ := ts.sess.Get("PWD"); pwd.Value != ts.sess.WorkingDir() {
		t.Errorf("PWD = %q not synced to %q", pwd.Value, ts.sess.WorkingDir())
	}
}

func TestCdMissingDirLeavesStateUnchanged(t *testing.T) {
	ts := chdirShell(t)
	before := ts.sess.WorkingDir()

	err := ts.handleLine("cd /no/such/directory/anywhere\n")
	if errors.KindOf(err) != errors.KindPathNotFound {
		t.Fatalf("kind = %v, want KindPathNotFound", errors.KindOf(err))
	}
	if ts.sess.WorkingDir() != before {
		t.Errorf("working dir changed to %q", ts.sess.WorkingDir())
	}
	if ts.sess.LastStatus() != 1 {
		t.Errorf("status = %d, want 1", ts.sess.LastStatus())
	}
}

func TestCdBareGoesHome(t *testing.T) {
	ts := chdirShell(t)
	home := t.TempDir()
	ts.cfg.Home = home

	if err := ts.handleLine("cd\n"); err != nil {
		t.Fatalf("cd: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(home)
	if got := ts.sess.WorkingDir(); got != home && got != resolved {
		t.Errorf("working dir = %q, want configured home %q", got, home)
	}
}

func TestExportAndUnset(t *testing.T) {
	ts := newTestShell(t, "", nil)

	if err := ts.handleLine("export LLMSH_TEST_VAR=hello\n"); err != nil {
		t.Fatalf("export: %v", err)
	}
	e, ok := ts.sess.Get("LLMSH_TEST_VAR")
	if !ok || e.Value != "hello" || !e.Exported {
		t.Fatalf("entry = %+v, %v", e, ok)
	}

	ts.out.Reset()
	if err := ts.handleLine("export\n"); err != nil {
		t.Fatalf("export list: %v", err)
	}
	if !strings.Contains(ts.out.String(), "LLMSH_TEST_VAR=hello") {
		t.Error("export list missing new entry")
	}

	if err := ts.handleLine("unset LLMSH_TEST_VAR\n"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if _, ok := ts.sess.Get("LLMSH_TEST_VAR"); ok {
		t.Error("entry survived unset")
	}
}

func TestExportExpandsVariables(t *testing.T) {
	ts := newTestShell(t, "", nil)
	ts.sess.Export("LLMSH_BASE", "/opt/tool")

	if err := ts.handleLine("export LLMSH_FULL=$LLMSH_BASE/bin\n"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if e, _ := ts.sess.Get("LLMSH_FULL"); e.Value != "/opt/tool/bin" {
		t.Errorf("value = %q, want expansion applied", e.Value)
	}
	ts.sess.Unset("LLMSH_BASE")
	ts.sess.Unset("LLMSH_FULL")
}

func TestAliasLifecycle(t *testing.T) {
	ts := newTestShell(t, "", nil)

	if err := ts.handleLine("alias gs='git status'\n"); err != nil {
		t.Fatalf("alias: %v", err)
	}
	if expansion, _ := ts.sess.Alias("gs"); expansion != "git status" {
		t.Errorf("expansion = %q", expansion)
	}

	ts.out.Reset()
	if err := ts.handleLine("alias gs\n"); err != nil {
		t.Fatalf("alias show: %v", err)
	}
	if !strings.Contains(ts.out.String(), "alias gs='git status'") {
		t.Errorf("show output = %q", ts.out.String())
	}

	if err := ts.handleLine("unalias gs\n"); err != nil {
		t.Fatalf("unalias: %v", err)
	}
	if ts.sess.IsAlias("gs") {
		t.Error("alias survived unalias")
	}
	if err := ts.handleLine("unalias gs\n"); err == nil {
		t.Error("unalias of unknown name succeeded")
	}
}

func TestDefaultAliasesSeeded(t *testing.T) {
	ts := newTestShell(t, "", nil)
	for _, name := range []string{"ll", "la", ".."} {
		if !ts.sess.IsAlias(name) {
			t.Errorf("default alias %q missing", name)
		}
	}
}

func TestHistoryBuiltin(t *testing.T) {
	ts := newTestShell(t, "", nil)
	_ = ts.handleLine("pwd\n")
	_ = ts.handleLine("export A=1\n")

	ts.out.Reset()
	if err := ts.handleLine("history\n"); err != nil {
		t.Fatalf("history: %v", err)
	}
	out := ts.out.String()
	if !strings.Contains(out, "pwd") || !strings.Contains(out, "export A=1") {
		t.Errorf("history output missing entries:\n%s", out)
	}

	ts.out.Reset()
	if err := ts.handleLine("history 1\n"); err != nil {
		t.Fatalf("history 1: %v", err)
	}
	if strings.Contains(ts.out.String(), "pwd\n") {
		t.Errorf("history 1 printed more than one entry:\n%s", ts.out.String())
	}
	ts.sess.Unset("A")
}

func TestTypeBuiltin(t *testing.T) {
	ts := newTestShell(t, "", nil)
	ts.sess.SetAlias("gs", "git status")

	ts.out.Reset()
	if err := ts.handleLine("type cd gs sh\n"); err != nil {
		t.Fatalf("type: %v", err)
	}
	out := ts.out.String()
	if !strings.Contains(out, "cd is a shell builtin") {
		t.Errorf("builtin line missing:\n%s", out)
	}
	if !strings.Contains(out, "gs is aliased to 'git status'") {
		t.Errorf("alias line missing:\n%s", out)
	}
	if !strings.Contains(out, "sh is /") {
		t.Errorf("path line missing:\n%s", out)
	}

	if err := ts.handleLine("type llmsh-definitely-missing\n"); err == nil {
		t.Error("unknown name reported as found")
	}
}

func TestExitDefaultsToLastStatus(t *testing.T) {
	ts := newTestShell(t, "", nil)
	ts.sess.SetLastStatus(7)

	if err := ts.handleLine("exit\n"); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if ts.exitCode != 7 {
		t.Errorf("exit code = %d, want last status 7", ts.exitCode)
	}
}
