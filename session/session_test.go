package session

import (
	"strings"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLookupUnsetIsEmpty(t *testing.T) {
	s := newTestSession(t)
	if got := s.Lookup("LLMSH_DEFINITELY_UNSET_VAR"); got != "" {
		t.Errorf("Lookup unset = %q, want empty", got)
	}
}

func TestExportAndEnviron(t *testing.T) {
	s := newTestSession(t)
	s.Export("LLMSH_TEST_VAR", "abc")
	found := false
	for _, kv := range s.Environ() {
		if kv == "LLMSH_TEST_VAR=abc" {
			found = true
		}
	}
	if !found {
		t.Error("exported entry missing from Environ")
	}

	s.Unset("LLMSH_TEST_VAR")
	if _, ok := s.Get("LLMSH_TEST_VAR"); ok {
		t.Error("entry survived Unset")
	}
}

func TestAliasExpansion(t *testing.T) {
	s := newTestSession(t)
	s.SetAlias("gs", "git status")
	s.SetAlias("g", "gs")

	tests := []struct {
		in, want string
	}{
		{"gs", "git status"},
		{"gs --short", "git status --short"},
		{"g", "git status"},
		{"git log", "git log"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := s.ExpandAliases(tt.in); got != tt.want {
			t.Errorf("ExpandAliases(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAliasSelfReference(t *testing.T) {
	s := newTestSession(t)
	s.SetAlias("ls", "ls --color=auto")
	got := s.ExpandAliases("ls /tmp")
	if got != "ls --color=auto /tmp" {
		t.Errorf("self-referential alias expanded to %q", got)
	}
}

func TestAliasCycleBounded(t *testing.T) {
	s := newTestSession(t)
	s.SetAlias("a", "b")
	s.SetAlias("b", "a")
	got := s.ExpandAliases("a")
	// Must terminate; either endpoint of the cycle is acceptable.
	if got != "a" && got != "b" {
		t.Errorf("cyclic alias expanded to %q", got)
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	h := NewHistory(3)
	for _, cmd := range []string{"one", "two", "three", "four"} {
		h.Append(cmd)
	}
	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].Raw != "two" || entries[2].Raw != "four" {
		t.Errorf("entries = %+v", entries)
	}
	// Sequence numbers keep increasing past the cap.
	if entries[2].Seq != 4 {
		t.Errorf("seq = %d, want 4", entries[2].Seq)
	}
}

func TestHistoryResolveAndReject(t *testing.T) {
	h := NewHistory(10)
	seq1 := h.Append("find big files")
	seq2 := h.Append("delete everything")
	h.Resolve(seq1, "du -ah . | sort -rh | head")
	h.Reject(seq2)

	entries := h.Entries()
	if entries[0].Resolved == "" || entries[0].Rejected {
		t.Errorf("resolved entry wrong: %+v", entries[0])
	}
	if !entries[1].Rejected {
		t.Errorf("rejected entry wrong: %+v", entries[1])
	}

	recent := h.Recent(5)
	if len(recent) != 1 {
		t.Fatalf("Recent = %v, want one entry", recent)
	}
	if !strings.HasPrefix(recent[0], "du -ah") {
		t.Errorf("Recent reports raw text instead of resolved command: %q", recent[0])
	}
}

func TestHistoryRecentWindow(t *testing.T) {
	h := NewHistory(100)
	for _, cmd := range []string{"a", "b", "c", "d", "e"} {
		h.Append(cmd)
	}
	recent := h.Recent(2)
	if len(recent) != 2 || recent[0] != "d" || recent[1] != "e" {
		t.Errorf("Recent(2) = %v", recent)
	}
}
