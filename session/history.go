package session

import "time"

// HistoryEntry records one input line. Resolved holds the command that
// actually ran when the line went through translation; Rejected marks
// translations the user declined.
type HistoryEntry struct {
	Seq      int
	Raw      string
	Resolved string
	Rejected bool
	When     time.Time
}

// History is the append-only, capped record of session input. Sequence
// numbers keep increasing even after old entries age out.
type History struct {
	entries []HistoryEntry
	max     int
	nextSeq int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = 1000
	}
	return &History{max: max, nextSeq: 1}
}

// Append records a raw input line and returns its sequence number.
func (h *History) Append(raw string) int {
	seq := h.nextSeq
	h.nextSeq++
	h.entries = append(h.entries, HistoryEntry{Seq: seq, Raw: raw, When: time.Now()})
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return seq
}

// Resolve attaches the executed command text to an entry, for lines that ran
// through translation.
func (h *History) Resolve(seq int, command string) {
	if e := h.find(seq); e != nil {
		e.Resolved = command
	}
}

// Reject marks an entry as a declined translation.
func (h *History) Reject(seq int) {
	if e := h.find(seq); e != nil {
		e.Rejected = true
	}
}

func (h *History) find(seq int) *HistoryEntry {
	// Recent entries live at the tail; search backwards.
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Seq == seq {
			return &h.entries[i]
		}
	}
	return nil
}

// Entries returns a copy of the retained history, oldest first.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Recent returns up to n raw command lines, oldest first, for bridge context.
// Rejected translations are excluded; resolved commands are reported in
// their executed form.
func (h *History) Recent(n int) []string {
	var out []string
	for _, e := range h.entries {
		if e.Rejected {
			continue
		}
		line := e.Raw
		if e.Resolved != "" {
			line = e.Resolved
		}
		out = append(out, line)
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func (h *History) Len() int { return len(h.entries) }
