// Package intent labels raw input lines before dispatch: explicit question
// and suggestion markers first, then a first-word check that separates
// recognizable commands from natural language.
package intent

import "strings"

type Kind int

const (
	DirectCommand Kind = iota
	Question
	SuggestionRequest
	NaturalLanguage
)

func (k Kind) String() string {
	switch k {
	case DirectCommand:
		return "command"
	case Question:
		return "question"
	case SuggestionRequest:
		return "suggestion"
	case NaturalLanguage:
		return "natural language"
	}
	return "unknown"
}

// Intent is a classified input line. Text carries the payload: the question
// body, the suggestion prefix, or the command/natural-language line itself.
type Intent struct {
	Kind Kind
	Text string
}

// Resolver answers whether a first word is a runnable command name. The
// shell backs it with the builtin registry, the alias table, and PATH.
type Resolver interface {
	IsBuiltin(name string) bool
	IsAlias(name string) bool
	LookPath(name string) (string, bool)
}

// Classifier is a pure function of its inputs; it holds no mutable state.
// The known-command list widens the command side of the boundary without a
// rebuild: names in it classify as DirectCommand even off PATH.
type Classifier struct {
	resolver Resolver
	known    map[string]struct{}
}

func NewClassifier(r Resolver, knownCommands []string) *Classifier {
	known := make(map[string]struct{}, len(knownCommands))
	for _, name := range knownCommands {
		known[name] = struct{}{}
	}
	return &Classifier{resolver: r, known: known}
}

// Classify labels one input line. Marker checks run first; an ambiguous
// first word falls through to NaturalLanguage rather than erroring, so a
// recognizable command is never sent to translation and unrecognized input
// is never refused.
func (c *Classifier) Classify(input string) Intent {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "?") && !strings.HasPrefix(trimmed, "??") {
		return Intent{Kind: Question, Text: strings.TrimSpace(trimmed[1:])}
	}
	if strings.HasSuffix(trimmed, "??") {
		prefix := strings.TrimSpace(strings.TrimSuffix(trimmed, "??"))
		return Intent{Kind: SuggestionRequest, Text: prefix}
	}

	first, _, _ := strings.Cut(trimmed, " ")
	if first != "" && c.isCommandWord(first) {
		return Intent{Kind: DirectCommand, Text: trimmed}
	}
	return Intent{Kind: NaturalLanguage, Text: trimmed}
}

func (c *Classifier) isCommandWord(word string) bool {
	if _, ok := c.known[word]; ok {
		return true
	}
	// Path-shaped words go to the spawn path and fail there if bogus.
	if strings.Contains(word, "/") || strings.HasPrefix(word, "~") {
		return true
	}
	if c.resolver == nil {
		return false
	}
	if c.resolver.IsBuiltin(word) || c.resolver.IsAlias(word) {
		return true
	}
	_, found := c.resolver.LookPath(word)
	return found
}
