// Package parser turns one input line into an executable Pipeline. Alias
// expansion happens before the line reaches this package; variable expansion
// happens during lexing, outside single quotes.
package parser

import (
	"fmt"

	"github.com/phildougherty/llmsh/errors"
)

type RedirKind int

const (
	RedirIn RedirKind = iota // < file
	RedirOut                 // > file
	RedirAppend              // >> file
	RedirErr                 // 2> file
	RedirErrAppend           // 2>> file
)

// Redirection binds one redirection operator to its target file.
type Redirection struct {
	Kind   RedirKind
	Target string
}

// Command is one pipeline member: its argv plus redirections.
type Command struct {
	Args   []string
	Redirs []Redirection
}

// Pipeline is the unit of execution: commands joined by pipes, optionally
// backgrounded. An empty Commands slice is a no-op.
type Pipeline struct {
	Commands   []Command
	Background bool
}

// Empty reports whether the pipeline has nothing to run.
func (p *Pipeline) Empty() bool { return len(p.Commands) == 0 }

// ParseError reports malformed syntax with the byte position of the offending
// input. UnexpectedEnd marks errors where the line ended mid-construct
// (unbalanced quote, trailing operator).
type ParseError struct {
	Pos           int
	Msg           string
	UnexpectedEnd bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}

// Parse lexes and parses one line. Variable references are resolved through
// lookup; unset names expand to the empty string.
func Parse(input string, lookup Lookup) (*Pipeline, error) {
	tokens, err := Lex(input, lookup)
	if err != nil {
		return nil, errors.Classify(err, errors.KindParse)
	}
	p, perr := parseTokens(tokens, len(input))
	if perr != nil {
		return nil, errors.Classify(perr, errors.KindParse)
	}
	return p, nil
}

func parseTokens(tokens []Token, end int) (*Pipeline, *ParseError) {
	pipeline := &Pipeline{}
	if len(tokens) == 0 {
		return pipeline, nil
	}

	current := Command{}
	flushCommand := func(at int) *ParseError {
		if len(current.Args) == 0 {
			return &ParseError{Pos: at, Msg: "missing command"}
		}
		pipeline.Commands = append(pipeline.Commands, current)
		current = Command{}
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case TokWord:
			current.Args = append(current.Args, tok.Text)

		case TokPipe:
			if len(current.Args) == 0 {
				return nil, &ParseError{Pos: tok.Pos, Msg: "unexpected '|'"}
			}
			if i == len(tokens)-1 {
				return nil, &ParseError{Pos: tok.Pos, Msg: "pipeline ends with '|'", UnexpectedEnd: true}
			}
			if err := flushCommand(tok.Pos); err != nil {
				return nil, err
			}

		case TokRedirIn, TokRedirOut, TokRedirAppend, TokRedirErr, TokRedirErrAppend:
			if i == len(tokens)-1 {
				return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("'%s' requires a target", tok.Text), UnexpectedEnd: true}
			}
			target := tokens[i+1]
			if target.Kind != TokWord {
				return nil, &ParseError{Pos: target.Pos, Msg: fmt.Sprintf("unexpected '%s' after '%s'", target.Text, tok.Text)}
			}
			current.Redirs = append(current.Redirs, Redirection{Kind: redirKind(tok.Kind), Target: target.Text})
			i++

		case TokBackground:
			if i != len(tokens)-1 {
				return nil, &ParseError{Pos: tok.Pos, Msg: "'&' is only valid at the end of a line"}
			}
			pipeline.Background = true

		default:
			return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token '%s'", tok.Text)}
		}
	}

	if len(current.Args) > 0 || len(current.Redirs) > 0 {
		if err := flushCommand(end); err != nil {
			return nil, err
		}
	}
	if pipeline.Background && pipeline.Empty() {
		return nil, &ParseError{Pos: 0, Msg: "missing command before '&'"}
	}
	return pipeline, nil
}

func redirKind(t TokenKind) RedirKind {
	switch t {
	case TokRedirIn:
		return RedirIn
	case TokRedirAppend:
		return RedirAppend
	case TokRedirErr:
		return RedirErr
	case TokRedirErrAppend:
		return RedirErrAppend
	default:
		return RedirOut
	}
}
