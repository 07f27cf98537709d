package parser

import (
	"strings"
)

type TokenKind int

const (
	TokWord TokenKind = iota
	TokPipe             // |
	TokRedirIn          // <
	TokRedirOut         // >
	TokRedirAppend      // >>
	TokRedirErr         // 2>
	TokRedirErrAppend   // 2>>
	TokBackground       // &
)

// Token is one lexed element of an input line. Pos is the byte offset of the
// token's first character in the original line.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Lookup resolves a variable name during expansion. Unset names must return
// the empty string.
type Lookup func(name string) string

// Lex splits a line into tokens, applying quote and escape rules and
// expanding $NAME / ${NAME} outside single quotes. Tilde at the start of a
// bare word expands to lookup("HOME").
func Lex(input string, lookup Lookup) ([]Token, error) {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}

	var tokens []Token
	var sb strings.Builder
	start := 0
	hasContent := false // true once the current token exists, even if empty ("")

	flush := func() {
		if hasContent || sb.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokWord, Text: sb.String(), Pos: start})
			sb.Reset()
			hasContent = false
		}
	}

	runes := []rune(input)
	i := 0
	for i < len(runes) {
		c := runes[i]

		switch {
		case c == ' ' || c == '\t':
			flush()
			i++

		case c == '\'':
			if !hasContent {
				start = i
			}
			end := indexRune(runes, i+1, '\'')
			if end < 0 {
				return nil, &ParseError{Pos: i, Msg: "unterminated single quote", UnexpectedEnd: true}
			}
			sb.WriteString(string(runes[i+1 : end]))
			hasContent = true
			i = end + 1

		case c == '"':
			if !hasContent {
				start = i
			}
			text, next, err := lexDoubleQuoted(runes, i, lookup)
			if err != nil {
				return nil, err
			}
			sb.WriteString(text)
			hasContent = true
			i = next

		case c == '\\':
			if i+1 >= len(runes) {
				return nil, &ParseError{Pos: i, Msg: "trailing backslash", UnexpectedEnd: true}
			}
			if !hasContent {
				start = i
			}
			sb.WriteRune(runes[i+1])
			hasContent = true
			i += 2

		case c == '$':
			if !hasContent {
				start = i
			}
			value, next := expandVar(runes, i, lookup)
			sb.WriteString(value)
			hasContent = true
			i = next

		case c == '~' && !hasContent && sb.Len() == 0:
			// Tilde expansion only at the start of a bare word, and only for
			// bare `~` or `~/...`.
			if i+1 >= len(runes) || runes[i+1] == '/' || runes[i+1] == ' ' || runes[i+1] == '\t' {
				start = i
				sb.WriteString(lookup("HOME"))
				hasContent = true
				i++
			} else {
				start = i
				sb.WriteRune(c)
				hasContent = true
				i++
			}

		case c == '|':
			flush()
			tokens = append(tokens, Token{Kind: TokPipe, Text: "|", Pos: i})
			i++

		case c == '&':
			flush()
			tokens = append(tokens, Token{Kind: TokBackground, Text: "&", Pos: i})
			i++

		case c == '<':
			flush()
			tokens = append(tokens, Token{Kind: TokRedirIn, Text: "<", Pos: i})
			i++

		case c == '>':
			// `2>` and `2>>` attach to an immediately preceding bare `2`.
			kind, text := TokRedirOut, ">"
			pos := i
			if sb.String() == "2" && hasContent {
				sb.Reset()
				hasContent = false
				pos = start
				kind, text = TokRedirErr, "2>"
			}
			flush()
			if i+1 < len(runes) && runes[i+1] == '>' {
				i++
				switch kind {
				case TokRedirErr:
					kind, text = TokRedirErrAppend, "2>>"
				default:
					kind, text = TokRedirAppend, ">>"
				}
			}
			tokens = append(tokens, Token{Kind: kind, Text: text, Pos: pos})
			i++

		default:
			if !hasContent {
				start = i
			}
			sb.WriteRune(c)
			hasContent = true
			i++
		}
	}
	flush()
	return tokens, nil
}

func lexDoubleQuoted(runes []rune, open int, lookup Lookup) (string, int, error) {
	var sb strings.Builder
	i := open + 1
	for i < len(runes) {
		c := runes[i]
		switch c {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(runes) {
				return "", 0, &ParseError{Pos: i, Msg: "trailing backslash", UnexpectedEnd: true}
			}
			next := runes[i+1]
			// Backslash is literal inside double quotes except before these.
			if next == '"' || next == '$' || next == '\\' || next == '`' {
				sb.WriteRune(next)
			} else {
				sb.WriteRune(c)
				sb.WriteRune(next)
			}
			i += 2
		case '$':
			value, next := expandVar(runes, i, lookup)
			sb.WriteString(value)
			i = next
		default:
			sb.WriteRune(c)
			i++
		}
	}
	return "", 0, &ParseError{Pos: open, Msg: "unterminated double quote", UnexpectedEnd: true}
}

// expandVar consumes a $NAME or ${NAME} reference starting at runes[i] and
// returns its value plus the index after the reference. A lone `$` stays
// literal.
func expandVar(runes []rune, i int, lookup Lookup) (string, int) {
	j := i + 1
	if j < len(runes) && runes[j] == '{' {
		end := indexRune(runes, j+1, '}')
		if end < 0 {
			// Unclosed brace: keep the text as written.
			return string(runes[i:]), len(runes)
		}
		return lookup(string(runes[j+1 : end])), end + 1
	}
	start := j
	for j < len(runes) && isNameRune(runes[j]) {
		j++
	}
	if j == start {
		return "$", j
	}
	return lookup(string(runes[start:j])), j
}

func isNameRune(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func indexRune(runes []rune, from int, want rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == want {
			return i
		}
	}
	return -1
}
