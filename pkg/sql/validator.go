// Package sql checks SQL text before it is embedded in engine statements.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyStatement indicates the text holds no statement.
	ErrEmptyStatement = errors.New("empty SQL statement")
	// ErrMultipleStatements indicates more than one statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// NormalizeStatement strips trailing semicolons, whitespace and comments from a single
// statement so it can be wrapped (e.g. in CREATE TABLE ... AS). Semicolons inside
// string literals, quoted identifiers and comments are ignored.
func NormalizeStatement(query string) (string, error) {
	end, err := scan(query)
	if err != nil {
		return "", err
	}
	normalized := strings.TrimSpace(query[:end])
	if normalized == "" {
		return "", ErrEmptyStatement
	}
	return normalized, nil
}

// scan returns the offset just past the last significant character of the first
// statement, or ErrMultipleStatements if another statement follows it.
func scan(query string) (int, error) {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	end := 0
	terminated := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		var next byte
		if i+1 < len(query) {
			next = query[i+1]
		}

		switch state {
		case stateNormal:
			switch {
			case c == '-' && next == '-':
				state = stateLineComment
				i++
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
			case c == ';':
				terminated = true
			case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			default:
				if terminated {
					return 0, ErrMultipleStatements
				}
				if c == '\'' {
					state = stateSingleQuote
				} else if c == '"' {
					state = stateDoubleQuote
				}
				end = i + 1
			}
		case stateSingleQuote:
			// '' is an escaped quote: leaving and re-entering the literal handles it
			if c == '\'' {
				state = stateNormal
				end = i + 1
			}
		case stateDoubleQuote:
			if c == '"' {
				state = stateNormal
				end = i + 1
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return end, nil
}
