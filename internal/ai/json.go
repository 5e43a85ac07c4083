package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON marks model output that could not be parsed even after
// repair.
var ErrInvalidJSON = errors.New("invalid json")

// ParseError describes why a model answer was rejected.
type ParseError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	msg := "invalid json: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrInvalidJSON and the underlying decode error.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidJSON}
	}
	return []error{ErrInvalidJSON, e.Err}
}

const snippetLen = 120

// DecodeJSON extracts the object between the first '{' and the last '}' of
// raw and decodes it into T. When the strict decode fails a single repair
// pass is applied (trailing commas, raw control characters inside strings,
// unescaped interior quotes) and decoding is retried. On failure the zero T
// and a *ParseError are returned.
func DecodeJSON[T any](raw string) (T, error) {
	var zero T
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return zero, &ParseError{Reason: "no json object found", Snippet: snippet(raw)}
	}
	candidate := raw[start : end+1]

	var out T
	err := json.Unmarshal([]byte(candidate), &out)
	if err == nil {
		return out, nil
	}

	repaired := repairJSON(candidate)
	var second T
	if rerr := json.Unmarshal([]byte(repaired), &second); rerr != nil {
		return zero, &ParseError{Reason: "repair failed", Snippet: snippet(candidate), Err: rerr}
	}
	return second, nil
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > snippetLen {
		return string(r[:snippetLen]) + "..."
	}
	return s
}

// repairJSON rewrites common model mistakes in one left-to-right pass.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				if closesString(s[i+1:]) {
					inString = false
					b.WriteByte(c)
				} else {
					b.WriteString(`\"`)
				}
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				fmt.Fprintf(&b, `\u%04x`, c)
			default:
				b.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			b.WriteByte(c)
		case ',':
			if next := nextNonSpace(s[i+1:]); next == '}' || next == ']' {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// closesString reports whether a quote followed by rest ends a JSON string.
func closesString(rest string) bool {
	switch nextNonSpace(rest) {
	case 0, ',', '}', ']', ':':
		return true
	}
	return false
}

func nextNonSpace(s string) byte {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}
