// Package ai provides the prompt-side utilities shared by every pipeline
// stage: response cleaning, schema validation and the retry executor.
package ai

import (
	"regexp"
	"strconv"
	"strings"
)

// ResponseCleaner absorbs the formatting variance of model output. Models are
// instructed to return bare JSON or a bare integer but reliably wrap it in
// prose or markdown anyway.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

var digitRun = regexp.MustCompile(`\d+`)

// StripCodeFence removes a leading markdown fence line (optionally tagged
// "json") and the trailing fence line. Input without a leading fence is
// returned unchanged, which makes the function idempotent.
func (rc *ResponseCleaner) StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	// Drop the opening fence line including any language tag.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first balanced JSON object or array embedded in the
// response, or the input unchanged when none is found. Brace counting ignores
// brackets inside string literals.
func (rc *ResponseCleaner) ExtractJSON(response string) string {
	start := strings.IndexAny(response, "{[")
	if start == -1 {
		return response
	}
	open := response[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return response
}

// CleanJSON strips fencing and extracts the embedded JSON payload.
func (rc *ResponseCleaner) CleanJSON(response string) string {
	return rc.ExtractJSON(rc.StripCodeFence(response))
}

// ExtractScore parses the first contiguous run of decimal digits anywhere in
// the response. It is total: no digits means 0, never an error.
func (rc *ResponseCleaner) ExtractScore(raw string) int {
	m := digitRun.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Digit run too long for an int; treat as unparsable.
		return 0
	}
	return n
}
