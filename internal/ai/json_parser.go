package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Model output often wraps JSON in prose or code fences, or leaves trailing
// commas and comments behind.
var (
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)^\s*//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// maxParseInput bounds how much model output we try to parse.
const maxParseInput = 10 * 1024 * 1024

// ParseResult represents the result of a JSON parse operation.
type ParseResult[T any] struct {
	Success  bool
	Data     T
	Error    string
	Strategy string // which strategy succeeded
}

// Parse decodes T from model output, trying in order: the raw text, the text
// without code fences, the text with common syntax problems fixed, and the
// first balanced JSON object found in mixed content. context prefixes error
// messages.
func Parse[T any](text, context string) ParseResult[T] {
	if len(text) > maxParseInput {
		return parseError[T](context, fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), maxParseInput))
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseError[T](context, "empty input")
	}

	var lastErr error
	try := func(strategy, candidate string) (ParseResult[T], bool) {
		if candidate == "" {
			return ParseResult[T]{}, false
		}
		var data T
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			lastErr = err
			return ParseResult[T]{}, false
		}
		return ParseResult[T]{Success: true, Data: data, Strategy: strategy}, true
	}

	if r, ok := try("direct", trimmed); ok {
		return r
	}
	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if r, ok := try("fences", withoutFences); ok {
			return r
		}
	}
	cleaned := cleanupJSON(withoutFences)
	if r, ok := try("cleanup", cleaned); ok {
		return r
	}
	if r, ok := try("extract", cleanupJSON(extractObject(withoutFences))); ok {
		return r
	}

	msg := "all JSON parsing strategies failed"
	if lastErr != nil {
		msg = fmt.Sprintf("%s (last error: %v)", msg, lastErr)
	}
	return parseError[T](context, msg)
}

// removeCodeFences strips markdown code fences from text.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		if m := codeFenceAnyRegex.FindStringSubmatch(text); m != nil {
			cleaned = m[1]
		}
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.Trim(cleaned, "`")
	}
	return strings.TrimSpace(cleaned)
}

// cleanupJSON removes trailing commas and whole-line or block comments.
// Single quotes are left alone so apostrophes in strings survive.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	return strings.TrimSpace(cleaned)
}

// extractObject returns the first balanced {...} in text, honoring string
// literals and escapes, or "" when there is none.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return ""
}

func parseError[T any](context, message string) ParseResult[T] {
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{Error: message}
}
