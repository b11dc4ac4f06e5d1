package explore

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxKeyFindings is the number of clauses kept from a decision's thinking.
	MaxKeyFindings = 3

	minFindingWords = 3
	maxFindingLen   = 200
)

// Openers that mark a clause as narration about what the model will do next
// rather than something it learned.
var fillerPrefixes = []string{
	"let me",
	"let's",
	"i will",
	"i'll",
	"i should",
	"i need to",
	"i want to",
	"next,",
	"now,",
	"okay",
	"ok,",
	"hmm",
	"first,",
}

// KeyFindings extracts up to MaxKeyFindings meaningful clauses from thinking.
// Clauses end at sentence punctuation, semicolons or line breaks. Clauses with
// fewer than three words or that only narrate intent are skipped.
func KeyFindings(thinking string) []string {
	findings := []string{}
	for _, clause := range splitClauses(thinking) {
		if len(findings) == MaxKeyFindings {
			break
		}
		if !meaningful(clause) {
			continue
		}
		if len(clause) > maxFindingLen {
			clause = strings.TrimSpace(truncateUTF8(clause, maxFindingLen)) + "..."
		}
		findings = append(findings, clause)
	}
	return findings
}

// truncateUTF8 cuts s to at most maxLen bytes without splitting a rune.
func truncateUTF8(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func splitClauses(text string) []string {
	var clauses []string
	var sb strings.Builder
	runes := []rune(text)
	flush := func() {
		c := strings.TrimSpace(sb.String())
		c = strings.TrimLeft(c, "-*• ")
		c = strings.TrimSpace(c)
		if c != "" {
			clauses = append(clauses, c)
		}
		sb.Reset()
	}
	for i, r := range runes {
		switch r {
		case '\n', ';':
			flush()
			continue
		case '.', '!', '?':
			// A period inside a token (main.go, v1.2) does not end a clause.
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				sb.WriteRune(r)
				continue
			}
			flush()
			continue
		}
		sb.WriteRune(r)
	}
	flush()
	return clauses
}

func meaningful(clause string) bool {
	if len(strings.Fields(clause)) < minFindingWords {
		return false
	}
	lower := strings.ToLower(clause)
	for _, p := range fillerPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
