package nl2sql

import (
	"regexp"
	"strings"
)

// Sentinel is what the SQL model answers for questions outside the schema.
const Sentinel = "NON_LIE"

var (
	fencePattern        = regexp.MustCompile("```(?:sql)?")
	statementStartRegex = regexp.MustCompile(`(?i)\b(SELECT|WITH|INSERT|UPDATE|DELETE|CREATE)\b`)
)

// ExtractSQL pulls a bare statement out of a raw completion. Fence markers
// are removed everywhere, then anything before the first statement keyword
// is dropped. Text with no keyword, such as the sentinel, is returned
// fence-stripped and trimmed.
func ExtractSQL(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	loc := statementStartRegex.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[loc[0]:]
}

func IsSentinel(sqlText string) bool {
	return sqlText == Sentinel
}
