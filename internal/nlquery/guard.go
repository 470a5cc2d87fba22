package nlquery

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrForbiddenSQL is the typed rejection for statements that fail the
// read-only guard. It is returned before any execution happens.
type ErrForbiddenSQL struct {
	Reason string
}

func (e *ErrForbiddenSQL) Error() string {
	return fmt.Sprintf("refusing to execute SQL: %s", e.Reason)
}

var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE",
	"REPLACE", "ATTACH", "DETACH", "PRAGMA", "REINDEX", "VACUUM",
}

var forbiddenRegex = regexp.MustCompile(
	`(?i)\b(` + strings.Join(forbiddenKeywords, "|") + `)\b`)

var (
	lineCommentRegex  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Guard admits only read statements: after comment removal the text must
// begin with SELECT or WITH and must contain no word-boundaried write
// keyword in any casing. This is a hard safety boundary in front of
// model-generated SQL.
func Guard(query string) error {
	stripped := blockCommentRegex.ReplaceAllString(query, " ")
	stripped = lineCommentRegex.ReplaceAllString(stripped, " ")
	stripped = strings.TrimSpace(stripped)

	if stripped == "" {
		return &ErrForbiddenSQL{Reason: "empty statement"}
	}

	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return &ErrForbiddenSQL{Reason: "only SELECT and WITH statements are allowed"}
	}

	if m := forbiddenRegex.FindString(stripped); m != "" {
		return &ErrForbiddenSQL{Reason: fmt.Sprintf("statement contains forbidden keyword %s", strings.ToUpper(m))}
	}
	return nil
}
