package gmail

import (
	"fmt"
	"strings"
	"time"
)

// BuildQuery assembles the provider search string: OR within the sender
// and keyword allow-lists, AND across them, optionally narrowed by an
// after: date.
func BuildQuery(senders, subjectKeywords []string, after time.Time) string {
	var parts []string

	if len(senders) > 0 {
		froms := make([]string, len(senders))
		for i, s := range senders {
			froms[i] = "from:" + s
		}
		parts = append(parts, "("+strings.Join(froms, " OR ")+")")
	}

	if len(subjectKeywords) > 0 {
		subjects := make([]string, len(subjectKeywords))
		for i, k := range subjectKeywords {
			subjects[i] = "subject:" + k
		}
		parts = append(parts, "("+strings.Join(subjects, " OR ")+")")
	}

	if !after.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%s", after.Format("2006/01/02")))
	}

	return strings.Join(parts, " ")
}
