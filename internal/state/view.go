package state

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/etd-wiki/dungeon/internal/characters"
)

// Reconcile returns the selection to use after the record list changes:
// current when it is still present, else the first id, else "".
func Reconcile(records []characters.Record, current string) string {
	if len(records) == 0 {
		return ""
	}
	if characters.IndexOf(records, current) >= 0 {
		return current
	}
	return records[0].ID
}

// Filter returns the records whose name, type or description contain term,
// ignoring case. A blank term returns records unchanged.
func Filter(records []characters.Record, term string) []characters.Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(term)
	matches := make([]characters.Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(fold.String(rec.Name), needle) ||
			strings.Contains(fold.String(rec.Type), needle) ||
			strings.Contains(fold.String(rec.Description), needle) {
			matches = append(matches, rec)
		}
	}
	return matches
}
