package app

import (
	"strings"
	"unicode/utf8"
)

// maxTracedStatementBytes keeps the matches INSERT readable in span views
// while cutting off long IN lists.
const maxTracedStatementBytes = 384

// traceStatement flattens a SQL statement onto one line for the db.statement
// span attribute. Truncation never splits a multi-byte character.
func traceStatement(statement string) string {
	flat := strings.Join(strings.Fields(statement), " ")
	if len(flat) <= maxTracedStatementBytes {
		return flat
	}

	cut := maxTracedStatementBytes
	for cut > 0 && !utf8.RuneStart(flat[cut]) {
		cut--
	}
	return flat[:cut] + "..."
}
