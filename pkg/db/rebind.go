package db

import (
	"strconv"
	"strings"
)

// Rebind rewrites "?" placeholders into the form the driver expects.
// Postgres uses numbered "$n" placeholders; other drivers are returned as is.
// Question marks inside single-quoted literals are left untouched.
func Rebind(driverName, query string) string {
	if driverName != TypePostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
