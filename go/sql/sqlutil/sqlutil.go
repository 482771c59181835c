// Package sqlutil has helpers for building SQL statements.
package sqlutil

import (
	"strconv"
	"strings"
)

// ValuesPlaceholders returns numbered placeholders grouped per row for an
// INSERT, e.g. ValuesPlaceholders(2, 3) is "($1,$2),($3,$4),($5,$6)".
// It panics if either argument is <= 0.
func ValuesPlaceholders(valuesPerRow, numRows int) string {
	if valuesPerRow <= 0 || numRows <= 0 {
		panic("Cannot make ValuesPlaceholder with 0 rows or 0 values per row")
	}
	var sb strings.Builder
	sb.Grow(5 * valuesPerRow * numRows)
	n := 1
	for row := 0; row < numRows; row++ {
		if row > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for i := 0; i < valuesPerRow; i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
