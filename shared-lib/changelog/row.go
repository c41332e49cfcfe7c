package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/gitclock/agent/shared-lib/git"
	"github.com/gitclock/agent/shared-lib/pointers"
)

const (
	// UnknownCount is written in place of a line count that could not be
	// determined. It is never replaced by 0.
	UnknownCount = "?"

	// TimestampLayout formats the first column, in the clock's local zone.
	TimestampLayout = time.DateTime
)

// RenderRow renders one table row for record, stamped with at.
func RenderRow(at time.Time, record git.ChangeRecord) string {
	return fmt.Sprintf("| %s | %s | %s Additions & %s Deletions |",
		at.Format(TimestampLayout),
		escapeCell(record.Path),
		pointers.FormatOr(record.Additions, UnknownCount),
		pointers.FormatOr(record.Deletions, UnknownCount),
	)
}

// RenderRows renders records in order with a shared timestamp.
func RenderRows(at time.Time, records []git.ChangeRecord) []string {
	rows := make([]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, RenderRow(at, record))
	}
	return rows
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
