// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// columnWidths caps each Header column in display cells.
var columnWidths = []int{12, 48, 16, 28, 36, 30}

const columnGap = "  "

// WriteTable writes a fixed-width table sized in display cells, so
// affiliations with wide characters stay aligned. Long cells are truncated.
func WriteTable(w io.Writer, records []types.PaperRecord) error {
	widths := fitWidths(records)

	if _, err := fmt.Fprintln(w, tableLine(Header, widths)); err != nil {
		return err
	}
	total := 0
	for _, n := range widths {
		total += n
	}
	total += len(columnGap) * (len(widths) - 1)
	fmt.Fprintln(w, strings.Repeat("-", total))

	for _, r := range records {
		if _, err := fmt.Fprintln(w, tableLine(Row(r), widths)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d papers\n", len(records))
	return err
}

// fitWidths shrinks each column to its widest cell when that is under the
// cap.
func fitWidths(records []types.PaperRecord) []int {
	widths := make([]int, len(Header))
	for i, h := range Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range records {
		for i, cell := range Row(r) {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], columnWidths[i])
	}
	return widths
}

func tableLine(cells []string, widths []int) string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		cell = runewidth.Truncate(cell, widths[i], "...")
		if i < len(cells)-1 {
			cell = runewidth.FillRight(cell, widths[i])
		}
		out[i] = cell
	}
	return strings.Join(out, columnGap)
}
