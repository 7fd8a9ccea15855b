package experiment

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Render prints the table with one column per schema field. Blank cells
// are shown empty.
func Render(w io.Writer, t *Table) {
	out := tablewriter.NewWriter(w)
	header := make([]string, NumColumns)
	for i, c := range Columns() {
		header[i] = c.String()
	}
	out.SetHeader(header)
	out.SetAutoFormatHeaders(false)
	for _, r := range t.rows {
		line := make([]string, NumColumns)
		for i, c := range Columns() {
			if v := r.Get(c); v.Set {
				line[i] = strconv.FormatFloat(v.Value, 'g', -1, 64)
			}
		}
		out.Append(line)
	}
	out.Render()
}
