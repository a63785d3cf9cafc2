package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// historyColumns are rendered in this order; other keys are ignored.
var historyColumns = []string{"run_id", "dataflow", "total", "valid", "invalid", "timestamp"}

// HistoryPage renders run summaries as a standalone HTML table.
func HistoryPage(rows []map[string]any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Run history</title>`+
			`<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}</style>`+
			`</head><body><h1>Run history</h1>`); err != nil {
			return err
		}
		if err := HistoryTable(rows).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// HistoryTable renders the table alone, newest run last.
func HistoryTable(rows []map[string]any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(rows) == 0 {
			_, err := io.WriteString(w, `<p>No runs recorded.</p>`)
			return err
		}

		if _, err := io.WriteString(w, "<table><thead><tr>"); err != nil {
			return err
		}
		for _, col := range historyColumns {
			if _, err := fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(col)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr></thead><tbody>"); err != nil {
			return err
		}

		for _, row := range rows {
			if _, err := io.WriteString(w, "<tr>"); err != nil {
				return err
			}
			for _, col := range historyColumns {
				cell := ""
				if v, ok := row[col]; ok && v != nil {
					cell = fmt.Sprint(v)
				}
				if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(cell)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</tr>"); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}
