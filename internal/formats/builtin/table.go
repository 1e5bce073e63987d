package builtin

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
)

// uploadRows appends the data rows to the destination table. The
// pipeline has already cleared the center's slice for this run, so rows
// from earlier files of the same type must survive. Header names are
// expected to be uppercased already. A request without a table id is a
// no-op.
func uploadRows(ctx context.Context, req format.ProcessRequest, header []string, records [][]string) (int, error) {
	if req.TableID == "" {
		return 0, nil
	}

	rows := make([]synapse.Row, 0, len(records))
	for _, record := range records {
		row := synapse.Row{
			format.RowIDColumn:  uuid.NewString(),
			format.CenterColumn: req.Center,
		}
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}

	if err := req.Store.UpsertRows(ctx, req.TableID, format.RowIDColumn, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// writeStaged writes the reformatted file as delimiter-separated text.
func writeStaged(path string, delimiter rune, header []string, records [][]string) error {
	var b strings.Builder
	b.WriteString(strings.Join(header, string(delimiter)))
	b.WriteString("\n")
	for _, record := range records {
		b.WriteString(strings.Join(record, string(delimiter)))
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func upperHeader(header []string) []string {
	out := make([]string, len(header))
	for i, column := range header {
		out[i] = strings.ToUpper(strings.TrimSpace(column))
	}
	return out
}
