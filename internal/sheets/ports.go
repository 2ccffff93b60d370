package sheets

import "context"

// Ports for outbound export adapters.
type (
	// RowAppender appends flat export rows to an external sheet.
	RowAppender interface {
		AppendRows(ctx context.Context, rows [][]string) (appended int, err error)
	}
)
