package ports

import (
	"context"

	"liquigen/domain/form"
)

// SheetSourcePort reads a tabular source into raw rows. Failures to open or
// read the source are structural and abort the batch.
type SheetSourcePort interface {
	ReadWorkbook(ctx context.Context, path string) (*form.Workbook, error)
}
