package ports

import (
	"context"

	"liquigen/domain/form"
)

// DocumentWriterPort renders one group into a changelog document, persists
// it, and commits the group's keys to the ledger once the write succeeded.
type DocumentWriterPort interface {
	Generate(ctx context.Context, group *form.Group) (form.GeneratedDocument, error)
}
