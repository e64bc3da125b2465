package ports

import (
	"context"
)

// LedgerReaderPort answers whether an entity key was emitted by an earlier run
type LedgerReaderPort interface {
	// HasBeenProcessed reports whether key occurs anywhere in the ledger
	HasBeenProcessed(ctx context.Context, key string) (bool, error)
}

// LedgerWriterPort appends emitted keys. Entries are never rewritten or
// deduplicated; appending the same key twice is harmless.
type LedgerWriterPort interface {
	MarkProcessed(ctx context.Context, key string) error
}

// LedgerPort is the idempotency ledger: the sole exactly-once guarantee across runs
type LedgerPort interface {
	LedgerReaderPort
	LedgerWriterPort
	// Keys returns every entry in append order, repeats included
	Keys(ctx context.Context) ([]string, error)
}
