package ports

import (
	"context"
)

// PublisherPort hands generated changelog paths to whatever publishes them
type PublisherPort interface {
	Publish(ctx context.Context, paths []string) error
}
