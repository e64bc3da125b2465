package publisher

import (
	"context"

	"liquigen/internal/logging"
	"liquigen/ports"
)

// LogPublisher records generated paths in the log and publishes nothing.
// It stands in where no version-control automation is configured.
type LogPublisher struct{}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

var _ ports.PublisherPort = (*LogPublisher)(nil)

// Publish logs each path at info level
func (p *LogPublisher) Publish(ctx context.Context, paths []string) error {
	logger := logging.FromContext(ctx)
	for _, path := range paths {
		logger.Info().Str("path", path).Msg("changelog ready to publish")
	}
	logger.Info().Int("files", len(paths)).Msg("publish complete")
	return nil
}
