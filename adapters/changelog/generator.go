package changelog

import (
	"context"
	"fmt"
	"path/filepath"

	"liquigen/domain/form"
	"liquigen/internal/errors"
	"liquigen/internal/logging"
	"liquigen/ports"

	"github.com/spf13/afero"
)

// Config controls where documents go and what every changeSet is stamped with
type Config struct {
	OutputDir      string
	Author         string
	CollectionName string
}

// DefaultConfig returns the stock output settings
func DefaultConfig() Config {
	return Config{
		OutputDir:      "./output",
		Author:         "$(collection.name)",
		CollectionName: "$(collection.name)",
	}
}

// Generator renders groups, writes them to the output directory and commits
// their keys to the ledger
type Generator struct {
	fs       afero.Fs
	ledger   ports.LedgerWriterPort
	renderer *Renderer
	config   Config
}

// NewGenerator creates a generator writing through fs
func NewGenerator(fs afero.Fs, ledger ports.LedgerWriterPort, config Config) (*Generator, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem dependency is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger dependency is required")
	}
	if config.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return &Generator{
		fs:       fs,
		ledger:   ledger,
		renderer: NewRenderer(config.Author, config.CollectionName),
		config:   config,
	}, nil
}

// Generate writes one document. Keys are committed only after the file is
// on disk; a failed write leaves the ledger untouched.
func (g *Generator) Generate(ctx context.Context, group *form.Group) (form.GeneratedDocument, error) {
	logger := logging.FromContext(ctx)

	rendered, err := g.renderer.Render(group)
	if err != nil {
		return form.GeneratedDocument{}, errors.Wrap(err, "failed to render changelog")
	}

	path := filepath.Join(g.config.OutputDir, rendered.FileName)
	if err := g.fs.MkdirAll(g.config.OutputDir, 0o755); err != nil {
		return form.GeneratedDocument{}, errors.WriteFailure(g.config.OutputDir, err)
	}
	if err := afero.WriteFile(g.fs, path, rendered.Content, 0o644); err != nil {
		return form.GeneratedDocument{}, errors.WriteFailure(path, err)
	}

	keys := group.Keys()
	for _, key := range keys {
		if err := g.ledger.MarkProcessed(ctx, key); err != nil {
			return form.GeneratedDocument{}, errors.LedgerFailure("append", key, err)
		}
	}

	logger.Info().
		Str("path", path).
		Str("changeset", rendered.ChangesetID).
		Str("shape", string(rendered.Shape)).
		Int("records", len(keys)).
		Msg("changelog written")

	return form.GeneratedDocument{
		Path:        path,
		FileName:    rendered.FileName,
		ChangesetID: rendered.ChangesetID,
		Operation:   group.Operation,
		Shape:       rendered.Shape,
		Keys:        keys,
	}, nil
}
