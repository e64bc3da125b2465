package container

import (
	"context"
	"fmt"

	"liquigen/adapters/api"
	"liquigen/adapters/changelog"
	"liquigen/adapters/excel"
	"liquigen/adapters/filelog"
	"liquigen/adapters/postgres"
	"liquigen/adapters/publisher"
	"liquigen/internal/config"
	"liquigen/internal/dedupe"
	"liquigen/internal/errors"
	"liquigen/internal/logging"
	"liquigen/internal/migration"
	"liquigen/internal/normalize"
	"liquigen/internal/pipeline"
	"liquigen/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/afero"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// FS backs the ledger file, uploads and generated changelogs
	FS afero.Fs

	// Infrastructure
	DB *sqlx.DB

	Ledger     ports.LedgerPort
	Normalizer *normalize.Normalizer
	Generator  *changelog.Generator
	Publisher  ports.PublisherPort
	Pipeline   *pipeline.Pipeline
}

// New creates a container over the OS filesystem
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg, FS: afero.NewOsFs()}, nil
}

// InitLedger opens the configured ledger backend. The postgres backend
// connects and runs migrations first.
func (c *Container) InitLedger(ctx context.Context) error {
	switch c.Config.Ledger.Backend {
	case "postgres":
		if c.DB == nil {
			db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Ledger.DatabaseURL)
			if err != nil {
				return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
			}
			c.DB = db
		}
		if err := migration.NewRunner().Run(ctx, c.DB); err != nil {
			return errors.Wrap(err, "database migration failed")
		}
		c.Ledger = postgres.NewLedgerRepository(c.DB)
	default:
		ledger, err := filelog.NewLedger(c.FS, c.Config.Ledger.Path)
		if err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		c.Ledger = ledger
	}

	logging.FromContext(ctx).Debug().Str("backend", c.Config.Ledger.Backend).Msg("ledger ready")
	return nil
}

// InitPipeline builds the processing chain on top of the ledger
func (c *Container) InitPipeline(ctx context.Context) error {
	if c.Ledger == nil {
		if err := c.InitLedger(ctx); err != nil {
			return err
		}
	}

	var err error
	c.Normalizer, err = normalize.NewNormalizer(c.Ledger, normalize.Config{
		UnknownOperation: normalize.UnknownOperationPolicy(c.Config.Pipeline.UnknownOperationPolicy),
	})
	if err != nil {
		return fmt.Errorf("failed to create normalizer: %w", err)
	}

	c.Generator, err = changelog.NewGenerator(c.FS, c.Ledger, changelog.Config{
		OutputDir:      c.Config.Paths.OutputDir,
		Author:         c.Config.Changelog.Author,
		CollectionName: c.Config.Changelog.CollectionName,
	})
	if err != nil {
		return fmt.Errorf("failed to create changelog generator: %w", err)
	}

	if c.Publisher == nil {
		c.Publisher = publisher.NewLogPublisher()
	}

	source := excel.NewDataReader(excel.ExcelConfig{Sheets: c.Config.Pipeline.Sheets})
	c.Pipeline, err = pipeline.New(source, c.Normalizer, c.Generator, c.Publisher, pipeline.Config{
		DuplicatePolicy: dedupe.Policy(c.Config.Pipeline.DuplicateAttributePolicy),
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	return nil
}

// NewServer builds the upload server over the pipeline
func (c *Container) NewServer(ctx context.Context) (*api.Server, error) {
	if c.Pipeline == nil {
		if err := c.InitPipeline(ctx); err != nil {
			return nil, err
		}
	}
	return api.NewServer(c.Pipeline, c.FS, api.Config{
		UploadDir:            c.Config.Paths.UploadDir,
		MaxUploadBytes:       c.Config.Server.MaxUploadMB * 1024 * 1024,
		MaxConcurrentBatches: c.Config.Server.MaxConcurrentBatches,
	})
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown(context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
