package config

import (
	"path/filepath"
	"strings"

	"liquigen/internal/errors"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathConfig
	Ledger    LedgerConfig
	Server    ServerConfig
	Pipeline  PipelineConfig
	Changelog ChangelogConfig
	Logging   LoggingConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string `env:"OUTPUT_DIR" envDefault:"./output" validate:"required"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads" validate:"required"`
}

// LedgerConfig selects and locates the idempotency ledger
type LedgerConfig struct {
	Backend     string `env:"LEDGER_BACKEND" envDefault:"file" validate:"oneof=file postgres"`
	Path        string `env:"LEDGER_PATH"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Backend postgres"`
}

// ServerConfig holds upload server settings. With MaxConcurrentBatches above 1,
// overlapping uploads of the same rows can both pass the ledger lookup.
type ServerConfig struct {
	Port                 string `env:"PORT" envDefault:"3300" validate:"required"`
	GinMode              string `env:"GIN_MODE" envDefault:"release" validate:"oneof=debug release test"`
	MaxUploadMB          int64  `env:"MAX_UPLOAD_MB" envDefault:"50" validate:"gt=0"`
	MaxConcurrentBatches int64  `env:"MAX_CONCURRENT_BATCHES" envDefault:"1" validate:"gt=0"`
}

// PipelineConfig holds row-processing policies
type PipelineConfig struct {
	DuplicateAttributePolicy string   `env:"DUPLICATE_ATTRIBUTE_POLICY" envDefault:"reject-row" validate:"oneof=reject-row drop-attribute"`
	UnknownOperationPolicy   string   `env:"UNKNOWN_OPERATION_POLICY" envDefault:"reject" validate:"oneof=reject insert"`
	Sheets                   []string `env:"SHEETS" envSeparator:","`
}

// ChangelogConfig holds values stamped into every generated changelog
type ChangelogConfig struct {
	Author         string `env:"CHANGELOG_AUTHOR" envDefault:"$(collection.name)" validate:"required"`
	CollectionName string `env:"CHANGELOG_COLLECTION" envDefault:"$(collection.name)" validate:"required"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
}

// Load reads an optional .env file, then the environment, and validates the result
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return FromEnvironment()
}

// FromEnvironment parses the current environment without touching .env
func FromEnvironment() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeConfigInvalid, err), "failed to parse environment")
	}

	cfg.applyDerivedDefaults()

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

// applyDerivedDefaults fills values that depend on other settings
func (c *Config) applyDerivedDefaults() {
	if c.Ledger.Path == "" {
		c.Ledger.Path = DefaultLedgerPath(c.Paths.OutputDir)
	}
	sheets := c.Pipeline.Sheets[:0]
	for _, s := range c.Pipeline.Sheets {
		if s = strings.TrimSpace(s); s != "" {
			sheets = append(sheets, s)
		}
	}
	c.Pipeline.Sheets = sheets
}

// DefaultLedgerPath places the ledger file next to the output directory
func DefaultLedgerPath(outputDir string) string {
	cleaned := filepath.Clean(outputDir)
	return filepath.Join(filepath.Dir(cleaned), "processed-files.log")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			return errors.ConfigInvalid("invalid settings: " + strings.Join(fields, ", "))
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}
