package config

import (
	"os"
	"path/filepath"
	"testing"

	"liquigen/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironmentDefaults(t *testing.T) {
	unsetenv(t, "OUTPUT_DIR", "LEDGER_PATH", "LEDGER_BACKEND", "SHEETS", "PORT",
		"DUPLICATE_ATTRIBUTE_POLICY", "UNKNOWN_OPERATION_POLICY", "CHANGELOG_COLLECTION", "MAX_CONCURRENT_BATCHES")

	cfg, err := FromEnvironment()
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.Paths.OutputDir)
	assert.Equal(t, "processed-files.log", cfg.Ledger.Path)
	assert.Equal(t, "file", cfg.Ledger.Backend)
	assert.Equal(t, "3300", cfg.Server.Port)
	assert.Equal(t, int64(1), cfg.Server.MaxConcurrentBatches)
	assert.Equal(t, "reject-row", cfg.Pipeline.DuplicateAttributePolicy)
	assert.Equal(t, "reject", cfg.Pipeline.UnknownOperationPolicy)
	assert.Equal(t, "$(collection.name)", cfg.Changelog.CollectionName)
	assert.Empty(t, cfg.Pipeline.Sheets)
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLedgerPathSitsNextToOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/data", "processed-files.log"), DefaultLedgerPath("/srv/data/output"))
	assert.Equal(t, filepath.Join("/srv/data", "processed-files.log"), DefaultLedgerPath("/srv/data/output/"))
}

func TestSheetsAreTrimmed(t *testing.T) {
	t.Setenv("SHEETS", "Inserts, Updates ,")

	cfg, err := FromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, []string{"Inserts", "Updates"}, cfg.Pipeline.Sheets)
}

func TestPostgresBackendRequiresDatabaseURL(t *testing.T) {
	unsetenv(t, "DATABASE_URL")
	t.Setenv("LEDGER_BACKEND", "postgres")

	_, err := FromEnvironment()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "DatabaseURL")
}

func TestInvalidPolicyRejected(t *testing.T) {
	t.Setenv("DUPLICATE_ATTRIBUTE_POLICY", "merge")

	_, err := FromEnvironment()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DuplicateAttributePolicy")
}
