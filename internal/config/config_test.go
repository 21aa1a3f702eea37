package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, OnMissingWarn, cfg.General.OnMissingType)
	assert.Equal(t, "integer", cfg.MapReadType("mysql", "int"))
	assert.Equal(t, "integer", cfg.MapReadType("mysql", "INT(11) UNSIGNED"))
}

func TestMapReadType_TwoStepResolution(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	// No exact match for "int(11)"; falls back to the bare family "int".
	assert.Equal(t, "integer", cfg.MapReadType("mysql", "int(11)"))

	// Completely unknown type passes through verbatim.
	assert.Equal(t, "geometry", cfg.MapReadType("mysql", "geometry"))
}

func TestMapWriteType_Postgres(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "jsonb", cfg.MapWriteType("postgres", "json"))
	assert.Equal(t, "timestamp", cfg.MapWriteType("postgres", "datetime"))
}

func TestLoad_MissingPathIsConfigurationError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UserFileOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	content := `
[general]
on_missing_type = "error"

[mysql.types.on_read]
"int" = "bigint_override"

[mysql.rules.on_read]
unsigned_int_to_bigint = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OnMissingError, cfg.General.OnMissingType)
	assert.Equal(t, "bigint_override", cfg.MapReadType("mysql", "int"))
	assert.True(t, cfg.Rules.UnsignedIntToBigint)
}
