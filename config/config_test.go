package config

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadConfigFileMissingIsNotAnError(t *testing.T) {
    assert.NoError(t, LoadConfigFile(filepath.Join(t.TempDir(), "no-existe.yml")))
}

func TestLoadConfigFileExportsValues(t *testing.T) {
    for _, key := range []string{"DB_HOST", "DB_PORT", "OPENAI_MODEL", "OPENAI_TIMEOUT_SECONDS"} {
        t.Setenv(key, "")
        os.Unsetenv(key)
    }

    path := filepath.Join(t.TempDir(), "atlas_crimen.yml")
    content := `database:
  host: db.interno
  port: "5433"
openai:
  model: gpt-4o-mini
  timeout_seconds: 45
`
    require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

    require.NoError(t, LoadConfigFile(path))

    assert.Equal(t, "db.interno", os.Getenv("DB_HOST"))
    assert.Equal(t, "5433", os.Getenv("DB_PORT"))
    assert.Equal(t, "gpt-4o-mini", os.Getenv("OPENAI_MODEL"))
    assert.Equal(t, "45", os.Getenv("OPENAI_TIMEOUT_SECONDS"))
}

func TestLoadConfigFileEnvironmentWins(t *testing.T) {
    t.Setenv("DB_HOST", "desde-entorno")

    path := filepath.Join(t.TempDir(), "atlas_crimen.yml")
    require.NoError(t, os.WriteFile(path, []byte("database:\n  host: desde-archivo\n"), 0o644))

    require.NoError(t, LoadConfigFile(path))

    assert.Equal(t, "desde-entorno", os.Getenv("DB_HOST"))
}

func TestLoadConfigFileRejectsBadYAML(t *testing.T) {
    path := filepath.Join(t.TempDir(), "atlas_crimen.yml")
    require.NoError(t, os.WriteFile(path, []byte("database:\n\thost: tabulado\n"), 0o644))

    assert.Error(t, LoadConfigFile(path))
}

func TestGetEnvAsInt(t *testing.T) {
    t.Setenv("ATLAS_TEST_INT", "42")
    assert.Equal(t, 42, GetEnvAsInt("ATLAS_TEST_INT", 7))

    t.Setenv("ATLAS_TEST_INT", "no-numero")
    assert.Equal(t, 7, GetEnvAsInt("ATLAS_TEST_INT", 7))

    os.Unsetenv("ATLAS_TEST_INT")
    assert.Equal(t, 7, GetEnvAsInt("ATLAS_TEST_INT", 7))
}

func TestGetCacheKey(t *testing.T) {
    assert.Equal(t, "predicciones:68001:2025", GetCacheKey("predicciones", 68001, 2025))
    assert.Equal(t, "solo", GetCacheKey("solo"))
}
