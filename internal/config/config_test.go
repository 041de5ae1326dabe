package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("LOCATOR_RULES_FILE", "")
	t.Setenv("VALIDATE_TIMEOUT", "3s")
	t.Setenv("LOCATOR_TEST_ID_ATTRS", "data-qa, data-e2e")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 3*time.Second, cfg.Validation.Timeout)
	assert.Equal(t, []string{"data-qa", "data-e2e"}, cfg.Locator.TestIDAttributes)
	assert.False(t, cfg.Auth.Configured())
}

func TestApplyRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_id_attributes: [data-hook]\nscope: interactive\nmin_stability: High\n"), 0o644))
	t.Setenv("LOCATOR_RULES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"data-hook"}, cfg.Locator.TestIDAttributes)
	assert.Equal(t, "interactive", cfg.Locator.Scope)
	assert.Equal(t, "High", cfg.Locator.MinStability)

	t.Setenv("LOCATOR_RULES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.ErrorContains(t, err, "чтение файла правил")
}

func TestDatabaseURL(t *testing.T) {
	d := Database{Host: "db", Port: "5432", Name: "locators", User: "app", Password: "p@ss"}
	assert.True(t, d.Enabled())
	assert.Equal(t, "postgres://app:p%40ss@db:5432/locators?sslmode=disable", d.URL())
	assert.Contains(t, d.DSN(), "dbname=locators")
}
