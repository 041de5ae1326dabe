package migrations

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/config"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/logger"
)

func TestRun_SkipsWithoutDatabase(t *testing.T) {
	assert.NoError(t, Run(&config.Cfg{}, logger.Nop()))
}

func TestMigrationFiles(t *testing.T) {
	src, err := (&file.File{}).Open("file://../../migrations")
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	for {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "нет up-миграции для версии %d", v)
		body, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body)

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "нет down-миграции для версии %d", v)
		down.Close()

		if v, err = src.Next(v); err != nil {
			break
		}
	}

	up, _, err := src.ReadUp(1)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	for _, table := range []string{"scan_runs", "locator_records", "llm_logs"} {
		assert.Contains(t, string(body), table)
	}
}
