package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmap/internal/structures"
)

func loggerConfig(dir string) *structures.Config {
	return &structures.Config{
		Logger: structures.LoggerConfig{Level: "debug", Mode: 0644, Dir: dir},
	}
}

func TestNewLogProvider_SplitsChannels(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogProvider(loggerConfig(dir))
	require.NoError(t, err)

	logger.Infof(TypeIngest, "poll %d applied", 1)
	logger.Infof(TypeGet, "request served")
	logger.Close()

	appData, err := os.ReadFile(filepath.Join(dir, "festmap.log"))
	require.NoError(t, err)
	assert.Contains(t, string(appData), `"type":"ingest"`)
	assert.Contains(t, string(appData), "poll 1 applied")
	assert.NotContains(t, string(appData), "request served")

	accessData, err := os.ReadFile(filepath.Join(dir, "access.log"))
	require.NoError(t, err)
	assert.Contains(t, string(accessData), `"type":"get"`)
}

func TestNewLogProvider_InvalidLevel(t *testing.T) {
	conf := loggerConfig(t.TempDir())
	conf.Logger.Level = "verbose"

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestNewLogProvider_UnwritableDir(t *testing.T) {
	conf := loggerConfig(filepath.Join(t.TempDir(), "does", "not", "exist"))

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestGetLogTypeByRequestType(t *testing.T) {
	assert.Equal(t, TypePost, GetLogTypeByRequestType("POST"))
	assert.Equal(t, TypeGet, GetLogTypeByRequestType("GET"))
	assert.Equal(t, TypeGet, GetLogTypeByRequestType("DELETE"))
}

func TestTypeEnumString(t *testing.T) {
	assert.Equal(t, "app", TypeApp.String())
	assert.Equal(t, "ingest", TypeIngest.String())
	assert.Equal(t, "publish", TypePublish.String())
	assert.Equal(t, "get", TypeGet.String())
	assert.Equal(t, "post", TypePost.String())
}
