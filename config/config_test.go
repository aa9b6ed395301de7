package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// Values in the file override the defaults.
func TestLoadConfig(t *testing.T) {
	t.Setenv("PASSVAULT_DIR", "")
	t.Setenv("PASSVAULT_LOG_LEVEL", "")

	path := writeConfig(t, `{
		"dir": "/tmp/pv",
		"primary": "main.json",
		"backup": "/elsewhere/bak.json",
		"log_level": "debug",
		"generate_length": 20,
		"clipboard_clear": "5s",
		"kdf_time": 2
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pv", cfg.Dir)
	assert.Equal(t, filepath.Join("/tmp/pv", "main.json"), cfg.PrimaryPath())
	assert.Equal(t, "/elsewhere/bak.json", cfg.BackupPath())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.GenerateLength)
	assert.Equal(t, uint32(2), cfg.KDF().Time)
	assert.Equal(t, Default().KDFMemory, cfg.KDF().Memory)

	d, err := cfg.ClipboardTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

// A missing file yields defaults under the home directory.
func TestLoadConfigMissingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PASSVAULT_DIR", "")
	t.Setenv("PASSVAULT_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(home, "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName), cfg.Dir)
	assert.Equal(t, filepath.Join(home, DefaultDirName, "store.json"), cfg.PrimaryPath())
	assert.Equal(t, filepath.Join(home, DefaultDirName, "store-bak.json"), cfg.BackupPath())
	assert.Equal(t, 32, cfg.GenerateLength)
}

// Environment variables win over the file.
func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PASSVAULT_DIR", "/from/env")
	t.Setenv("PASSVAULT_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, `{"dir": "/from/file", "log_level": "debug"}`))
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Dir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

// Broken JSON and unknown keys fail.
func TestLoadConfigInvalidJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{ "invalid": json }`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"unknown_key": 1}`))
	assert.Error(t, err)
}

// Validate rejects unusable values.
func TestValidate(t *testing.T) {
	t.Setenv("PASSVAULT_DIR", "/tmp/pv")
	t.Setenv("PASSVAULT_LOG_LEVEL", "")

	for _, doc := range []string{
		`{"generate_length": 0}`,
		`{"clipboard_clear": "soon"}`,
		`{"clipboard_clear": "-1s"}`,
		`{"kdf_threads": 0}`,
		`{"kdf_memory": 4294967295}`,
		`{"generate_length": 5000}`,
		`{"log_level": "loud"}`,
		`{"primary": ""}`,
		`{"primary": "same.json", "backup": "same.json"}`,
	} {
		_, err := Load(writeConfig(t, doc))
		assert.Error(t, err, doc)
	}
}
