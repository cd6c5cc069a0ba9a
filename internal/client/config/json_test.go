package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_url": "http://example:9000",
		"backends": ["cpu"],
		"log_file": "client.log",
		"clock_interval": "2s",
		"face_detect_interval": 50000000
	}`), 0o600))

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "http://example:9000", cfg.ServerURL)
		assert.Equal(t, []string{"cpu"}, cfg.Backends)
		assert.Equal(t, "client.log", cfg.LogFile)
		assert.Equal(t, 2*time.Second, cfg.ClockInterval)
		assert.Equal(t, 50*time.Millisecond, cfg.FaceDetectInterval)
		assert.Equal(t, "moodkeeper.db", cfg.DataFile, "absent fields keep defaults")
	})

	t.Run("no config flag leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerURL: "defaults"}
		parseJson(cfg)

		assert.Equal(t, "defaults", cfg.ServerURL)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
