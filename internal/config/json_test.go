package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_AllFields(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"database_dsn":         "cards.db",
		"signing_key":          "k",
		"pepper":               "p",
		"idle_ttl_seconds":     900,
		"absolute_ttl_seconds": 3600,
		"touch_fraction":       0.25,
		"hash_cost_parameters": map[string]any{
			"time_cost":   2,
			"memory_cost": 32768,
			"parallelism": 1,
		},
		"session_check_interval": "10s",
		"cleanup_interval":       60_000_000_000,
		"log_level":              "warn",
	})

	cfg := &Config{}
	parseJson(cfg, []string{"-config", path})

	want := &Config{
		DatabaseDSN:          "cards.db",
		SigningKey:           "k",
		Pepper:               "p",
		IdleTTL:              15 * time.Minute,
		AbsoluteTTL:          time.Hour,
		TouchFraction:        0.25,
		HashTimeCost:         2,
		HashMemoryCost:       32768,
		HashParallelism:      1,
		SessionCheckInterval: 10 * time.Second,
		CleanupInterval:      time.Minute,
		LogLevel:             "warn",
	}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseJson_PartialKeepsExisting(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"hash_cost_parameters": map[string]any{"time_cost": 5},
	})

	cfg := defaultConfig("/tmp")
	parseJson(cfg, []string{"-c", path})

	want := defaultConfig("/tmp")
	want.HashTimeCost = 5
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseJson_NoFlag(t *testing.T) {
	cfg := defaultConfig("/tmp")
	parseJson(cfg, []string{"-d", "x.db"})
	assert.Empty(t, cmp.Diff(defaultConfig("/tmp"), cfg))
}

func Test_parseJson_Panics(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		require.Panics(t, func() {
			parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		})
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", path}) })
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeTempJSON(t, "", "", map[string]any{"session_check_interval": "soon"})
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", path}) })
	})
}
