package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:5000/api/search", cfg.Search.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "/search", cfg.Search.LinkPathname)
	assert.Equal(t, "object", cfg.Query.ObjectType)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 500, cfg.History.MaxEntries)
	assert.Equal(t, "auto", cfg.Output.Format)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte("search:\n  timeout: 5s\nquery:\n  object_type: file\n"), Default())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "file", cfg.Query.ObjectType)
	assert.Equal(t, "/search", cfg.Search.LinkPathname, "unset keys keep their defaults")
	assert.True(t, cfg.History.Enabled)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("search:\n  endpont: http://x\n"), Default())
	require.ErrorContains(t, err, "endpont")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    string
	}{
		{name: "bad endpoint", mutate: func(c *Config) { c.Search.Endpoint = "ftp://x" }, err: "search.endpoint"},
		{name: "zero timeout", mutate: func(c *Config) { c.Search.Timeout = 0 }, err: "search.timeout"},
		{name: "relative pathname", mutate: func(c *Config) { c.Search.LinkPathname = "search" }, err: "search.link_pathname"},
		{name: "empty object type", mutate: func(c *Config) { c.Query.ObjectType = " " }, err: "query.object_type"},
		{name: "negative history", mutate: func(c *Config) { c.History.MaxEntries = -1 }, err: "history.max_entries"},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Format = "xml" }, err: "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.err)
		})
	}

	cfg := Default()
	cfg.Search.Endpoint = ""
	assert.NoError(t, cfg.Validate(), "an empty endpoint is allowed until a search runs")
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n  no_color: true\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.NoColor)

	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o600))
	_, err = Load(path)
	require.ErrorContains(t, err, "output.format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 30s")

	cfg, err := Parse(data, Config{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestTokenAndHistoryPath(t *testing.T) {
	t.Setenv("MWQ_TEST_TOKEN", "  secret \n")
	assert.Equal(t, "secret", SearchConfig{TokenEnv: "MWQ_TEST_TOKEN"}.Token())
	assert.Empty(t, SearchConfig{}.Token())

	p, err := HistoryConfig{Path: "/tmp/h.db"}.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h.db", p)

	t.Setenv("XDG_DATA_HOME", "/data")
	p, err = HistoryConfig{}.HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "mwq", "history.db"), p)
}
