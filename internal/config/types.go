// Package config holds the mwq configuration file model.
package config

import (
	_ "embed"
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the merged configuration: embedded defaults overlaid with the
// user's file.
type Config struct {
	Search  SearchConfig  `yaml:"search" json:"search" toml:"search"`
	Query   QueryConfig   `yaml:"query" json:"query" toml:"query"`
	History HistoryConfig `yaml:"history" json:"history" toml:"history"`
	Output  OutputConfig  `yaml:"output" json:"output" toml:"output"`
}

// SearchConfig configures the remote search endpoint.
type SearchConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" toml:"endpoint"`
	// TokenEnv names the environment variable holding the API key.
	TokenEnv     string        `yaml:"token_env" json:"token_env" toml:"token_env"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
	LinkPathname string        `yaml:"link_pathname" json:"link_pathname" toml:"link_pathname"`
}

// QueryConfig configures query editing and suggestions.
type QueryConfig struct {
	ObjectType string `yaml:"object_type" json:"object_type" toml:"object_type"`
	SchemaFile string `yaml:"schema_file" json:"schema_file" toml:"schema_file"`
}

// HistoryConfig configures the executed-query history.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	Path       string `yaml:"path" json:"path" toml:"path"`
	MaxEntries int    `yaml:"max_entries" json:"max_entries" toml:"max_entries"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Format  string `yaml:"format" json:"format" toml:"format"`
	NoColor bool   `yaml:"no_color" json:"no_color" toml:"no_color"`
}

// OutputFormats lists the accepted output.format values.
var OutputFormats = []string{"auto", "table", "list", "json", "yaml", "toml", "tree", "raw"}

//go:embed default_config.yaml
var defaultConfigYAML []byte

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return bytes.Clone(defaultConfigYAML)
}

// Default returns the embedded defaults.
func Default() Config {
	cfg, err := Parse(defaultConfigYAML, Config{})
	if err != nil {
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
	return cfg
}

// Parse overlays the YAML document data on base. Keys missing from data keep
// their base value; unknown keys are rejected.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load merges the file at path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if cfg, err = Parse(data, cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Search.Endpoint != "" {
		u, err := url.Parse(c.Search.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("search.endpoint must be an http(s) URL, got %q", c.Search.Endpoint))
		}
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout must be positive, got %s", c.Search.Timeout))
	}
	if !strings.HasPrefix(c.Search.LinkPathname, "/") {
		errs = append(errs, fmt.Errorf("search.link_pathname must start with /, got %q", c.Search.LinkPathname))
	}
	if strings.TrimSpace(c.Query.ObjectType) == "" {
		errs = append(errs, errors.New("query.object_type must not be empty"))
	}
	if c.History.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("history.max_entries must not be negative, got %d", c.History.MaxEntries))
	}
	if !slices.Contains(OutputFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of %s, got %q", strings.Join(OutputFormats, ", "), c.Output.Format))
	}
	return errors.Join(errs...)
}

// Token returns the API key from the configured environment variable.
func (c SearchConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.TokenEnv))
}

// HistoryPath resolves history.path, defaulting to
// $XDG_DATA_HOME/mwq/history.db or ~/.local/share/mwq/history.db.
func (c HistoryConfig) HistoryPath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mwq", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve history path: %w", err)
	}
	return filepath.Join(home, ".local", "share", "mwq", "history.db"), nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
