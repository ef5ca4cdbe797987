package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/config"
	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/pkg/loader"
	"github.com/oakwood-commons/mwq/pkg/settings"
)

var configDefaults bool

// resolveConfigPath returns the explicit configFile if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/mwq/config.yaml) or ~/.config/mwq/config.yaml if present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// configCmd groups configuration-related subcommands similar to gh-style CLIs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mwq configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configDefaults {
			_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
			return err
		}
		return renderConfig(cmd, appCfg)
	},
}

// renderConfig prints cfg as YAML unless -o names another document format.
func renderConfig(cmd *cobra.Command, cfg config.Config) error {
	format := formatter.FormatYAML
	if output != "" {
		f, err := formatter.ParseFormat(output)
		if err != nil {
			return err
		}
		if f.IsStructured() {
			format = f
		}
	}
	if format == formatter.FormatYAML {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	// Durations marshal as nanoseconds through encoding/json; go through the
	// YAML form so every encoding shows "30s".
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	var doc any
	if err := loader.DecodeAs(loader.FormatYAML, string(data), &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	out, err := formatter.Marshal(doc, format, "config")
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func init() { //nolint:gochecknoinits
	configGetCmd.Flags().BoolVar(&configDefaults, "defaults", false, "print the embedded default configuration")
}
