package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/config"
	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/internal/history"
	"github.com/oakwood-commons/mwq/internal/schema"
	"github.com/oakwood-commons/mwq/internal/ui"
	"github.com/oakwood-commons/mwq/pkg/intellisense"
	"github.com/oakwood-commons/mwq/pkg/logger"
	"github.com/oakwood-commons/mwq/pkg/settings"
)

var (
	configFile  string
	debug       bool
	noColor     bool
	output      string
	objectType  string
	interactive bool
	executeFlag bool
)

var (
	rootCtx = context.Background()
	appCfg  = config.Default()
)

const cliExamples = `
  mwq validate 'tag:emotet AND NOT file.size:[0 TO 1024]'
  mwq suggest 'file.na'
  mwq suggest 'parent:(ta' --apply 0
  mwq add 'tag:"emotet"' 'NOT tag' emotet
  mwq search 'sha256:* AND tag:ransomware' --type file --filter '_.file_size > 1024'
  mwq -i 'tag:'
`

var rootCmd = &cobra.Command{
	Use:   "mwq [query]",
	Short: "mwq - malware repository query tool",
	Long: `mwq tokenizes, validates, completes and edits Lucene-like search queries
for a malware repository and runs them against its search endpoint.`,
	Example:       cliExamples,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

		path := resolveConfigPath(configFile)
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appCfg = cfg
		if cfg.Output.NoColor || os.Getenv("NO_COLOR") != "" {
			noColor = true
		}

		run := settings.NewCliParams()
		run.MinLogLevel = level
		run.ConfigFile = path
		run.ObjectType = cfg.Query.ObjectType
		if objectType != "" {
			run.ObjectType = objectType
		}
		run.OutputFormat = cfg.Output.Format
		if output != "" {
			run.OutputFormat = output
		}
		run.NoColor = noColor

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rootCtx = settings.IntoContext(logger.WithLogger(ctx, lgr), run)
		lgr.V(1).Info("configuration loaded", "config_file", path, "endpoint", cfg.Search.Endpoint)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !interactive {
			return cmd.Help()
		}
		initial := ""
		if len(args) == 1 {
			initial = args[0]
		}
		return runInteractive(cmd, initial)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print mwq version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

// newEngine builds a suggestion engine over the configured schema.
func newEngine() (*intellisense.Engine, error) {
	opts := []intellisense.Option{intellisense.WithLogger(*logger.FromContext(rootCtx))}
	if path := appCfg.Query.SchemaFile; path != "" {
		s, err := intellisense.LoadSchemaFile(path)
		if err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
		opts = append(opts, intellisense.WithSchema(s))
	}
	return intellisense.New(opts...), nil
}

// resolveObjectType returns --type, else the configured query.object_type.
func resolveObjectType(s *schema.Schema) (schema.ObjectType, error) {
	run := settings.FromContextOrDefault(rootCtx)
	return s.ParseObjectType(run.ObjectType)
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context) (*history.Store, error) {
	if !appCfg.History.Enabled {
		return nil, nil
	}
	path, err := appCfg.History.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path, appCfg.History.MaxEntries, history.WithLogger(*logger.FromContext(ctx)))
}

func runInteractive(cmd *cobra.Command, initial string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	typ, err := resolveObjectType(engine.Schema())
	if err != nil {
		return err
	}
	lgr := logger.FromContext(rootCtx)

	accept := func(q string) error {
		if executeFlag {
			return runSearch(cmd, q, typ)
		}
		fmt.Fprintln(cmd.OutOrStdout(), q)
		return nil
	}

	if !formatter.IsTerminal(os.Stdin) {
		repl := &intellisense.REPL{
			Engine:     engine,
			ObjectType: typ,
			Prompt:     fmt.Sprintf("%s [%s]❯ ", settings.CliBinaryName, typ),
			OnQuery:    accept,
		}
		return repl.Run(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	opts := ui.Options{
		Engine:     engine,
		ObjectType: typ,
		Initial:    initial,
		History:    recentQueries(rootCtx, *lgr),
		NoColor:    noColor,
	}
	// Keep stdout clean for the accepted query when it is redirected.
	if !formatter.IsTerminal(os.Stdout) {
		ttyIn, ttyOut, err := openTerminalIOFn()
		if err == nil {
			defer closeTerminalIO(ttyIn, ttyOut)
			opts.Input, opts.Output = ttyIn, ttyOut
		} else {
			opts.Output = os.Stderr
		}
	}

	q, err := ui.Run(rootCtx, opts)
	if errors.Is(err, ui.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	return accept(q)
}

func recentQueries(ctx context.Context, lgr logr.Logger) []string {
	store, err := openHistory(ctx)
	if err != nil {
		lgr.Info("history unavailable", "error", err.Error())
		return nil
	}
	if store == nil {
		return nil
	}
	defer store.Close()
	entries, err := store.List(ctx, 100)
	if err != nil {
		lgr.Info("history unavailable", "error", err.Error())
		return nil
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Query
	}
	return out
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config-file", "", "path to config file (default $XDG_CONFIG_HOME/mwq/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&output, "output", "o", "", "output format: auto, table, list, json, yaml, toml, tree, raw (default from config)")
	pf.StringVarP(&objectType, "type", "t", "", "object type to search: object, file, config, blob (default from config)")

	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the interactive query editor")
	rootCmd.Flags().BoolVar(&executeFlag, "execute", false, "run the accepted query against the search endpoint")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tokenizeCmd, validateCmd, annotateCmd, suggestCmd)
	rootCmd.AddCommand(addCmd, linkCmd, encodeCmd, decodeCmd, hashCmd)
	rootCmd.AddCommand(schemaCmd, searchCmd, historyCmd)

	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
