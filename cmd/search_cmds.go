package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/cel"
	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/internal/history"
	"github.com/oakwood-commons/mwq/internal/limiter"
	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/internal/schema"
	"github.com/oakwood-commons/mwq/internal/search"
	"github.com/oakwood-commons/mwq/pkg/loader"
	"github.com/oakwood-commons/mwq/pkg/logger"
)

var (
	filterExpr   string
	resultsFile  string
	clearHistory bool
)

// now is swapped in tests.
var now = time.Now

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run a query against the search endpoint",
	Long: `Search validates QUERY, records it in the history and posts it to
search.endpoint. --filter keeps the results for which a CEL expression over
"_" holds; --limit, --offset and --tail page through what is left.
--results-file filters a saved response instead of calling the endpoint.`,
	Example: `  mwq search 'tag:emotet' --type file
  mwq search 'tag:emotet' --filter '_.file_size > 1024 && _.file_type.startsWith("PE32")' --limit 10
  mwq search 'tag:emotet' --results-file saved.json -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		typ, err := resolveObjectType(engine.Schema())
		if err != nil {
			return err
		}
		return runSearch(cmd, args[0], typ)
	},
}

func runSearch(cmd *cobra.Command, q string, typ schema.ObjectType) error {
	if _, err := query.ValidateComplete(q); err != nil {
		return reportQueryError(cmd, q, err)
	}
	lgr := logger.ForQuery(logger.FromContext(rootCtx), q, string(typ))
	// Compile before any request so a bad filter costs nothing.
	var (
		pred *cel.Predicate
		err  error
	)
	if filterExpr != "" {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return err
		}
		if pred, err = ev.Compile(filterExpr); err != nil {
			return fmt.Errorf("--filter: %w", err)
		}
	}

	var results []any
	if resultsFile != "" {
		if results, err = loader.LoadResultsFile(resultsFile); err != nil {
			return fmt.Errorf("load results: %w", err)
		}
	} else {
		if appCfg.Search.Endpoint == "" {
			return errors.New("search.endpoint is not configured")
		}
		recordHistory(q, typ)
		client, err := search.NewClient(appCfg.Search.Endpoint,
			search.WithToken(appCfg.Search.Token()),
			search.WithTimeout(appCfg.Search.Timeout),
			search.WithLogger(*lgr),
		)
		if err != nil {
			return err
		}
		if results, err = client.Search(rootCtx, q, string(typ)); err != nil {
			return err
		}
	}

	if pred != nil {
		total := len(results)
		if results, err = pred.Filter(results); err != nil {
			return fmt.Errorf("--filter: %w", err)
		}
		lgr.V(1).Info("filtered results", "kept", len(results), "total", total)
	}
	results = limiter.Apply(limitConfig(), results)

	return render(cmd, result{
		doc:     results,
		rootKey: "results",
		table: func(opts formatter.ColumnarOptions) string {
			return formatter.ResultTable(results).Render(opts)
		},
		list: func() string {
			return formatter.FormatAsList(results, formatter.ListOptions{NoColor: noColor, ArrayStyle: "index"})
		},
	})
}

// recordHistory stores q; failures are logged and never stop the search.
func recordHistory(q string, typ schema.ObjectType) {
	lgr := logger.FromContext(rootCtx)
	store, err := openHistory(rootCtx)
	if err != nil {
		lgr.Info("history unavailable", "error", err.Error())
		return
	}
	if store == nil {
		return
	}
	defer store.Close()
	if err := store.Add(rootCtx, q, string(typ)); err != nil {
		lgr.Info("could not record query", "error", err.Error())
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List executed queries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		ctx := rootCtx
		store, err := openHistory(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("history is disabled (history.enabled: false)")
		}
		defer store.Close()

		if clearHistory {
			n, err := store.Clear(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d queries from %s\n", n, store.Path())
			return nil
		}

		entries, err := store.List(ctx, 0)
		if err != nil {
			return err
		}
		entries = limiter.Apply(limitConfig(), entries)
		ts := now()
		return render(cmd, result{
			doc:     entries,
			rootKey: "history",
			table: func(opts formatter.ColumnarOptions) string {
				return formatter.HistoryTable(entries, ts).Render(opts)
			},
			raw: func() string { return queriesOf(entries) },
		})
	},
}

func queriesOf(entries []history.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Query + "\n")
	}
	return b.String()
}

func init() { //nolint:gochecknoinits
	searchCmd.Flags().StringVar(&filterExpr, "filter", "", "CEL expression over _ that results must satisfy")
	searchCmd.Flags().StringVar(&resultsFile, "results-file", "", "filter a saved search response (JSON, NDJSON, YAML or TOML) instead of calling the endpoint")
	addLimitFlags(searchCmd)
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "delete every recorded query")
	addLimitFlags(historyCmd)
}
