package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/internal/limiter"
	"github.com/oakwood-commons/mwq/internal/query"
)

var (
	strictValidate bool
	applyIndex     int

	limitRecords  int
	offsetRecords int
	tailRecords   int
)

func addLimitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&limitRecords, "limit", 0, "show at most N records (0 = all)")
	cmd.Flags().IntVar(&offsetRecords, "offset", 0, "skip the first N records")
	cmd.Flags().IntVar(&tailRecords, "tail", 0, "show only the last N records (ignores --offset)")
}

func limitConfig() limiter.Config {
	return limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
}

func validateLimitingFlags() error {
	return limitConfig().Validate()
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize QUERY",
	Short: "Split a query into tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		q := args[0]
		tokens, err := query.TokenizeAll(q)
		if err != nil {
			return reportQueryError(cmd, q, err)
		}
		tokens = limiter.Apply(limitConfig(), tokens)
		return render(cmd, result{
			doc:     tokens,
			rootKey: "tokens",
			table: func(opts formatter.ColumnarOptions) string {
				return formatter.TokenTable(tokens).Render(opts)
			},
			raw: func() string {
				lines := make([]string, len(tokens))
				for i, t := range tokens {
					lines[i] = t.String()
				}
				return strings.Join(lines, "\n")
			},
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate QUERY",
	Short: "Check query syntax and show the grammar states it passes through",
	Long: `Validate replays the query through the grammar. Partial queries such as
"tag:" are accepted unless --strict is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := args[0]
		validate := query.Validate
		if strictValidate {
			validate = query.ValidateComplete
		}
		steps, err := validate(q)
		if err != nil {
			return reportQueryError(cmd, q, err)
		}
		return render(cmd, result{
			doc:     steps,
			rootKey: "steps",
			table: func(opts formatter.ColumnarOptions) string {
				return formatter.StepTable(steps).Render(opts)
			},
			raw: func() string { return "valid" },
		})
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate QUERY",
	Short: "Show the field path, subquery nesting and next token kinds at the end of a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := args[0]
		ann, err := query.Annotate(q)
		if err != nil {
			return reportQueryError(cmd, q, err)
		}
		return render(cmd, result{
			doc:     ann,
			rootKey: "annotation",
			table: func(opts formatter.ColumnarOptions) string {
				return formatter.RenderRows(formatter.AnnotationRows(ann), opts.NoColor, opts.TotalWidth)
			},
			tree: func() string { return formatter.AnnotationTree(q, ann) },
			raw:  func() string { return query.JoinFieldPath(ann.FieldPath) },
		})
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest QUERY",
	Short: "List completions for the end of a query",
	Long: `Suggest lists the fields that complete the field name at the end of QUERY.
With --apply N the Nth suggestion (from 0) is spliced into the query and the
result is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		q := args[0]
		engine, err := newEngine()
		if err != nil {
			return err
		}
		typ, err := resolveObjectType(engine.Schema())
		if err != nil {
			return err
		}
		suggestions, err := engine.Suggest(q, typ)
		if err != nil {
			return reportQueryError(cmd, q, err)
		}

		if cmd.Flags().Changed("apply") {
			if applyIndex < 0 || applyIndex >= len(suggestions) {
				return fmt.Errorf("--apply %d out of range: %d suggestions", applyIndex, len(suggestions))
			}
			return render(cmd, scalarResult("query", suggestions[applyIndex].Apply(q)))
		}

		suggestions = limiter.Apply(limitConfig(), suggestions)
		return render(cmd, result{
			doc:     suggestions,
			rootKey: "suggestions",
			table: func(opts formatter.ColumnarOptions) string {
				opts.RowNumberStyle = "index"
				return formatter.SuggestionTable(suggestions).Render(opts)
			},
			raw: func() string {
				lines := make([]string, len(suggestions))
				for i, s := range suggestions {
					lines[i] = s.Display
				}
				return strings.Join(lines, "\n")
			},
		})
	},
}

// scalarResult prints v as is, or as {key: v} for document formats.
func scalarResult(key, v string) result {
	plain := func() string { return v }
	return result{
		doc:    map[string]string{key: v},
		scalar: true,
		table: func(formatter.ColumnarOptions) string { return v },
		tree:  plain,
		list:  plain,
		raw:   plain,
	}
}

func init() { //nolint:gochecknoinits
	validateCmd.Flags().BoolVar(&strictValidate, "strict", false, "reject queries that are not complete")
	suggestCmd.Flags().IntVar(&applyIndex, "apply", 0, "print the query with suggestion N (from 0) applied")
	addLimitFlags(tokenizeCmd)
	addLimitFlags(suggestCmd)
}
