package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/pkg/searchquery"
)

var (
	jsonValue bool
	linkRange bool
	linkDate  bool
	linkBase  string
	dhashOnly bool
)

// parseValue keeps arg as a string unless --json asks for a JSON literal.
func parseValue(arg string) (any, error) {
	if !jsonValue {
		return arg, nil
	}
	// Numbers stay json.Number so they print as typed.
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("--json value %q: %w", arg, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("--json value %q: trailing data after the value", arg)
	}
	return v, nil
}

var addCmd = &cobra.Command{
	Use:   "add QUERY FIELD VALUE",
	Short: "Add, or toggle off, a field:value clause",
	Long: `Add combines field:value with QUERY using AND. A FIELD starting with "NOT "
toggles the negated clause: an existing positive or negated clause is removed,
otherwise the negated clause is appended. Adding a clause twice is a no-op.`,
	Example: `  mwq add 'tag:"emotet"' tag ransomware
  mwq add 'tag:"emotet"' 'NOT tag' emotet
  mwq add '' file.size 1024 --json`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseValue(args[2])
		if err != nil {
			return err
		}
		return render(cmd, scalarResult("query", searchquery.AddFieldToQuery(args[0], args[1], v)))
	},
}

var linkCmd = &cobra.Command{
	Use:   "link FIELD VALUE [TO]",
	Short: "Build a search link for field:value, a range or a day",
	Example: `  mwq link tag emotet
  mwq link upload_time 2020-01-01 2020-02-01 --range
  mwq link upload_time 2024-05-17 --date --base https://mwdb.example.org`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkRange && linkDate {
			return fmt.Errorf("--range and --date are mutually exclusive")
		}
		if linkRange != (len(args) == 3) {
			return fmt.Errorf("--range takes FIELD FROM TO, other links take FIELD VALUE")
		}
		opts := []searchquery.LinkOption{searchquery.WithPathname(appCfg.Search.LinkPathname)}
		field := args[0]

		var link string
		switch {
		case linkDate:
			day, err := time.Parse(time.DateOnly, args[1])
			if err != nil {
				return fmt.Errorf("invalid date %q: want YYYY-MM-DD", args[1])
			}
			link = searchquery.MakeSearchDateLink(field, day, opts...)
		case linkRange:
			from, err := parseValue(args[1])
			if err != nil {
				return err
			}
			to, err := parseValue(args[2])
			if err != nil {
				return err
			}
			link = searchquery.MakeSearchRangeLink(field, from, to, opts...)
		default:
			v, err := parseValue(args[1])
			if err != nil {
				return err
			}
			link = searchquery.MakeSearchLink(field, v, opts...)
		}
		if linkBase != "" {
			link = strings.TrimRight(linkBase, "/") + link
		}
		return render(cmd, scalarResult("link", link))
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode QUERY",
	Short: "Encode a query for the q= URL parameter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd, scalarResult("encoded", searchquery.EncodeSearchQuery(args[0])))
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode TEXT",
	Short: "Decode a q= URL parameter back into a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd, scalarResult("query", searchquery.DecodeSearchQuery(args[0])))
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash HEX",
	Short: "Turn a hex digest into a query on the matching hash field",
	Long: `Hash maps a digest to md5:, sha1:, sha256: or sha512: by its length. With
--dhash only SHA256-length digests are accepted and become dhash: queries.
Anything else is printed unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd, scalarResult("query", searchquery.QueryFromHash(args[0], dhashOnly)))
	},
}

func init() { //nolint:gochecknoinits
	addCmd.Flags().BoolVar(&jsonValue, "json", false, "parse VALUE as a JSON literal (numbers and booleans are not quoted)")
	linkCmd.Flags().BoolVar(&jsonValue, "json", false, "parse values as JSON literals")
	linkCmd.Flags().BoolVar(&linkRange, "range", false, "link to field:[FROM TO TO]")
	linkCmd.Flags().BoolVar(&linkDate, "date", false, "link to objects matching the day VALUE (YYYY-MM-DD)")
	linkCmd.Flags().StringVar(&linkBase, "base", "", "prefix the link with this base URL")
	hashCmd.Flags().BoolVar(&dhashOnly, "dhash", false, "only accept SHA256 digests and search dhash")
}
