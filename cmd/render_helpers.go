package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/mwq/internal/formatter"
	"github.com/oakwood-commons/mwq/internal/query"
	"github.com/oakwood-commons/mwq/pkg/loader"
	"github.com/oakwood-commons/mwq/pkg/settings"
)

// errQueryReported is returned after a query error has been printed with its
// caret so main only sets the exit code.
var errQueryReported = errors.New("invalid query")

// result is one command's output in every shape the -o flag can ask for.
// Nil renderers fall back to generic renderings of doc.
type result struct {
	doc any
	// scalar results print as plain text unless a format is asked for.
	scalar  bool
	rootKey string
	table   func(opts formatter.ColumnarOptions) string
	tree    func() string
	list    func() string
	raw     func() string
}

// outputFormat resolves -o (or output.format) against the command's writer.
func outputFormat(w io.Writer) (formatter.Format, error) {
	run := settings.FromContextOrDefault(rootCtx)
	f, err := formatter.ParseFormat(run.OutputFormat)
	if err != nil {
		return "", err
	}
	return f.Resolve(isTerminalWriter(w)), nil
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && formatter.IsTerminal(f)
}

func tableWidth(w io.Writer) int {
	if isTerminalWriter(w) {
		return formatter.TerminalWidth()
	}
	// Redirected tables are not truncated.
	return 1 << 16
}

func render(cmd *cobra.Command, r result) error {
	w := cmd.OutOrStdout()
	format, err := outputFormat(w)
	if err != nil {
		return err
	}
	if r.scalar && settings.FromContextOrDefault(rootCtx).OutputFormat == string(formatter.FormatAuto) {
		format = formatter.FormatRaw
	}

	var out string
	switch {
	case format.IsStructured():
		out, err = formatter.Marshal(r.doc, format, r.rootKey)
		if err != nil {
			return err
		}
	case format == formatter.FormatTree:
		if r.tree != nil {
			out = r.tree()
			break
		}
		doc, err := generic(r.doc)
		if err != nil {
			return err
		}
		out = formatter.FormatAsTree(doc, formatter.TreeOptions{ArrayStyle: "index"})
	case format == formatter.FormatList:
		if r.list != nil {
			out = r.list()
			break
		}
		doc, err := generic(r.doc)
		if err != nil {
			return err
		}
		out = formatter.FormatAsList(doc, formatter.ListOptions{NoColor: noColor, ArrayStyle: "index"})
	case format == formatter.FormatRaw:
		if r.raw != nil {
			out = r.raw()
			break
		}
		out = formatter.StringifyPreserveNewlines(r.doc)
	default:
		if r.table == nil {
			return fmt.Errorf("output format %q is not supported by %s", format, cmd.Name())
		}
		out = r.table(formatter.ColumnarOptions{NoColor: noColor, TotalWidth: tableWidth(w)})
	}

	return writeOut(w, out)
}

// writeOut writes s terminated by a newline.
func writeOut(w io.Writer, s string) error {
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

// generic converts typed values to maps and slices for the tree and list renderers.
func generic(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return loader.LoadObject(v)
}

// reportQueryError prints err under q with a caret when it carries an offset.
func reportQueryError(cmd *cobra.Command, q string, err error) error {
	offset, ok := query.ErrorOffset(err)
	if !ok {
		return err
	}
	fmt.Fprint(cmd.ErrOrStderr(), formatter.ErrorWithCaret(q, offset, err.Error(), noColor))
	return errQueryReported
}
