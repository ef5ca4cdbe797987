package intellisense

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// REPL is a line-oriented query prompt for terminals without full-screen
// support. A line starting with "?" lists suggestions for the text after it;
// any other line is validated as a finished query.
type REPL struct {
	Engine     *Engine
	ObjectType ObjectType
	Prompt     string
	// OnQuery is called with each valid query. Returning an error prints it.
	OnQuery func(query string) error
}

// Run reads lines from in until EOF or "exit".
func (r *REPL) Run(in io.Reader, out io.Writer) error {
	if r.Engine == nil {
		r.Engine = New()
	}
	if r.ObjectType == "" {
		r.ObjectType = ObjectTypeObject
	}
	prompt := r.Prompt
	if prompt == "" {
		prompt = "❯ "
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimRight(scanner.Text(), "\r")

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "help":
			showHelp(out)
			continue
		case "fields":
			showFields(out, r.Engine)
			continue
		case "exit", "quit":
			fmt.Fprintln(out)
			return nil
		}

		if text, ok := strings.CutPrefix(line, "?"); ok {
			text = strings.TrimPrefix(text, " ")
			showSuggestions(out, r.Engine, text, r.ObjectType)
			continue
		}

		if _, err := ValidateComplete(line); err != nil {
			showError(out, line, err)
			continue
		}
		if r.OnQuery == nil {
			fmt.Fprintln(out, "valid")
			continue
		}
		if err := r.OnQuery(line); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// showSuggestions displays suggestions for the end of text
func showSuggestions(out io.Writer, engine *Engine, text string, objectType ObjectType) {
	suggestions, err := engine.Suggest(text, objectType)
	if err != nil {
		showError(out, text, err)
		return
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "No suggestions available")
		return
	}

	for i, s := range suggestions {
		if i >= 10 { // Limit to 10
			fmt.Fprintf(out, "... and %d more\n", len(suggestions)-10)
			break
		}
		fmt.Fprintf(out, "  [%s] %-24s %s\n", s.Kind, s.Display, s.Description)
	}
	fmt.Fprintf(out, "→ %s\n", suggestions[0].Apply(text))
}

// showFields lists every field by object type
func showFields(out io.Writer, engine *Engine) {
	current := ObjectType("")
	for _, f := range engine.Fields() {
		if f.Type != current {
			current = f.Type
			fmt.Fprintf(out, "=== %s ===\n", strings.ToUpper(string(current)))
		}
		fmt.Fprintf(out, "  %-24s %s\n", f.Name+f.Definition.Suffix(), f.Description)
	}
}

// showError prints err with a caret under the offending offset
func showError(out io.Writer, text string, err error) {
	fmt.Fprintf(out, "Error: %v\n", err)
	if off, ok := ErrorOffset(err); ok {
		fmt.Fprintf(out, "  %s\n  %s^\n", text, strings.Repeat(" ", len([]rune(text[:min(off, len(text))]))))
	}
}

// showHelp displays help information
func showHelp(out io.Writer) {
	fmt.Fprintln(out, "\nHelp:")
	fmt.Fprintln(out, "  help        - Show this help")
	fmt.Fprintln(out, "  fields      - List all searchable fields")
	fmt.Fprintln(out, "  exit/quit   - Exit the REPL")
	fmt.Fprintln(out, "  ? <query>   - Show suggestions for the end of the query")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Query Syntax:")
	fmt.Fprintln(out, "  tag:value               - Field match")
	fmt.Fprintln(out, `  file.name:"a b"         - Typed field, quoted value`)
	fmt.Fprintln(out, "  size:[1 TO 100]         - Range")
	fmt.Fprintln(out, "  parent:(tag:x)          - Subquery")
	fmt.Fprintln(out, "  tag:a AND NOT (b:1 OR c:2) - Boolean composition")
	fmt.Fprintln(out)
}
