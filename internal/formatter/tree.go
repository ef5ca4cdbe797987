package formatter

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/mwq/internal/query"
)

// defaultMaxArrayInline is the max number of array elements to show inline.
const defaultMaxArrayInline = 3

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// NoValues hides values at leaf nodes (structure only).
	NoValues bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// ExpandArrays shows all array elements instead of "[N items]" summary.
	ExpandArrays bool
	// MaxArrayInline is max items to show inline for scalar arrays (default 3).
	MaxArrayInline int
	// MaxStringLen is max chars before truncating inline strings (0 = unlimited).
	MaxStringLen int
	// ArrayStyle controls how array indices are displayed:
	// "index" = [0], [1]; "numbered" = 1, 2; "bullet" = •; "none" = skip index.
	ArrayStyle string
}

// ValidArrayStyles contains all valid array style values.
var ValidArrayStyles = []string{"index", "numbered", "bullet", "none"}

// ValidateArrayStyle returns an error if the style is invalid.
func ValidateArrayStyle(style string) error {
	if style == "" {
		return nil
	}
	for _, valid := range ValidArrayStyles {
		if style == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid array-style %q: valid values are index, numbered, bullet, none", style)
}

// FormatArrayIndex formats an array index based on style.
func FormatArrayIndex(i int, style string) string {
	switch style {
	case "numbered":
		return fmt.Sprintf("%d", i+1)
	case "bullet":
		return "•"
	case "none":
		return ""
	default: // "index" or empty
		return fmt.Sprintf("[%d]", i)
	}
}

func formatKeyValue(key, value string) string {
	if key == "" {
		return value
	}
	return key + ": " + value
}

func formatKeyOnly(key string) string {
	if key == "" {
		return "(item)"
	}
	return key
}

// FormatAsTree renders data as an ASCII tree. Maps become branches keyed by
// name, arrays show indexed children and scalars are shown inline at leaves.
func FormatAsTree(node any, opts TreeOptions) string {
	if opts.MaxArrayInline == 0 {
		opts.MaxArrayInline = defaultMaxArrayInline
	}
	tree := treeprint.New()
	switch v := node.(type) {
	case map[string]any:
		buildMapTree(tree, v, opts, 0)
	case []any:
		buildArrayTree(tree, v, opts, 0)
	default:
		tree.AddNode(formatScalar(v, opts))
	}
	return tree.String()
}

func buildMapTree(branch treeprint.Tree, m map[string]any, opts TreeOptions, depth int) {
	for _, key := range getSortedKeys(m) {
		addNodeForValue(branch, key, m[key], opts, depth)
	}
}

func buildArrayTree(branch treeprint.Tree, arr []any, opts TreeOptions, depth int) {
	for i, elem := range arr {
		addNodeForValue(branch, FormatArrayIndex(i, opts.ArrayStyle), elem, opts, depth)
	}
}

func addNodeForValue(branch treeprint.Tree, key string, val any, opts TreeOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(formatKeyValue(key, "..."))
		return
	}

	leaf := func(value string) {
		if opts.NoValues {
			branch.AddNode(formatKeyOnly(key))
			return
		}
		branch.AddNode(formatKeyValue(key, value))
	}

	switch v := val.(type) {
	case map[string]any:
		if len(v) == 0 {
			leaf("{}")
			return
		}
		buildMapTree(branch.AddBranch(formatKeyOnly(key)), v, opts, depth+1)
	case []any:
		switch {
		case len(v) == 0:
			leaf("[]")
		case !opts.ExpandArrays && isScalarArray(v) && len(v) <= opts.MaxArrayInline:
			leaf(formatInlineArray(v))
		case !opts.ExpandArrays && isScalarArray(v):
			leaf(fmt.Sprintf("[%d items]", len(v)))
		default:
			buildArrayTree(branch.AddBranch(formatKeyOnly(key)), v, opts, depth+1)
		}
	default:
		leaf(formatScalar(v, opts))
	}
}

func isScalarArray(arr []any) bool {
	for _, elem := range arr {
		switch elem.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func formatInlineArray(arr []any) string {
	parts := make([]string, len(arr))
	for i, elem := range arr {
		parts[i] = formatScalarSimple(elem)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatScalar(v any, opts TreeOptions) string {
	s := formatScalarSimple(v)
	if opts.MaxStringLen > 0 && len(s) > opts.MaxStringLen {
		if opts.MaxStringLen <= 3 {
			return "..."
		}
		return s[:opts.MaxStringLen-3] + "..."
	}
	return s
}

func formatScalarSimple(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

// AnnotationTree draws the bracket structure of an annotated query. Groups
// and subqueries become branches; clauses and operators are leaves. A final
// leaf inside the innermost open bracket lists the token kinds that may follow.
func AnnotationTree(text string, ann *query.Annotation) string {
	label := text
	if strings.TrimSpace(label) == "" {
		label = "(empty query)"
	}
	root := treeprint.NewWithRoot(label)
	stack := []treeprint.Tree{root}
	top := func() treeprint.Tree { return stack[len(stack)-1] }

	clauseStart, clauseEnd := -1, -1
	flush := func() {
		if clauseStart >= 0 {
			top().AddNode(text[clauseStart:clauseEnd])
			clauseStart = -1
		}
	}

	for _, fact := range ann.Tokens {
		tok := fact.Token
		switch tok.Kind {
		case query.KindWhitespace:
		case query.KindBoolOp, query.KindNot:
			flush()
			top().AddNode(tok.Text)
		case query.KindLParen:
			flush()
			stack = append(stack, top().AddBranch("( group"))
		case query.KindSubqueryOpen:
			if clauseStart < 0 {
				clauseStart = tok.Offset
			}
			stack = append(stack, top().AddBranch(text[clauseStart:tok.End()]+" subquery"))
			clauseStart = -1
		case query.KindRParen:
			flush()
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		default:
			if clauseStart < 0 {
				clauseStart = tok.Offset
			}
			clauseEnd = tok.End()
		}
	}
	flush()

	if len(ann.Next) > 0 {
		top().AddNode("▸ next: " + KindList(ann.Next))
	} else {
		top().AddNode("▸ end")
	}
	return root.String()
}
