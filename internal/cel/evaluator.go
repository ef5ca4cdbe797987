// Package cel filters search results client-side with CEL expressions.
//
// Expressions see the current result as "_", for example:
//
//	_.file_size > 1024 && _.tags.exists(t, t.tag == "emotet")
package cel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/mwq/pkg/loader"
)

// Evaluator compiles and evaluates CEL expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// newStandardCELEnv creates a CEL environment with "_" bound to a dynamic value
// and the common extension libraries loaded.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Evaluate evaluates expr against data bound to "_".
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	prg, err := e.compile(expr, nil)
	if err != nil {
		return nil, err
	}
	return run(prg, data)
}

// Predicate is a compiled boolean expression.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile type-checks expr as a predicate. Expressions whose static type is
// not bool or dyn are rejected up front.
func (e *Evaluator) Compile(expr string) (*Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("filter expression is empty")
	}
	prg, err := e.compile(expr, func(ast *cel.Ast) error {
		out := ast.OutputType()
		if out.Kind() == types.BoolKind || out.Kind() == types.DynKind {
			return nil
		}
		return fmt.Errorf("filter %q returns %s, want bool", expr, out)
	})
	if err != nil {
		return nil, err
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// Match reports whether the predicate holds for item.
func (p *Predicate) Match(item any) (bool, error) {
	out, err := run(p.prg, item)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", p.expr, out)
	}
	return b, nil
}

// Filter keeps the results for which expr holds. The input slice is not modified.
func (e *Evaluator) Filter(results []any, expr string) ([]any, error) {
	pred, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return pred.Filter(results)
}

// Filter keeps the results for which the predicate holds.
func (p *Predicate) Filter(results []any) ([]any, error) {
	kept := make([]any, 0, len(results))
	for i, item := range results {
		ok, err := p.Match(item)
		if err != nil {
			return nil, fmt.Errorf("result [%d]: %w", i, err)
		}
		if ok {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func (e *Evaluator) compile(expr string, check func(*cel.Ast) error) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if check != nil {
		if err := check(ast); err != nil {
			return nil, err
		}
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return prg, nil
}

func run(prg cel.Program, data any) (any, error) {
	if data != nil {
		normalized, err := loader.LoadObject(data)
		if err == nil {
			data = normalized
		}
	}
	result, _, err := prg.Eval(map[string]any{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	converted := ToGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		converted = refVal.Value()
	}
	return converted, nil
}

// ToGo converts CEL values to Go native types recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	inner := val.Value()
	switch v := inner.(type) {
	case []ref.Val:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = convertValue(elem)
		}
		return out
	case map[string]any:
		return convertMapValues(v)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[fmt.Sprintf("%v", k.Value())] = ToGo(elem)
		}
		return out
	}
	return inner
}

func convertValue(v any) any {
	switch x := v.(type) {
	case ref.Val:
		return ToGo(x)
	case map[string]any:
		return convertMapValues(x)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = convertValue(elem)
		}
		return out
	}
	return v
}

func convertMapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convertValue(v)
	}
	return out
}

// Functions lists the non-operator functions and macros available to filters.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	for _, fn := range e.env.Functions() {
		if !isOperator(fn.Name()) {
			seen[fn.Name()] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isOperator filters internal declarations such as "_==_", "!_" and "@in".
func isOperator(name string) bool {
	if name == "" {
		return true
	}
	c := name[0]
	return (c < 'a' || c > 'z') && (c < 'A' || c > 'Z')
}
