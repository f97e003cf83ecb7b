// Package indicator evaluates user-supplied analytic operations against a
// cleaned dataset. Each operation is either a direct call to a built-in
// statistical aggregate or a free-form mathematical expression; failures
// are captured per operation and never abort the batch.
package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/varlor/calculations/internal/dataset"
	"github.com/varlor/calculations/internal/expr"
	"github.com/varlor/calculations/internal/stats"
	"github.com/varlor/calculations/internal/utils"
)

// Status reports whether an operation evaluated successfully.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Operation is one analytic operation to evaluate. Alias, when set,
// becomes the identity used in result reporting.
type Operation struct {
	Expr   string
	Alias  string
	Params map[string]string
}

// Result is the outcome of one operation. Exactly one of Scalar and
// Sequence is set on success; both are unset on error.
type Result struct {
	Expr         string
	Status       Status
	Scalar       *float64
	Sequence     []float64
	ErrorMessage string
	ExecutedAt   string
}

// Engine dispatches operations between the built-in call form and the
// generic expression pipeline. It is stateless.
type Engine struct{}

// New creates an indicator engine
func New() *Engine {
	return &Engine{}
}

// Execute evaluates every operation against ds and returns one result per
// operation, in input order. An error in one operation does not affect
// the others.
func (e *Engine) Execute(ds *dataset.Dataset, operations []Operation) []Result {
	results := make([]Result, 0, len(operations))

	for _, operation := range operations {
		result := Result{
			Expr:       operation.Expr,
			ExecutedAt: utils.NowISOTimestamp(),
		}
		if alias := strings.TrimSpace(operation.Alias); alias != "" {
			result.Expr = alias
		}

		value, err := e.evaluate(ds, operation)
		if err != nil {
			result.Status = StatusError
			result.ErrorMessage = err.Error()
		} else {
			result.Status = StatusSuccess
			if value.RowWise {
				result.Sequence = value.Sequence
			} else {
				scalar := value.Scalar
				result.Scalar = &scalar
			}
		}

		results = append(results, result)
	}
	return results
}

func (e *Engine) evaluate(ds *dataset.Dataset, operation Operation) (expr.Value, error) {
	if call, ok := detectBuiltinCall(operation.Expr); ok {
		scalar, err := executeBuiltin(ds, operation, call)
		if err != nil {
			return expr.Value{}, err
		}
		return expr.Value{Scalar: scalar}, nil
	}

	artifact, err := expr.Compile(operation.Expr, ds)
	if err != nil {
		return expr.Value{}, err
	}
	return artifact.Eval(ds)
}

// builtinNames are the aggregates accepted in the direct call form.
var builtinNames = map[string]struct{}{
	"mean":        {},
	"median":      {},
	"variance":    {},
	"stddev":      {},
	"correlation": {},
	"min":         {},
	"max":         {},
	"percentile":  {},
}

type builtinCall struct {
	function  string
	arguments []string
}

// detectBuiltinCall matches expressions of the exact form
// `<identifier>(<args>)` — a single call spanning the whole trimmed
// expression — where the identifier is a known aggregate. Anything else
// falls through to the expression compiler.
func detectBuiltinCall(expression string) (builtinCall, bool) {
	trimmed := strings.TrimSpace(expression)

	end := 0
	for end < len(trimmed) && (trimmed[end] == '_' ||
		(trimmed[end] >= 'a' && trimmed[end] <= 'z') ||
		(trimmed[end] >= 'A' && trimmed[end] <= 'Z') ||
		(end > 0 && trimmed[end] >= '0' && trimmed[end] <= '9')) {
		end++
	}
	if end == 0 {
		return builtinCall{}, false
	}
	function := trimmed[:end]
	if _, ok := builtinNames[function]; !ok {
		return builtinCall{}, false
	}

	rest := strings.TrimLeft(trimmed[end:], " \t")
	if len(rest) == 0 || rest[0] != '(' {
		return builtinCall{}, false
	}

	// The closing parenthesis of the call must be the final character,
	// otherwise the expression is more than a single call.
	depth := 0
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if i != len(rest)-1 {
					return builtinCall{}, false
				}
				return builtinCall{
					function:  function,
					arguments: splitArguments(rest[1:i]),
				}, true
			}
		}
	}
	return builtinCall{}, false
}

// splitArguments splits on top-level commas; the caller guarantees the
// input is balanced.
func splitArguments(args string) []string {
	var tokens []string
	depth := 0
	start := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				tokens = append(tokens, strings.TrimSpace(args[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(args[start:]); last != "" {
		tokens = append(tokens, last)
	}
	return tokens
}

func executeBuiltin(ds *dataset.Dataset, operation Operation, call builtinCall) (float64, error) {
	args := call.arguments

	switch call.function {
	case "mean", "median", "variance", "stddev", "min", "max":
		if len(args) != 1 {
			return 0, fmt.Errorf("%s expects exactly one column", call.function)
		}
		column := args[0]
		switch call.function {
		case "mean":
			return stats.Mean(ds, column)
		case "median":
			return stats.Median(ds, column)
		case "variance":
			return stats.Variance(ds, column)
		case "stddev":
			return stats.StdDev(ds, column)
		case "min":
			return stats.Min(ds, column)
		default:
			return stats.Max(ds, column)
		}

	case "correlation":
		if len(args) != 2 {
			return 0, fmt.Errorf("correlation expects two columns")
		}
		return stats.Correlation(ds, args[0], args[1])

	case "percentile":
		if len(args) == 0 || len(args) > 2 {
			return 0, fmt.Errorf("percentile expects 1 or 2 arguments")
		}
		column := args[0]
		var p float64
		if len(args) == 2 {
			// The positional argument wins over any params entry.
			parsed, err := parseFloatParam(args[1], "percentile")
			if err != nil {
				return 0, err
			}
			p = parsed
		} else {
			raw, ok := operation.Params["percentile"]
			if !ok {
				raw, ok = operation.Params["p"]
			}
			if !ok {
				return 0, fmt.Errorf("percentile requires a second argument or a `percentile` parameter")
			}
			parsed, err := parseFloatParam(raw, "percentile")
			if err != nil {
				return 0, err
			}
			p = parsed
		}
		return stats.Percentile(ds, column, p)

	default:
		return 0, fmt.Errorf("unknown builtin function: %s", call.function)
	}
}

func parseFloatParam(raw, context string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot interpret %q as a number for %s", raw, context)
	}
	return value, nil
}
