package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/varlor/calculations/internal/dataset"
	"github.com/varlor/calculations/internal/stats"
)

// unaryAggregates are the single-column aggregates inlined during
// substitution, in scan order. min and max double as intrinsics: they are
// substituted only when called with exactly one argument that names a
// dataset column, and pass through to the numeric engine otherwise.
var unaryAggregates = []struct {
	name     string
	optional bool
	fn       func(*dataset.Dataset, string) (float64, error)
}{
	{name: "mean", fn: stats.Mean},
	{name: "median", fn: stats.Median},
	{name: "variance", fn: stats.Variance},
	{name: "stddev", fn: stats.StdDev},
	{name: "min", optional: true, fn: stats.Min},
	{name: "max", optional: true, fn: stats.Max},
}

// formatAggregate renders an aggregate result with up to 15 significant
// digits, matching the precision literals carry through the lexical gate.
func formatAggregate(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}

// callSite describes one matched aggregate invocation in the source text.
type callSite struct {
	args  []string
	start int // index of the identifier's first byte
	end   int // index one past the closing parenthesis
}

// findCall locates the next occurrence of name used as a call: the
// identifier must sit at an identifier boundary and be followed, after
// optional whitespace, by an opening parenthesis. Arguments are split on
// top-level commas with balanced-parenthesis tracking.
func findCall(src, name string, from int) (*callSite, error) {
	for pos := from; pos < len(src); {
		idx := strings.Index(src[pos:], name)
		if idx < 0 {
			return nil, nil
		}
		start := pos + idx
		pos = start + len(name)

		if start > 0 && isIdentPart(src[start-1]) {
			continue
		}
		open := start + len(name)
		for open < len(src) && (src[open] == ' ' || src[open] == '\t' || src[open] == '\n' || src[open] == '\r') {
			open++
		}
		if open >= len(src) || src[open] != '(' {
			continue
		}

		args, end, err := extractArguments(src, open)
		if err != nil {
			return nil, err
		}
		return &callSite{args: args, start: start, end: end}, nil
	}
	return nil, nil
}

// extractArguments parses the argument list starting at the opening
// parenthesis and returns the trimmed top-level arguments plus the index
// one past the matching close.
func extractArguments(src string, open int) ([]string, int, error) {
	depth := 1
	args := make([]string, 0, 2)
	tokenStart := open + 1

	for cursor := open + 1; cursor < len(src); cursor++ {
		switch src[cursor] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if arg := strings.TrimSpace(src[tokenStart:cursor]); arg != "" {
					args = append(args, arg)
				}
				return args, cursor + 1, nil
			}
		case ',':
			if depth == 1 {
				if arg := strings.TrimSpace(src[tokenStart:cursor]); arg != "" {
					args = append(args, arg)
				}
				tokenStart = cursor + 1
			}
		}
	}
	return nil, 0, fmt.Errorf("unbalanced parentheses in expression")
}

// substituteAggregates evaluates every aggregate call against the
// reference dataset and replaces it with a numeric literal. Each pass
// rescans its own output, so aggregates nest left-to-right.
func substituteAggregates(src string, ds *dataset.Dataset) (string, error) {
	for _, aggregate := range unaryAggregates {
		pos := 0
		for {
			site, err := findCall(src, aggregate.name, pos)
			if err != nil {
				return "", err
			}
			if site == nil {
				break
			}

			if aggregate.optional && (len(site.args) != 1 || !ds.HasColumn(site.args[0])) {
				// Intrinsic form; leave it for the numeric engine.
				pos = site.start + len(aggregate.name)
				continue
			}
			if len(site.args) != 1 {
				return "", fmt.Errorf("%s expects exactly one column argument", aggregate.name)
			}

			value, err := aggregate.fn(ds, site.args[0])
			if err != nil {
				return "", err
			}
			replacement := formatAggregate(value)
			src = src[:site.start] + replacement + src[site.end:]
			pos = site.start + len(replacement)
		}
	}

	var err error
	src, err = substituteCorrelation(src, ds)
	if err != nil {
		return "", err
	}
	return substitutePercentile(src, ds)
}

func substituteCorrelation(src string, ds *dataset.Dataset) (string, error) {
	pos := 0
	for {
		site, err := findCall(src, "correlation", pos)
		if err != nil {
			return "", err
		}
		if site == nil {
			return src, nil
		}
		if len(site.args) != 2 {
			return "", fmt.Errorf("correlation expects exactly two column arguments")
		}

		value, err := stats.Correlation(ds, site.args[0], site.args[1])
		if err != nil {
			return "", err
		}
		replacement := formatAggregate(value)
		src = src[:site.start] + replacement + src[site.end:]
		pos = site.start + len(replacement)
	}
}

func substitutePercentile(src string, ds *dataset.Dataset) (string, error) {
	pos := 0
	for {
		site, err := findCall(src, "percentile", pos)
		if err != nil {
			return "", err
		}
		if site == nil {
			return src, nil
		}
		if len(site.args) != 2 {
			return "", fmt.Errorf("percentile expects two arguments: a column and a percentage")
		}

		p, err := strconv.ParseFloat(site.args[1], 64)
		if err != nil {
			return "", fmt.Errorf("the second argument of percentile must be a number, got %q", site.args[1])
		}

		value, err := stats.Percentile(ds, site.args[0], p)
		if err != nil {
			return "", err
		}
		replacement := formatAggregate(value)
		src = src[:site.start] + replacement + src[site.end:]
		pos = site.start + len(replacement)
	}
}
