// Package stats implements the built-in statistical aggregates evaluated
// against a dataset column. All functions operate on the subset of rows
// where the referenced column holds a numeric value; nulls and missing
// fields are skipped, any other non-numeric value is a validation failure.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/varlor/calculations/internal/dataset"
)

// MinPercentile and MaxPercentile bound the percentile argument.
const (
	MinPercentile = 0.0
	MaxPercentile = 100.0
)

// Mean returns the arithmetic mean of the column's numeric values
func Mean(ds *dataset.Dataset, column string) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	return mean(values), nil
}

// Median returns the sorted middle of the column's numeric values,
// averaging the two middle elements for even-sized samples.
func Median(ds *dataset.Dataset, column string) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	sort.Float64s(values)
	return medianSorted(values), nil
}

// Variance returns the population variance (divide by n) of the column
func Variance(ds *dataset.Dataset, column string) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	if len(values) < 2 {
		return 0, fmt.Errorf("variance requires at least two numeric values in column %q", column)
	}
	return variance(values, mean(values)), nil
}

// StdDev returns the square root of the population variance
func StdDev(ds *dataset.Dataset, column string) (float64, error) {
	v, err := Variance(ds, column)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// Min returns the smallest numeric value in the column
func Min(ds *dataset.Dataset, column string) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	lowest := values[0]
	for _, v := range values[1:] {
		if v < lowest {
			lowest = v
		}
	}
	return lowest, nil
}

// Max returns the largest numeric value in the column
func Max(ds *dataset.Dataset, column string) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	highest := values[0]
	for _, v := range values[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest, nil
}

// Correlation returns the Pearson correlation coefficient over row-aligned
// pairs where both columns hold a numeric value.
func Correlation(ds *dataset.Dataset, columnX, columnY string) (float64, error) {
	xs, ys, err := numericPair(ds, columnX, columnY)
	if err != nil {
		return 0, err
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("correlation requires at least two aligned numeric pairs")
	}

	meanX := mean(xs)
	meanY := mean(ys)

	var numerator, denominatorX, denominatorY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		numerator += dx * dy
		denominatorX += dx * dx
		denominatorY += dy * dy
	}

	if denominatorX == 0 || denominatorY == 0 {
		return 0, fmt.Errorf("correlation is undefined: one of the columns has zero variance")
	}
	return numerator / math.Sqrt(denominatorX*denominatorY), nil
}

// Percentile returns the p-th percentile of the column's numeric values
// using linear interpolation between closest ranks. p must be in [0, 100];
// p = 100 returns the maximum.
func Percentile(ds *dataset.Dataset, column string, p float64) (float64, error) {
	values, err := numericColumn(ds, column)
	if err != nil {
		return 0, err
	}
	return percentile(values, p)
}

func percentile(values []float64, p float64) (float64, error) {
	if p < MinPercentile || p > MaxPercentile {
		return 0, fmt.Errorf("percentile must be between 0 and 100, got %g", p)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no values available to compute a percentile")
	}

	sort.Float64s(values)
	if p == MaxPercentile {
		return values[len(values)-1], nil
	}

	rank := (p / 100.0) * float64(len(values)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return values[lower], nil
	}
	weight := rank - float64(lower)
	return values[lower] + weight*(values[upper]-values[lower]), nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, meanValue float64) float64 {
	var squareSum float64
	for _, v := range values {
		diff := v - meanValue
		squareSum += diff * diff
	}
	return squareSum / float64(len(values))
}

// medianSorted expects values to be sorted ascending
func medianSorted(values []float64) float64 {
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2.0
	}
	return values[mid]
}

// numericColumn extracts the numeric values of a column in row order.
// Missing fields and nulls are skipped; any other non-numeric value fails.
func numericColumn(ds *dataset.Dataset, column string) ([]float64, error) {
	if !ds.HasColumn(column) {
		return nil, fmt.Errorf("column %q not found in dataset", column)
	}

	values := make([]float64, 0, ds.Len())
	for _, point := range ds.Points() {
		field, ok := point.Get(column)
		if !ok || field.IsNull() {
			continue
		}
		num, ok := field.Number()
		if !ok {
			return nil, fmt.Errorf("column %q contains non-numeric values", column)
		}
		values = append(values, num)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("column %q contains no usable numeric values", column)
	}
	return values, nil
}

// numericPair extracts row-aligned numeric values for two columns. A row is
// included iff both fields are numeric; rows where either side is null or
// missing are skipped; a numeric value paired with a non-null non-numeric
// value fails.
func numericPair(ds *dataset.Dataset, columnX, columnY string) ([]float64, []float64, error) {
	if !ds.HasColumn(columnX) || !ds.HasColumn(columnY) {
		return nil, nil, fmt.Errorf("at least one of columns %q and %q is not in the dataset", columnX, columnY)
	}

	xs := make([]float64, 0, ds.Len())
	ys := make([]float64, 0, ds.Len())

	for _, point := range ds.Points() {
		fieldX, okX := point.Get(columnX)
		fieldY, okY := point.Get(columnY)
		if !okX || !okY || fieldX.IsNull() || fieldY.IsNull() {
			continue
		}

		numX, isNumX := fieldX.Number()
		numY, isNumY := fieldY.Number()
		if !isNumX || !isNumY {
			return nil, nil, fmt.Errorf("columns %q and %q must contain only numeric data", columnX, columnY)
		}
		xs = append(xs, numX)
		ys = append(ys, numY)
	}

	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("columns %q and %q contain no aligned numeric pairs", columnX, columnY)
	}
	return xs, ys, nil
}
