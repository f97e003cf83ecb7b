// Package preprocess implements the non-destructive cleaning pipeline:
// per-column type inference and normalization, IQR-based outlier
// separation, and per-type missing-value imputation with full provenance
// recorded in each row's `_meta` tree.
package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/varlor/calculations/internal/dataset"
)

// DefaultMultiplier is the Tukey fence factor applied to the IQR.
const DefaultMultiplier = 1.5

const (
	outlierReason    = "iqr_detection"
	outlierMethod    = "iqr"
	imputationReason = "missing_value_replacement"

	statusSection     = "status"
	columnsSection    = "columns"
	imputationSection = "imputation"
)

// minSamplesForIQR is the smallest numeric sample a column needs before
// outlier detection runs against it.
const minSamplesForIQR = 4

// FieldType is the elected type of a column after profiling.
type FieldType int

const (
	TypeUnknown FieldType = iota
	TypeNumeric
	TypeBoolean
	TypeText
)

// String returns the type name
func (t FieldType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeText:
		return "text"
	default:
		return "unknown"
	}
}

// Report summarizes one preprocessing run.
type Report struct {
	InputRowCount         int
	OutputRowCount        int
	OutliersRemoved       int
	MissingValuesReplaced int
	NormalizedFields      []string
}

// Result bundles the cleaned dataset, the separated outliers and the report.
type Result struct {
	Cleaned  *dataset.Dataset
	Outliers *dataset.Dataset
	Report   Report
}

// Preprocessor runs the cleaning pipeline. It holds only configuration; a
// single instance may process any number of datasets.
type Preprocessor struct {
	multiplier float64
}

// New creates a preprocessor with the given IQR multiplier.
// The multiplier must be a finite value strictly greater than zero.
func New(multiplier float64) (*Preprocessor, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return nil, fmt.Errorf("outlier multiplier must be strictly positive, got %g", multiplier)
	}
	return &Preprocessor{multiplier: multiplier}, nil
}

// Multiplier returns the configured IQR multiplier
func (p *Preprocessor) Multiplier() float64 {
	return p.multiplier
}

type numericSample struct {
	row   int
	value float64
}

type columnProfile struct {
	fieldType      FieldType
	numericSamples []numericSample
	normalized     bool
}

// Process runs the full pipeline over ds and returns the cleaned dataset,
// the outliers dataset and the report. The input dataset is not mutated.
func (p *Preprocessor) Process(ds *dataset.Dataset) *Result {
	result := &Result{
		Cleaned:  ds.Clone(),
		Outliers: dataset.New(ds.Columns()),
	}
	result.Report.InputRowCount = ds.Len()

	columns := ds.Columns()
	profiles := make(map[string]*columnProfile, len(columns))
	for _, column := range columns {
		profiles[column] = p.profileAndNormalize(ds, result.Cleaned, column, &result.Report)
	}

	mask := p.buildOutlierMask(profiles, ds.Len())
	result.Report.OutliersRemoved = splitOutliers(mask, result.Cleaned, result.Outliers)

	// Column order keeps the _meta annotations deterministic between runs.
	for _, column := range columns {
		result.Report.MissingValuesReplaced += imputeColumn(result.Cleaned, column, profiles[column].fieldType)
	}

	result.Report.OutputRowCount = result.Cleaned.Len()
	return result
}

// profileAndNormalize profiles one column of the source dataset and writes
// the normalized values into the target. Columns whose elected type is not
// Unknown are recorded in the report's normalized fields.
func (p *Preprocessor) profileAndNormalize(source, target *dataset.Dataset, column string, report *Report) *columnProfile {
	profile := &columnProfile{}
	rowCount := source.Len()
	if rowCount == 0 {
		return profile
	}

	type observation struct {
		missing bool
		numeric *float64
		boolean *bool
		text    *string
	}

	observations := make([]observation, rowCount)
	var numericConvertible, booleanConvertible, textOnly int

	for row, point := range source.Points() {
		field, ok := point.Get(column)
		if !ok || field.IsNull() {
			observations[row].missing = true
			continue
		}

		if num, ok := tryParseNumber(field); ok {
			observations[row].numeric = &num
			numericConvertible++
		}
		if flag, ok := tryParseBool(field); ok {
			observations[row].boolean = &flag
			booleanConvertible++
		}

		if text, ok := field.Text(); ok {
			observations[row].text = &text
			if observations[row].numeric == nil && observations[row].boolean == nil {
				textOnly++
			}
		} else {
			display := field.DisplayString()
			observations[row].text = &display
		}
	}

	switch {
	case numericConvertible == 0 && booleanConvertible == 0 && textOnly == 0:
		profile.fieldType = TypeUnknown
		return profile
	case textOnly > 0 && (numericConvertible > 0 || booleanConvertible > 0):
		// Mixed text and convertible values: the column stays un-normalized
		// and every row holds null.
		profile.fieldType = TypeUnknown
		for _, point := range target.Points() {
			point.Set(column, dataset.Null())
		}
		return profile
	case numericConvertible >= booleanConvertible && numericConvertible >= textOnly:
		profile.fieldType = TypeNumeric
	case booleanConvertible >= numericConvertible && booleanConvertible >= textOnly:
		profile.fieldType = TypeBoolean
	default:
		profile.fieldType = TypeText
	}

	report.NormalizedFields = append(report.NormalizedFields, column)
	profile.normalized = true

	for row, point := range target.Points() {
		obs := observations[row]
		switch profile.fieldType {
		case TypeNumeric:
			if obs.numeric != nil {
				point.Set(column, dataset.Number(*obs.numeric))
				profile.numericSamples = append(profile.numericSamples, numericSample{row: row, value: *obs.numeric})
			} else {
				point.Set(column, dataset.Null())
			}

		case TypeBoolean:
			if obs.boolean != nil {
				point.Set(column, dataset.Bool(*obs.boolean))
			} else {
				point.Set(column, dataset.Null())
			}

		case TypeText:
			if obs.missing {
				point.Set(column, dataset.Null())
			} else if obs.text != nil {
				point.Set(column, dataset.Text(*obs.text))
			} else {
				point.Set(column, dataset.Text(""))
			}
		}
	}

	return profile
}

// buildOutlierMask marks every row that falls outside the Tukey fences of
// any qualifying numeric column.
func (p *Preprocessor) buildOutlierMask(profiles map[string]*columnProfile, rowCount int) []bool {
	mask := make([]bool, rowCount)
	for _, profile := range profiles {
		if profile.fieldType != TypeNumeric || len(profile.numericSamples) < minSamplesForIQR {
			continue
		}

		values := make([]float64, len(profile.numericSamples))
		for i, sample := range profile.numericSamples {
			values[i] = sample.value
		}
		sort.Float64s(values)

		q1, q3 := quartiles(values)
		iqr := q3 - q1
		lowerBound := q1 - p.multiplier*iqr
		upperBound := q3 + p.multiplier*iqr

		for _, sample := range profile.numericSamples {
			if sample.value < lowerBound || sample.value > upperBound {
				mask[sample.row] = true
			}
		}
	}
	return mask
}

// splitOutliers moves masked rows out of the cleaned dataset into the
// outliers dataset, preserving relative order on both sides, and annotates
// each moved row.
func splitOutliers(mask []bool, cleaned, outliers *dataset.Dataset) int {
	points := cleaned.Points()
	if len(points) == 0 {
		return 0
	}

	retained := make([]*dataset.Point, 0, len(points))
	moved := 0
	for index, point := range points {
		if index < len(mask) && mask[index] {
			annotateOutlier(point)
			outliers.Append(point)
			moved++
		} else {
			retained = append(retained, point)
		}
	}

	cleaned.ReplacePoints(retained)
	return moved
}

// imputeColumn replaces nulls in one typed column of the cleaned dataset
// and returns the number of replacements.
func imputeColumn(ds *dataset.Dataset, column string, fieldType FieldType) int {
	switch fieldType {
	case TypeNumeric:
		return imputeNumeric(ds, column)
	case TypeBoolean:
		return imputeBoolean(ds, column)
	case TypeText:
		return imputeText(ds, column)
	default:
		return 0
	}
}

func imputeNumeric(ds *dataset.Dataset, column string) int {
	values := make([]float64, 0, ds.Len())
	for _, point := range ds.Points() {
		if field, ok := point.Get(column); ok {
			if num, isNum := field.Number(); isNum {
				values = append(values, num)
			}
		}
	}
	if len(values) == 0 {
		values = append(values, 0.0)
	}

	sort.Float64s(values)
	medianValue := medianSorted(values)

	imputed := 0
	for _, point := range ds.Points() {
		field, ok := point.Get(column)
		if !ok || field.IsNull() {
			point.Set(column, dataset.Number(medianValue))
			annotateImputation(point, column, "median", dataset.Number(medianValue))
			imputed++
		}
	}
	return imputed
}

func imputeBoolean(ds *dataset.Dataset, column string) int {
	var trueCount, falseCount int
	for _, point := range ds.Points() {
		if field, ok := point.Get(column); ok {
			if flag, isBool := field.Bool(); isBool {
				if flag {
					trueCount++
				} else {
					falseCount++
				}
			}
		}
	}

	imputedValue := trueCount >= falseCount

	imputed := 0
	for _, point := range ds.Points() {
		field, ok := point.Get(column)
		if !ok || field.IsNull() {
			point.Set(column, dataset.Bool(imputedValue))
			annotateImputation(point, column, "mode_boolean", dataset.Bool(imputedValue))
			imputed++
		}
	}
	return imputed
}

func imputeText(ds *dataset.Dataset, column string) int {
	frequencies := make(map[string]int)
	for _, point := range ds.Points() {
		if field, ok := point.Get(column); ok {
			if text, isText := field.Text(); isText {
				frequencies[text]++
			}
		}
	}

	// Most frequent value; ties broken by lexicographic minimum.
	var imputedValue string
	bestCount := 0
	for value, count := range frequencies {
		if count > bestCount || (count == bestCount && value < imputedValue) {
			imputedValue = value
			bestCount = count
		}
	}

	imputed := 0
	for _, point := range ds.Points() {
		field, ok := point.Get(column)
		if !ok || field.IsNull() {
			point.Set(column, dataset.Text(imputedValue))
			annotateImputation(point, column, "mode_text", dataset.Text(imputedValue))
			imputed++
		}
	}
	return imputed
}

func annotateOutlier(point *dataset.Point) {
	status := point.Meta().Section(statusSection)
	status.SetLeaf("outlier", dataset.Bool(true))
	status.SetLeaf("reason", dataset.Text(outlierReason))
	status.SetLeaf("method", dataset.Text(outlierMethod))
}

func annotateImputation(point *dataset.Point, column, strategy string, value dataset.Value) {
	imputation := point.Meta().Section(columnsSection).Section(column).Section(imputationSection)
	imputation.SetLeaf("imputed", dataset.Bool(true))
	imputation.SetLeaf("reason", dataset.Text(imputationReason))
	imputation.SetLeaf("strategy", dataset.Text(strategy))
	imputation.SetLeaf("value", value)
}

// medianSorted expects values sorted ascending and non-empty
func medianSorted(values []float64) float64 {
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2.0
	}
	return values[mid]
}

// quartiles computes Q1 and Q3 as the medians of the lower and upper
// halves of the sorted sample. For odd-sized samples the middle element
// belongs to neither half.
func quartiles(sorted []float64) (q1, q3 float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	mid := len(sorted) / 2
	lower := sorted[:mid]
	upper := sorted[mid:]
	if len(sorted)%2 != 0 {
		upper = sorted[mid+1:]
	}
	return medianSorted(lower), medianSorted(upper)
}

// tryParseNumber coerces a raw value to a float: numbers pass through,
// text parses iff fully consumed after trimming, booleans never coerce.
func tryParseNumber(v dataset.Value) (float64, bool) {
	if num, ok := v.Number(); ok {
		return num, true
	}
	if text, ok := v.Text(); ok {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return 0, false
		}
		num, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return num, true
	}
	return 0, false
}

// tryParseBool coerces a raw value to a boolean: booleans pass through,
// text matches true/yes/1 or false/no/0 case-insensitively after trimming,
// numbers exactly 0 or 1 map to false/true.
func tryParseBool(v dataset.Value) (bool, bool) {
	if flag, ok := v.Bool(); ok {
		return flag, true
	}
	if text, ok := v.Text(); ok {
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
		return false, false
	}
	if num, ok := v.Number(); ok {
		if num == 0 || num == 1 {
			return num != 0, true
		}
	}
	return false, false
}
