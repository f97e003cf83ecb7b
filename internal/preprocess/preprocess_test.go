package preprocess

import (
	"reflect"
	"testing"

	"github.com/varlor/calculations/internal/dataset"
)

// buildDataset creates a dataset from row maps, registering columns in
// first-appearance order.
func buildDataset(rows []map[string]interface{}) *dataset.Dataset {
	ds := dataset.New(nil)
	for _, row := range rows {
		point := dataset.NewPoint()
		for _, key := range sortedAppearance(rows, row) {
			raw, ok := row[key]
			if !ok {
				continue
			}
			ds.EnsureColumn(key)
			switch v := raw.(type) {
			case nil:
				point.Set(key, dataset.Null())
			case float64:
				point.Set(key, dataset.Number(v))
			case int:
				point.Set(key, dataset.Number(float64(v)))
			case string:
				point.Set(key, dataset.Text(v))
			case bool:
				point.Set(key, dataset.Bool(v))
			}
		}
		ds.Append(point)
	}
	return ds
}

// sortedAppearance yields the keys of row following the column order of
// the first row that mentions them, so tests get deterministic layouts.
func sortedAppearance(rows []map[string]interface{}, row map[string]interface{}) []string {
	var order []string
	seen := map[string]bool{}
	for _, r := range rows {
		for _, key := range []string{"value", "flag", "label", "price", "clicks", "other"} {
			if _, ok := r[key]; ok && !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
		}
	}
	var keys []string
	for _, key := range order {
		if _, ok := row[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func column(ds *dataset.Dataset, name string) []dataset.Value {
	values := make([]dataset.Value, 0, ds.Len())
	for _, point := range ds.Points() {
		v, _ := point.Get(name)
		values = append(values, v)
	}
	return values
}

func mustNew(t *testing.T, multiplier float64) *Preprocessor {
	t.Helper()
	p, err := New(multiplier)
	if err != nil {
		t.Fatalf("New(%v) failed: %v", multiplier, err)
	}
	return p
}

func TestNew_RejectsNonPositiveMultiplier(t *testing.T) {
	for _, multiplier := range []float64{0, -1.5} {
		if _, err := New(multiplier); err == nil {
			t.Errorf("Expected an error for multiplier %v", multiplier)
		}
	}
}

func TestProcess_BasicCleaning(t *testing.T) {
	// Scenario: three well-formed rows, nothing removed or imputed.
	ds := buildDataset([]map[string]interface{}{
		{"value": 10, "flag": true},
		{"value": 12, "flag": false},
		{"value": 11, "flag": true},
	})

	result := mustNew(t, 1.5).Process(ds)

	if result.Cleaned.Len() != 3 {
		t.Errorf("Expected 3 cleaned rows, got %d", result.Cleaned.Len())
	}
	if result.Outliers.Len() != 0 {
		t.Errorf("Expected no outliers, got %d", result.Outliers.Len())
	}
	if !reflect.DeepEqual(result.Report.NormalizedFields, []string{"value", "flag"}) {
		t.Errorf("Expected normalized fields [value flag], got %v", result.Report.NormalizedFields)
	}
	if result.Report.MissingValuesReplaced != 0 {
		t.Errorf("Expected no imputations, got %d", result.Report.MissingValuesReplaced)
	}
	if result.Report.InputRowCount != 3 || result.Report.OutputRowCount != 3 {
		t.Errorf("Unexpected report counts: %+v", result.Report)
	}
}

func TestProcess_OutlierDetection(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"value": 10}, {"value": 11}, {"value": 12},
		{"value": 13}, {"value": 14}, {"value": 100},
	})

	result := mustNew(t, 1.5).Process(ds)

	if result.Cleaned.Len() != 5 {
		t.Fatalf("Expected 5 cleaned rows, got %d", result.Cleaned.Len())
	}
	if result.Outliers.Len() != 1 {
		t.Fatalf("Expected 1 outlier, got %d", result.Outliers.Len())
	}
	if result.Report.OutliersRemoved != 1 {
		t.Errorf("Expected outliers_removed=1, got %d", result.Report.OutliersRemoved)
	}

	outlier := result.Outliers.Points()[0]
	if v, _ := outlier.Get("value"); !v.Equal(dataset.Number(100)) {
		t.Errorf("Expected the row with value 100 to be moved, got %v", v)
	}

	status, ok := outlier.Meta().Lookup("status")
	if !ok {
		t.Fatal("Outlier row is missing the status section")
	}
	if leaf, _ := status.Leaf("outlier"); !leaf.Equal(dataset.Bool(true)) {
		t.Error("Expected status.outlier=true")
	}
	if leaf, _ := status.Leaf("reason"); !leaf.Equal(dataset.Text("iqr_detection")) {
		t.Error("Expected status.reason=iqr_detection")
	}
	if leaf, _ := status.Leaf("method"); !leaf.Equal(dataset.Text("iqr")) {
		t.Error("Expected status.method=iqr")
	}

	// Survivors keep their relative order.
	expected := []dataset.Value{
		dataset.Number(10), dataset.Number(11), dataset.Number(12),
		dataset.Number(13), dataset.Number(14),
	}
	if !reflect.DeepEqual(column(result.Cleaned, "value"), expected) {
		t.Errorf("Cleaned order mismatch: %v", column(result.Cleaned, "value"))
	}
}

func TestProcess_SmallSamplesSkipIQR(t *testing.T) {
	// Three numeric samples: too few for quartiles, nothing removed even
	// with an extreme value present.
	ds := buildDataset([]map[string]interface{}{
		{"value": 1}, {"value": 2}, {"value": 1000},
	})
	result := mustNew(t, 1.5).Process(ds)
	if result.Outliers.Len() != 0 {
		t.Errorf("Expected no outliers for a 3-sample column, got %d", result.Outliers.Len())
	}
}

func TestProcess_NumericImputation(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"value": 10}, {"value": 11}, {"value": nil}, {"value": 13},
	})

	result := mustNew(t, 1.5).Process(ds)

	if result.Report.MissingValuesReplaced != 1 {
		t.Fatalf("Expected 1 imputation, got %d", result.Report.MissingValuesReplaced)
	}

	imputedRow := result.Cleaned.Points()[2]
	if v, _ := imputedRow.Get("value"); !v.Equal(dataset.Number(11)) {
		t.Errorf("Expected the null replaced by the median 11, got %v", v)
	}

	columns, ok := imputedRow.Meta().Lookup("columns")
	if !ok {
		t.Fatal("Imputed row is missing the columns section")
	}
	columnMeta, ok := columns.Lookup("value")
	if !ok {
		t.Fatal("Imputed row is missing columns.value")
	}
	imputation, ok := columnMeta.Lookup("imputation")
	if !ok {
		t.Fatal("Imputed row is missing the imputation section")
	}
	if leaf, _ := imputation.Leaf("imputed"); !leaf.Equal(dataset.Bool(true)) {
		t.Error("Expected imputation.imputed=true")
	}
	if leaf, _ := imputation.Leaf("strategy"); !leaf.Equal(dataset.Text("median")) {
		t.Error("Expected imputation.strategy=median")
	}
	if leaf, _ := imputation.Leaf("reason"); !leaf.Equal(dataset.Text("missing_value_replacement")) {
		t.Error("Expected imputation.reason=missing_value_replacement")
	}
	if leaf, _ := imputation.Leaf("value"); !leaf.Equal(dataset.Number(11)) {
		t.Error("Expected imputation.value=11")
	}
}

func TestProcess_BooleanImputation(t *testing.T) {
	tests := []struct {
		name     string
		values   []interface{}
		expected bool
	}{
		{"true_majority", []interface{}{true, true, false, nil}, true},
		{"false_majority", []interface{}{false, false, true, nil}, false},
		{"tie_prefers_true", []interface{}{true, false, nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]map[string]interface{}, len(tt.values))
			for i, v := range tt.values {
				rows[i] = map[string]interface{}{"flag": v}
			}
			result := mustNew(t, 1.5).Process(buildDataset(rows))

			imputedRow := result.Cleaned.Points()[len(tt.values)-1]
			if v, _ := imputedRow.Get("flag"); !v.Equal(dataset.Bool(tt.expected)) {
				t.Errorf("Expected imputed %v, got %v", tt.expected, v)
			}
		})
	}
}

func TestProcess_TextImputation_LexicographicTie(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"label": "beta"}, {"label": "alpha"},
		{"label": "beta"}, {"label": "alpha"},
		{"label": nil},
	})

	result := mustNew(t, 1.5).Process(ds)

	imputedRow := result.Cleaned.Points()[4]
	if v, _ := imputedRow.Get("label"); !v.Equal(dataset.Text("alpha")) {
		t.Errorf("Expected the lexicographic minimum alpha, got %v", v)
	}

	imputation, _ := imputedRow.Meta().Lookup("columns")
	labelMeta, _ := imputation.Lookup("label")
	section, ok := labelMeta.Lookup("imputation")
	if !ok {
		t.Fatal("Missing imputation section")
	}
	if leaf, _ := section.Leaf("strategy"); !leaf.Equal(dataset.Text("mode_text")) {
		t.Error("Expected strategy mode_text")
	}
}

func TestProcess_TypeElection(t *testing.T) {
	tests := []struct {
		name     string
		values   []interface{}
		expected FieldType
	}{
		{"numeric_text_coercion", []interface{}{"1.5", "2", 3}, TypeNumeric},
		{"boolean_text_coercion", []interface{}{"yes", "no", "TRUE", false}, TypeBoolean},
		{"plain_text", []interface{}{"red", "green", "blue"}, TypeText},
		{"mixed_text_and_numeric", []interface{}{"red", "1.5"}, TypeUnknown},
		{"all_nulls", []interface{}{nil, nil}, TypeUnknown},
		// 0/1 are both numeric- and boolean-convertible; numeric wins ties.
		{"zero_one_tie", []interface{}{0, 1, 0}, TypeNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]map[string]interface{}, len(tt.values))
			for i, v := range tt.values {
				rows[i] = map[string]interface{}{"value": v}
			}
			result := mustNew(t, 1.5).Process(buildDataset(rows))

			normalized := len(result.Report.NormalizedFields) == 1
			if (tt.expected != TypeUnknown) != normalized {
				t.Fatalf("Normalized fields %v does not match elected type %v",
					result.Report.NormalizedFields, tt.expected)
			}

			if tt.expected == TypeUnknown {
				for _, v := range column(result.Cleaned, "value") {
					if !v.IsNull() {
						t.Errorf("Unknown column must be all nulls, got %v", v)
					}
				}
			}
		})
	}
}

func TestProcess_BooleanNormalization(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"flag": "yes"}, {"flag": "No"}, {"flag": " TRUE "}, {"flag": false},
	})
	result := mustNew(t, 1.5).Process(ds)

	expected := []dataset.Value{
		dataset.Bool(true), dataset.Bool(false), dataset.Bool(true), dataset.Bool(false),
	}
	if !reflect.DeepEqual(column(result.Cleaned, "flag"), expected) {
		t.Errorf("Boolean normalization mismatch: %v", column(result.Cleaned, "flag"))
	}
}

func TestProcess_InputNotMutated(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"value": "10"}, {"value": "11"}, {"value": nil}, {"value": "13"},
	})

	mustNew(t, 1.5).Process(ds)

	// The raw dataset still holds the original text and null values.
	raw := column(ds, "value")
	if !raw[0].Equal(dataset.Text("10")) {
		t.Errorf("Input was mutated: %v", raw[0])
	}
	if !raw[2].IsNull() {
		t.Errorf("Input null was mutated: %v", raw[2])
	}
	if ds.Points()[2].HasMeta() {
		t.Error("Input rows must not receive meta annotations")
	}
}

func TestProcess_OutliersKeepPreImputationValues(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"value": 10, "other": nil},
		{"value": 11, "other": 1},
		{"value": 12, "other": 2},
		{"value": 13, "other": 3},
		{"value": 14, "other": 4},
		{"value": 100, "other": nil},
	})
	result := mustNew(t, 1.5).Process(ds)

	if result.Outliers.Len() != 1 {
		t.Fatalf("Expected 1 outlier, got %d", result.Outliers.Len())
	}
	// The moved row keeps its null: imputation runs on the cleaned side only.
	if v, _ := result.Outliers.Points()[0].Get("other"); !v.IsNull() {
		t.Errorf("Outlier row must keep its pre-imputation null, got %v", v)
	}
}

func TestProcess_RowPartition(t *testing.T) {
	// Every input row lands in exactly one of cleaned and outliers.
	ds := buildDataset([]map[string]interface{}{
		{"value": 1}, {"value": 2}, {"value": 3},
		{"value": 4}, {"value": -50}, {"value": 60},
	})
	result := mustNew(t, 1.5).Process(ds)

	total := result.Cleaned.Len() + result.Outliers.Len()
	if total != ds.Len() {
		t.Errorf("Partition mismatch: %d cleaned + %d outliers != %d input",
			result.Cleaned.Len(), result.Outliers.Len(), ds.Len())
	}
	if result.Report.InputRowCount != total {
		t.Errorf("input_row_count %d != %d", result.Report.InputRowCount, total)
	}
	if result.Report.OutputRowCount != result.Cleaned.Len() {
		t.Errorf("output_row_count %d != cleaned %d", result.Report.OutputRowCount, result.Cleaned.Len())
	}
}

func TestProcess_ColumnOrderPreserved(t *testing.T) {
	ds := buildDataset([]map[string]interface{}{
		{"value": 1, "flag": true, "label": "a"},
	})
	result := mustNew(t, 1.5).Process(ds)

	if !reflect.DeepEqual(result.Cleaned.Columns(), ds.Columns()) {
		t.Errorf("Cleaned columns %v != input %v", result.Cleaned.Columns(), ds.Columns())
	}
	if !reflect.DeepEqual(result.Outliers.Columns(), ds.Columns()) {
		t.Errorf("Outliers columns %v != input %v", result.Outliers.Columns(), ds.Columns())
	}
}

func TestProcess_Deterministic(t *testing.T) {
	rows := []map[string]interface{}{
		{"value": "10", "flag": "yes", "label": "a"},
		{"value": nil, "flag": nil, "label": nil},
		{"value": "12", "flag": "no", "label": "b"},
		{"value": "11", "flag": "1", "label": "a"},
	}
	first := mustNew(t, 1.5).Process(buildDataset(rows))
	second := mustNew(t, 1.5).Process(buildDataset(rows))

	if !reflect.DeepEqual(first.Report, second.Report) {
		t.Errorf("Reports differ between runs:\n%+v\n%+v", first.Report, second.Report)
	}
	for i := range first.Cleaned.Points() {
		a := first.Cleaned.Points()[i]
		b := second.Cleaned.Points()[i]
		if !reflect.DeepEqual(a.Fields(), b.Fields()) {
			t.Errorf("Row %d differs between runs", i)
		}
		if !reflect.DeepEqual(a.Meta().ToMap(), b.Meta().ToMap()) {
			t.Errorf("Row %d meta differs between runs", i)
		}
	}
}

func TestQuartiles(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q1, q3 float64
	}{
		{"even", []float64{10, 11, 12, 13, 14, 100}, 11, 14},
		{"odd_excludes_middle", []float64{1, 2, 3, 4, 5}, 1.5, 4.5},
		{"four", []float64{1, 2, 3, 4}, 1.5, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q1, q3 := quartiles(tt.values)
			if q1 != tt.q1 || q3 != tt.q3 {
				t.Errorf("quartiles(%v) = (%v, %v), expected (%v, %v)",
					tt.values, q1, q3, tt.q1, tt.q3)
			}
		})
	}
}

func TestTryParseNumber(t *testing.T) {
	tests := []struct {
		value    dataset.Value
		expected float64
		ok       bool
	}{
		{dataset.Number(1.5), 1.5, true},
		{dataset.Text(" 2.5 "), 2.5, true},
		{dataset.Text("1e3"), 1000, true},
		{dataset.Text("12abc"), 0, false},
		{dataset.Text(""), 0, false},
		{dataset.Bool(true), 0, false},
		{dataset.Null(), 0, false},
	}
	for _, tt := range tests {
		got, ok := tryParseNumber(tt.value)
		if ok != tt.ok || (ok && got != tt.expected) {
			t.Errorf("tryParseNumber(%v) = (%v, %v), expected (%v, %v)",
				tt.value, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestTryParseBool(t *testing.T) {
	tests := []struct {
		value    dataset.Value
		expected bool
		ok       bool
	}{
		{dataset.Bool(false), false, true},
		{dataset.Text("Yes"), true, true},
		{dataset.Text(" 0 "), false, true},
		{dataset.Text("maybe"), false, false},
		{dataset.Number(1), true, true},
		{dataset.Number(0), false, true},
		{dataset.Number(2), false, false},
		{dataset.Null(), false, false},
	}
	for _, tt := range tests {
		got, ok := tryParseBool(tt.value)
		if ok != tt.ok || (ok && got != tt.expected) {
			t.Errorf("tryParseBool(%v) = (%v, %v), expected (%v, %v)",
				tt.value, got, ok, tt.expected, tt.ok)
		}
	}
}
