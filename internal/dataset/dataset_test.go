package dataset

import (
	"reflect"
	"testing"
)

func TestValue_Tags(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		kind   Kind
		isNull bool
	}{
		{"null", Null(), KindNull, true},
		{"number", Number(42.5), KindNumber, false},
		{"bool", Bool(true), KindBool, false},
		{"text", Text("hello"), KindText, false},
		{"zero_value", Value{}, KindNull, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.Kind() != tt.kind {
				t.Errorf("Expected kind %v, got %v", tt.kind, tt.value.Kind())
			}
			if tt.value.IsNull() != tt.isNull {
				t.Errorf("Expected IsNull=%v", tt.isNull)
			}
		})
	}
}

func TestValue_Payloads(t *testing.T) {
	if num, ok := Number(3.25).Number(); !ok || num != 3.25 {
		t.Errorf("Expected (3.25, true), got (%v, %v)", num, ok)
	}
	if _, ok := Text("3.25").Number(); ok {
		t.Error("Text value must not report a numeric payload")
	}
	if flag, ok := Bool(true).Bool(); !ok || !flag {
		t.Errorf("Expected (true, true), got (%v, %v)", flag, ok)
	}
	if text, ok := Text("abc").Text(); !ok || text != "abc" {
		t.Errorf("Expected (abc, true), got (%q, %v)", text, ok)
	}
}

func TestValue_Interface(t *testing.T) {
	tests := []struct {
		value    Value
		expected interface{}
	}{
		{Null(), nil},
		{Number(1.5), 1.5},
		{Bool(false), false},
		{Text("x"), "x"},
	}
	for _, tt := range tests {
		if got := tt.value.Interface(); got != tt.expected {
			t.Errorf("Interface() = %v, expected %v", got, tt.expected)
		}
	}
}

func TestFromInterface(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected Value
		wantErr  bool
	}{
		{"nil", nil, Null(), false},
		{"bool", true, Bool(true), false},
		{"string", "abc", Text("abc"), false},
		{"float64", 2.5, Number(2.5), false},
		{"int", 7, Number(7), false},
		{"int64", int64(9), Number(9), false},
		{"nested_map", map[string]interface{}{"a": 1}, Null(), true},
		{"nested_slice", []interface{}{1.0}, Null(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromInterface(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromInterface failed: %v", err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDataset_ColumnOrder(t *testing.T) {
	ds := New(nil)
	ds.EnsureColumn("b")
	ds.EnsureColumn("a")
	ds.EnsureColumn("b") // duplicate registration keeps first position
	ds.EnsureColumn("c")

	expected := []string{"b", "a", "c"}
	if !reflect.DeepEqual(ds.Columns(), expected) {
		t.Errorf("Expected columns %v, got %v", expected, ds.Columns())
	}

	if idx, ok := ds.ColumnIndex("a"); !ok || idx != 1 {
		t.Errorf("Expected column a at index 1, got (%d, %v)", idx, ok)
	}
	if _, ok := ds.ColumnIndex("missing"); ok {
		t.Error("Unknown column must not resolve")
	}
}

func TestDataset_Clone_Independent(t *testing.T) {
	ds := New([]string{"value"})
	point := NewPoint()
	point.Set("value", Number(1))
	point.Meta().Section("status").SetLeaf("outlier", Bool(false))
	ds.Append(point)

	clone := ds.Clone()
	clone.Points()[0].Set("value", Number(99))
	clone.Points()[0].Meta().Section("status").SetLeaf("outlier", Bool(true))

	original, _ := ds.Points()[0].Get("value")
	if num, _ := original.Number(); num != 1 {
		t.Errorf("Clone mutation leaked into the original: %v", num)
	}
	status, _ := ds.Points()[0].Meta().Lookup("status")
	if leaf, _ := status.Leaf("outlier"); !leaf.Equal(Bool(false)) {
		t.Error("Clone meta mutation leaked into the original")
	}
}

func TestPoint_MissingFieldIsAbsent(t *testing.T) {
	point := NewPoint()
	if _, ok := point.Get("anything"); ok {
		t.Error("Expected missing field to report absence")
	}
}

func TestMeta_RoundTrip(t *testing.T) {
	meta := NewMeta()
	status := meta.Section("status")
	status.SetLeaf("outlier", Bool(true))
	status.SetLeaf("reason", Text("iqr_detection"))
	imputation := meta.Section("columns").Section("value").Section("imputation")
	imputation.SetLeaf("imputed", Bool(true))
	imputation.SetLeaf("value", Number(11))

	asMap := meta.ToMap()
	rebuilt, err := MetaFromMap(asMap)
	if err != nil {
		t.Fatalf("MetaFromMap failed: %v", err)
	}

	if !reflect.DeepEqual(rebuilt.ToMap(), asMap) {
		t.Errorf("Round-trip mismatch:\n%v\n%v", rebuilt.ToMap(), asMap)
	}
}

func TestMeta_EmptySectionsAreAbsent(t *testing.T) {
	meta := NewMeta()
	meta.Section("empty")
	meta.Section("nested").Section("deeper")

	if !meta.IsEmpty() {
		t.Error("A tree of empty sections must report empty")
	}
	if meta.ToMap() != nil {
		t.Errorf("Expected nil map for empty tree, got %v", meta.ToMap())
	}
}

func TestMeta_RejectsSequences(t *testing.T) {
	_, err := MetaFromMap(map[string]interface{}{
		"status": map[string]interface{}{
			"values": []interface{}{1.0, 2.0},
		},
	})
	if err == nil {
		t.Fatal("Expected an error for a sequence inside _meta")
	}
}

func TestMeta_LeafLookups(t *testing.T) {
	meta := NewMeta()
	meta.SetLeaf("flag", Bool(true))
	meta.Section("nested").SetLeaf("inner", Number(1))

	if _, ok := meta.Leaf("nested"); ok {
		t.Error("A section must not be readable as a leaf")
	}
	if _, ok := meta.Lookup("flag"); ok {
		t.Error("A leaf must not be readable as a section")
	}
	if leaf, ok := meta.Leaf("flag"); !ok || !leaf.Equal(Bool(true)) {
		t.Errorf("Expected flag leaf, got (%v, %v)", leaf, ok)
	}
}
