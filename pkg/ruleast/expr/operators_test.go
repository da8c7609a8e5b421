package expr

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		left  any
		right any
		op    string
		want  bool
	}{
		{"numbers gt", 10, 5.0, OpGT, true},
		{"numbers lt", 10, 5.0, OpLT, false},
		{"numbers gte equal", 10, 10.0, OpGTE, true},
		{"numbers lte equal", 10, 10.0, OpLTE, true},
		{"numbers eq across kinds", int32(3), 3.0, OpEQ, true},
		{"numbers neq", 3, 4.0, OpNEQ, true},
		{"strings lexicographic", "apple", "banana", OpLT, true},
		{"strings eq", "Sales", "Sales", OpEQ, true},
		{"strings lexicographic not numeric", "10", "9", OpGT, false},
		{"bool rendered", true, "true", OpEQ, true},
		{"NaN never equal", math.NaN(), math.NaN(), OpEQ, false},
		{"NaN is not equal", math.NaN(), 1.0, OpNEQ, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.left, tt.right, tt.op)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare(%v, %v, %q) = %v, want %v", tt.left, tt.right, tt.op, got, tt.want)
			}
		})
	}
}

func TestCompare_UnknownOperator(t *testing.T) {
	for _, op := range []string{"==", "<>", "contains", ""} {
		if _, err := Compare(1, 1.0, op); err == nil {
			t.Errorf("Compare with %q: expected error", op)
		}
	}
}

func TestIsComparator(t *testing.T) {
	for _, op := range []string{">", "<", ">=", "<=", "=", "!="} {
		if !IsComparator(op) {
			t.Errorf("IsComparator(%q) = false", op)
		}
	}
	for _, op := range []string{"==", "!!", "=>", "=<", "??"} {
		if IsComparator(op) {
			t.Errorf("IsComparator(%q) = true", op)
		}
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{42, 42, true},
		{int8(-3), -3, true},
		{uint64(7), 7, true},
		{float32(1.5), 1.5, true},
		{json.Number("2.25"), 2.25, true},
		{json.Number("abc"), 0, false},
		{"42", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat64(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric(1) || !IsNumeric(1.0) || !IsNumeric(json.Number("1")) {
		t.Error("expected numeric kinds to be numeric")
	}
	if IsNumeric("1") || IsNumeric(true) || IsNumeric(nil) {
		t.Error("expected strings, bools and nil to be non-numeric")
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		"'Sales'":   "Sales",
		`"Sales"`:   "Sales",
		`'"mixed"'`: "mixed",
		"Sales":     "Sales",
		"it's":      "it's",
		"''":        "",
		"O'Brien'":  "O'Brien",
	}
	for in, want := range tests {
		if got := Unquote(in); got != want {
			t.Errorf("Unquote(%q) = %q, want %q", in, got, want)
		}
	}
}
