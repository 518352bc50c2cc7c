package sample

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"testing"
)

func TestToMatrix(t *testing.T) {
	b := testBatch(t, 6)
	names := b.Names()

	byVar, err := b.ToMatrix(0)
	if err != nil {
		t.Fatalf("ToMatrix(0) failed: %v", err)
	}
	if r, c := byVar.Dims(); r != len(names) || c != 6 {
		t.Fatalf("ToMatrix(0) dims = %dx%d, want %dx6", r, c, len(names))
	}

	bySet, err := b.ToMatrix(-1)
	if err != nil {
		t.Fatalf("ToMatrix(-1) failed: %v", err)
	}
	if r, c := bySet.Dims(); r != 6 || c != len(names) {
		t.Fatalf("ToMatrix(-1) dims = %dx%d, want 6x%d", r, c, len(names))
	}

	for v, name := range names {
		values := b.Values(name)
		for k := range values {
			if byVar.At(v, k) != values[k] {
				t.Errorf("ToMatrix(0)[%d][%d] = %f, want %f", v, k, byVar.At(v, k), values[k])
			}
			if bySet.At(k, v) != values[k] {
				t.Errorf("ToMatrix(-1)[%d][%d] = %f, want %f", k, v, bySet.At(k, v), values[k])
			}
		}
	}
}

func TestToMatrix_Errors(t *testing.T) {
	b := testBatch(t, 4)

	if _, err := b.ToMatrix(2); !errors.Is(err, ErrRange) {
		t.Errorf("Expected RangeError for axis 2, got %v", err)
	}

	empty, _ := b.Slice(0, 0)
	if _, err := empty.ToMatrix(0); !errors.Is(err, ErrRange) {
		t.Errorf("Expected RangeError for empty batch, got %v", err)
	}
}

func TestToFrame(t *testing.T) {
	b := testBatch(t, 5)
	f := b.ToFrame()

	if f.Len() != 5 {
		t.Fatalf("Expected 5 rows, got %d", f.Len())
	}
	for j, name := range b.Names() {
		if f.Columns[j] != name {
			t.Errorf("Column %d = %s, want %s", j, f.Columns[j], name)
		}
	}

	col, ok := f.Column("exc")
	if !ok {
		t.Fatal("Expected exc column")
	}
	values := b.Values("exc")
	for i := range col {
		if col[i] != values[i] {
			t.Errorf("exc[%d] = %f, want %f", i, col[i], values[i])
		}
	}

	if _, ok := f.Column("missing"); ok {
		t.Error("Unexpected column")
	}
}

func TestFrame_WriteCSV(t *testing.T) {
	b := testBatch(t, 3)
	f := b.ToFrame()

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read csv back: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d records", len(records))
	}
	if records[0][1] != "cp" || records[0][4] != "lr" {
		t.Errorf("Unexpected header: %v", records[0])
	}

	got, err := strconv.ParseFloat(records[2][3], 64)
	if err != nil {
		t.Fatalf("Failed to parse value: %v", err)
	}
	if got != f.Rows[1][2] {
		t.Errorf("CSV value %g differs from frame value %g", got, f.Rows[1][2])
	}
}
