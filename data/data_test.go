package data

import (
	"errors"
	"testing"

	"github.com/gogpu/gpuplot/axis"
)

func TestTable(t *testing.T) {
	tbl, err := NewTable(
		Column{Name: "x", QuantityKind: "time_s", Values: []float32{1, 2, 3}},
		Column{Name: "y", Values: []float32{4, 5, 6}, Domain: &axis.Domain{Min: 0, Max: 10}},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if got := tbl.Columns(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Columns = %v", got)
	}
	if got := tbl.QuantityKind("x"); got != "time_s" {
		t.Errorf("QuantityKind(x) = %q", got)
	}
	if got := tbl.QuantityKind("y"); got != "y" {
		t.Errorf("QuantityKind(y) = %q, want column name", got)
	}
	if d, ok := tbl.Domain("y"); !ok || d != (axis.Domain{Min: 0, Max: 10}) {
		t.Errorf("Domain(y) = %v, %v", d, ok)
	}
	if _, ok := tbl.Domain("x"); ok {
		t.Error("Domain(x) reported a declared domain")
	}
	if _, err := tbl.Data("z"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Data(z): err = %v, want ErrMissingColumn", err)
	}
}

func TestTableDuplicate(t *testing.T) {
	if _, err := NewTable(Column{Name: "a"}, Column{Name: "a"}); err == nil {
		t.Fatal("expected error for duplicate column")
	}
}
