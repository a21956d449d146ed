// Package data defines the column store plots read their numbers from.
package data

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gpuplot/axis"
)

// ErrMissingColumn is returned when a requested column does not exist.
var ErrMissingColumn = errors.New("data: missing column")

// Source is an opaque column store.
type Source interface {
	// Columns returns the column names.
	Columns() []string

	// Data returns a column as a flat float32 buffer.
	Data(name string) ([]float32, error)

	// QuantityKind returns the quantity kind of a column, or "" if unknown.
	QuantityKind(name string) string

	// Domain returns a declared domain for a column, if the source has one.
	Domain(name string) (axis.Domain, bool)
}

// Column is one named column of a Table.
type Column struct {
	Name         string
	QuantityKind string
	Values       []float32

	// Domain, when non-nil, is reported instead of scanning Values.
	Domain *axis.Domain
}

// Table is an in-memory Source.
type Table struct {
	cols map[string]*Column
}

// NewTable builds a table from columns. Column names must be unique.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{cols: make(map[string]*Column, len(cols))}
	for i := range cols {
		if err := t.Add(cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add inserts a column.
func (t *Table) Add(c Column) error {
	if c.Name == "" {
		return fmt.Errorf("data: column has empty name")
	}
	if _, ok := t.cols[c.Name]; ok {
		return fmt.Errorf("data: duplicate column %q", c.Name)
	}
	t.cols[c.Name] = &c
	return nil
}

// Columns implements Source.
func (t *Table) Columns() []string {
	names := make([]string, 0, len(t.cols))
	for n := range t.cols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Data implements Source.
func (t *Table) Data(name string) ([]float32, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return c.Values, nil
}

// QuantityKind implements Source. Columns without a quantity kind report their name.
func (t *Table) QuantityKind(name string) string {
	c, ok := t.cols[name]
	if !ok {
		return ""
	}
	if c.QuantityKind == "" {
		return c.Name
	}
	return c.QuantityKind
}

// Domain implements Source.
func (t *Table) Domain(name string) (axis.Domain, bool) {
	c, ok := t.cols[name]
	if !ok || c.Domain == nil {
		return axis.Domain{}, false
	}
	return *c.Domain, true
}
