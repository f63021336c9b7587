// Package dataset provides the in-memory tabular structure the analysis
// pipeline reads from, plus CSV materialization for the executor.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Dataset is an ordered, named-column tabular dataset. The analysis
// pipeline only reads from it; mutation after construction is the
// caller's concern.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// New builds a dataset, validating that every row matches the column count.
func New(name string, columns []string, rows [][]string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset %q has no columns", name)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("dataset %q row %d has %d values, want %d", name, i, len(row), len(columns))
		}
	}
	return &Dataset{Name: name, Columns: columns, Rows: rows}, nil
}

// RowCount returns the number of data rows (header excluded).
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// WriteCSV writes the dataset with a header row to w.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range d.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the dataset to path, overwriting any existing file.
func (d *Dataset) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := d.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// FromCSVFile loads a dataset from a CSV file with a header row.
func FromCSVFile(name, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return FromCSV(name, f)
}

// FromCSV reads a header row plus data rows from r.
func FromCSV(name string, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}

	return New(name, header, rows)
}
