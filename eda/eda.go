// Package eda computes the exploratory views of a sales dataset: basic info, summary
// statistics, missing values, seasonality, distributions and correlation, along with an
// echarts dashboard rendering them.
package eda

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	DefaultSampleRows = 5000
	DefaultSampleSeed = 42
	DefaultTopItems   = 20
)

var ErrNoData = errors.New("no observations to analyze")

// Table is a rendered text table, the first row of records holds the header
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func newTable(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	return &Table{Header: records[0], Rows: records[1:]}
}

func (t *Table) TablePrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Header, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
