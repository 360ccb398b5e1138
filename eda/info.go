package eda

import (
	"errors"
	"math"
	"time"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/stats"
)

// Info is the basic shape of a dataset
type Info struct {
	Rows          int               `json:"rows"`
	Columns       []string          `json:"columns"`
	DTypes        map[string]string `json:"dtypes"`
	Start         time.Time         `json:"start_date"`
	End           time.Time         `json:"end_date"`
	Frequency     string            `json:"frequency"`
	Stores        int               `json:"n_stores"`
	Items         int               `json:"n_items"`
	MissingSales  int               `json:"missing_sales"`
	SalesOutliers int               `json:"sales_outliers"`
}

// NewInfo summarizes the dataset shape. Sales outliers use Tukey fences of 1.5 times the
// interquartile range.
func NewInfo(ds *dataset.Dataset) (*Info, error) {
	if ds.Len() == 0 {
		return nil, ErrNoData
	}

	dates := ds.Dates()
	sales := ds.Sales()

	var missing int
	for _, v := range sales {
		if math.IsNaN(v) {
			missing++
		}
	}

	freq := "unknown"
	interval, err := dates.EstimateFreq()
	switch {
	case err == nil:
		freq = frequencyName(interval)
	case !errors.Is(err, dataset.ErrCannotInferFreq):
		return nil, err
	}

	return &Info{
		Rows:    ds.Len(),
		Columns: ds.Columns(),
		DTypes: map[string]string{
			dataset.ColDate:  "date",
			dataset.ColStore: "int",
			dataset.ColItem:  "int",
			dataset.ColSales: "float",
		},
		Start:         dates.Start(),
		End:           dates.End(),
		Frequency:     freq,
		Stores:        len(ds.Stores()),
		Items:         len(ds.Items()),
		MissingSales:  missing,
		SalesOutliers: len(stats.DetectOutliers(sales, 0.25, 0.75, 1.5)),
	}, nil
}

func frequencyName(d time.Duration) string {
	switch d {
	case 24 * time.Hour:
		return "D"
	case 7 * 24 * time.Hour:
		return "W"
	default:
		return d.String()
	}
}
