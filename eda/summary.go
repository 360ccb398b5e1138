package eda

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/aouyang1/go-demand/dataset"
)

// Summary describes the numeric columns of the dataset with gota. Rows without sales are
// left out when the dataset has any labeled rows.
func Summary(ds *dataset.Dataset) (*Table, error) {
	if ds.Len() == 0 {
		return nil, ErrNoData
	}
	src := ds.Labeled()
	if src.Len() == 0 {
		src = ds
	}

	df := src.DataFrame().Select([]string{dataset.ColStore, dataset.ColItem, dataset.ColSales})
	if df.Err != nil {
		return nil, df.Err
	}
	desc := df.Describe()
	if desc.Err != nil {
		return nil, desc.Err
	}
	return newTable(desc.Records()), nil
}

// Missing is the count of absent values in a column
type Missing struct {
	Column  string  `json:"column"`
	Count   int     `json:"missing_count"`
	Percent float64 `json:"missing_percent"`
}

// MissingValues reports the columns with at least one missing value, most missing first.
// Date, store and item are required when loading so only sales can be absent.
func MissingValues(ds *dataset.Dataset) []Missing {
	if ds.Len() == 0 {
		return nil
	}

	var count int
	for _, o := range ds.Observations {
		if math.IsNaN(o.Sales) {
			count++
		}
	}

	var res []Missing
	if count > 0 {
		res = append(res, Missing{
			Column:  dataset.ColSales,
			Count:   count,
			Percent: 100.0 * float64(count) / float64(ds.Len()),
		})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Count > res[j].Count
	})
	return res
}

// Sample returns up to maxRows observations chosen at random with the seeded source,
// ordered by date. Datasets no larger than maxRows are returned whole.
func Sample(ds *dataset.Dataset, maxRows int, seed uint64) *dataset.Dataset {
	if ds.Len() <= maxRows || maxRows < 0 {
		return ds.SortByDate()
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	idx := rng.Perm(ds.Len())[:maxRows]
	sort.Ints(idx)

	sampled := ds.Filter(dataset.Filter{})
	sampled.Observations = sampled.Observations[:0]
	for _, i := range idx {
		sampled.Observations = append(sampled.Observations, ds.Observations[i])
	}
	return sampled.SortByDate()
}
