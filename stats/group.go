package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Group is an aggregate over all values sharing a key
type Group struct {
	Key   int     `json:"key"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// GroupBy aggregates values by key skipping NaN values. Groups are returned in ascending
// key order.
func GroupBy(keys []int, values []float64) ([]Group, error) {
	if len(keys) != len(values) {
		return nil, ErrKeyLenMismatch
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, k := range keys {
		if math.IsNaN(values[i]) {
			continue
		}
		sums[k] += values[i]
		counts[k]++
	}
	if len(counts) == 0 {
		return nil, ErrNoValues
	}

	groups := make([]Group, 0, len(counts))
	for k, cnt := range counts {
		groups = append(groups, Group{
			Key:   k,
			Sum:   sums[k],
			Mean:  sums[k] / float64(cnt),
			Count: cnt,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

// TopN returns the n groups with the largest sums, ties broken by ascending key
func TopN(groups []Group, n int) []Group {
	res := make([]Group, len(groups))
	copy(res, groups)
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Sum == res[j].Sum {
			return res[i].Key < res[j].Key
		}
		return res[i].Sum > res[j].Sum
	})
	if n >= 0 && n < len(res) {
		res = res[:n]
	}
	return res
}

// Correlation is a labeled pearson correlation matrix
type Correlation struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// CorrelationMatrix computes pearson correlations between the columns of x. Columns with
// zero variance correlate as NaN.
func CorrelationMatrix(labels []string, x mat.Matrix) (*Correlation, error) {
	if x == nil {
		return nil, ErrNoValues
	}
	m, n := x.Dims()
	if n != len(labels) {
		return nil, ErrFeatureLenMismatch
	}
	if m < 2 {
		return nil, ErrFeatureLen
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)
	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			values[i][j] = corr.At(i, j)
		}
	}
	return &Correlation{Labels: labels, Values: values}, nil
}

// Summary holds describe style statistics of a numeric column
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Describe summarizes the non NaN values of y
func Describe(y []float64) (Summary, error) {
	vals := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return Summary{}, ErrNoValues
	}
	sort.Float64s(vals)

	mean, std := stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(vals),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(vals),
		Q1:     stat.Quantile(0.25, stat.LinInterp, vals, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, vals, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, vals, nil),
		Max:    floats.Max(vals),
	}, nil
}
