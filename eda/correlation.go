package eda

import (
	"maps"
	"math"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/feature"
	"github.com/aouyang1/go-demand/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Correlation computes pearson correlations between the derived model features and sales
// over the labeled observations. Correlations involving a constant column are undefined
// and reported as 0.
func Correlation(ds *dataset.Dataset) (*stats.Correlation, error) {
	labeled := ds.Labeled()
	if labeled.Len() == 0 {
		return nil, ErrNoData
	}

	vecs, err := feature.Derive(labeled.Observations)
	if err != nil {
		return nil, err
	}
	set := feature.Columns(vecs)
	features := set.Matrix()

	m, n := features.Dims()
	sales := mat.NewDense(m, 1, labeled.Sales())
	x := mat.NewDense(m, n+1, nil)
	x.Augment(features, sales)

	labels := append(set.Labels().Names(), dataset.ColSales)
	return correlate(labels, x)
}

// ColumnCorrelation computes pearson correlations between the raw numeric columns of the
// labeled observations: store, item and sales.
func ColumnCorrelation(ds *dataset.Dataset) (*stats.Correlation, error) {
	labeled := ds.Labeled()
	if labeled.Len() == 0 {
		return nil, ErrNoData
	}

	x := mat.NewDense(labeled.Len(), 3, nil)
	for i, o := range labeled.Observations {
		x.SetRow(i, []float64{float64(o.Store), float64(o.Item), o.Sales})
	}
	return correlate([]string{dataset.ColStore, dataset.ColItem, dataset.ColSales}, x)
}

// correlate reports undefined correlations of constant columns as 0
func correlate(labels []string, x mat.Matrix) (*stats.Correlation, error) {
	corr, err := stats.CorrelationMatrix(labels, x)
	if err != nil {
		return nil, err
	}
	for i := range corr.Values {
		for j, v := range corr.Values[i] {
			if math.IsNaN(v) {
				corr.Values[i][j] = 0
			}
		}
	}
	return corr, nil
}

// FeatureVIF reports the variance inflation factor of each derived model feature over the
// dataset. Constant features are left out of the regressions and report +Inf, as do
// perfectly collinear ones.
func FeatureVIF(ds *dataset.Dataset) (map[string]float64, error) {
	if ds.Len() == 0 {
		return nil, ErrNoData
	}
	vecs, err := feature.Derive(ds.Observations)
	if err != nil {
		return nil, err
	}
	set := feature.Columns(vecs)

	vif := make(map[string]float64, set.Len())
	for _, label := range set.Labels().Labels() {
		col, _ := set.Get(label)
		if floats.Max(col) == floats.Min(col) {
			set.Del(label)
			vif[label.String()] = math.Inf(1)
		}
	}

	features := make(map[string][]float64, set.Len())
	for _, label := range set.Labels().Labels() {
		col, _ := set.Get(label)
		features[label.String()] = col
	}
	if len(features) >= 2 {
		res, err := stats.VarianceInflationFactor(features)
		if err != nil {
			return nil, err
		}
		maps.Copy(vif, res)
	}
	for label := range features {
		if _, exists := vif[label]; !exists {
			vif[label] = 1.0
		}
	}
	return vif, nil
}
