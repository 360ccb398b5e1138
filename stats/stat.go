// Package stats holds the aggregate statistics behind exploratory analysis of a sales
// dataset.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrMinimumFeatures    = errors.New("need at least 2 features to compute VIF")
	ErrFeatureLenMismatch = errors.New("some feature length is not consistent")
	ErrFeatureLen         = errors.New("must have at least 2 points per feature")
	ErrNoValues           = errors.New("no values to aggregate")
	ErrKeyLenMismatch     = errors.New("keys and values have different lengths")
)

// DetectOutliers returns the indices of values outside the percentile range expanded by
// the tukey factor. Quartiles with a factor of 1.5 give the classic Tukey fences. NaNs are
// never outliers.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			yCopy = append(yCopy, v)
		}
	}
	if len(yCopy) == 0 {
		return nil
	}
	sort.Float64s(yCopy)

	lower := stat.Quantile(lowerPerc, stat.LinInterp, yCopy, nil)
	upper := stat.Quantile(upperPerc, stat.LinInterp, yCopy, nil)
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// VarianceInflationFactor regresses each feature on all others and reports 1/(1-R²).
// Perfectly collinear features report +Inf.
func VarianceInflationFactor(features map[string][]float64) (map[string]float64, error) {
	if len(features) < 2 {
		return nil, ErrMinimumFeatures
	}
	n := len(features)
	var m int
	for _, feature := range features {
		if len(feature) < 2 {
			return nil, ErrFeatureLen
		}
		if m == 0 {
			m = len(feature)
			continue
		}
		if m != len(feature) {
			return nil, ErrFeatureLenMismatch
		}
	}

	labels := make([]string, 0, n)
	for label := range features {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	vif := make(map[string]float64, n)
	x := mat.NewDense(m, n, nil)

	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	x.SetCol(0, ones)

	for _, label := range labels {
		labelFeature := features[label]
		c := 1
		for _, otherLabel := range labels {
			if otherLabel == label {
				continue
			}
			x.SetCol(c, features[otherLabel])
			c++
		}

		var weights mat.VecDense
		if err := weights.SolveVec(x, mat.NewVecDense(m, labelFeature)); err != nil {
			vif[label] = math.Inf(1)
			continue
		}
		var predictedVec mat.VecDense
		predictedVec.MulVec(x, &weights)
		predicted := mat.Col(nil, 0, &predictedVec)

		r2 := stat.RSquaredFrom(predicted, labelFeature, nil)
		if math.IsNaN(r2) || r2 >= 1.0 {
			vif[label] = math.Inf(1)
			continue
		}
		vif[label] = 1.0 / (1.0 - r2)
	}
	return vif, nil
}
