// Package booster loads pre-trained gradient boosted tree ensembles and scores feature
// matrices against them. Models are read-only after loading and safe for concurrent use.
package booster

import (
	"gonum.org/v1/gonum/mat"
)

// Model is an opaque scoring function mapping each feature row to a single prediction
type Model interface {
	Predict(x mat.Matrix) ([]float64, error)
	NumFeatures() int
	FeatureNames() []string
}
