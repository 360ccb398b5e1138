package demand

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoScorePairs   = errors.New("no predicted and actual pairs to score")
)

// Scores tracks the evaluation scores
type Scores struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	N    int     `json:"n"`
}

// NewScores calculates the evaluation scores given the predicted and actual input slice
// values. Pairs where either side is NaN are ignored.
func NewScores(predicted, actual []float64) (*Scores, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return nil, err
	}

	mae, err := MAE(p, a)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mse, err := MSE(p, a)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	rs, err := RSquared(p, a)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MAE:  mae,
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		R2:   rs,
		N:    len(p),
	}, nil
}

func validPairs(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	if len(predictCopy) == 0 {
		return nil, nil, ErrNoScorePairs
	}
	return predictCopy, actualCopy, nil
}

// MAE computes the mean absolute error, mean(abs(y-yhat)). A score of 0 means a perfect
// match with no errors.
func MAE(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return 0, err
	}

	mae := 0.0
	for i := 0; i < len(a); i++ {
		mae += math.Abs(a[i] - p[i])
	}
	return mae / float64(len(a)), nil
}

// MSE computes the mean squared error, mean((y-yhat)^2). A score of 0 means a perfect
// match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return 0, err
	}

	mse := 0.0
	for i := 0; i < len(a); i++ {
		mse += math.Pow(a[i]-p[i], 2.0)
	}
	return mse / float64(len(a)), nil
}

// RSquared computes the coefficient of determination 1 - SSres/SStot where 1.0 means a
// perfect fit. A constant actual series matched exactly scores 1.0.
func RSquared(predicted, actual []float64) (float64, error) {
	p, a, err := validPairs(predicted, actual)
	if err != nil {
		return 0, err
	}

	r2 := stat.RSquaredFrom(p, a, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		mse, _ := MSE(p, a)
		if mse == 0 {
			return 1.0, nil
		}
		return 0.0, nil
	}
	return r2, nil
}
