// Package demand predicts daily store and item sales from a pre-trained gradient boosted
// tree model. A Predictor derives the feature vector for each request, scores it against
// the model, and builds single day predictions, multi day forecasts and evaluations.
package demand

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-demand/booster"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/feature"
)

var (
	ErrNoModel          = errors.New("no model provided")
	ErrFeatureMismatch  = feature.ErrFeatureMismatch
	ErrNoEvaluationData = errors.New("no observations with sales to evaluate")
	ErrNoPrediction     = errors.New("model returned no prediction")
)

// Predictor scores store and item sales against a loaded model. The model is treated as
// read-only so a Predictor may be shared across goroutines.
type Predictor struct {
	opt   *Options
	model booster.Model
}

// New creates a Predictor around a loaded model, verifying the model was trained on the
// same features in the same order as the feature contract. If no options are provided a
// default is used.
func New(model booster.Model, opt *Options) (*Predictor, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if n := model.NumFeatures(); n != feature.Contract.Len() {
		return nil, fmt.Errorf("model expects %d features, but the contract has %d, %w", n, feature.Contract.Len(), ErrFeatureMismatch)
	}
	// models trained without named columns only carry a feature count
	if names := model.FeatureNames(); names != nil {
		if err := feature.Contract.Check(names); err != nil {
			return nil, fmt.Errorf("model feature names do not match, %w", err)
		}
	}

	return &Predictor{
		opt:   opt.Validate(),
		model: model,
	}, nil
}

// Model returns the underlying scoring model
func (p *Predictor) Model() booster.Model {
	return p.model
}

func (p *Predictor) predict(vecs []feature.Vector) ([]float64, error) {
	res, err := p.model.Predict(feature.Matrix(vecs))
	if err != nil {
		return nil, fmt.Errorf("unable to score features, %w", err)
	}
	if len(res) != len(vecs) {
		return nil, fmt.Errorf("expected %d predictions, but got %d, %w", len(vecs), len(res), ErrNoPrediction)
	}
	return res, nil
}

// PredictDay predicts sales for a single store, item and date rounded to the configured
// number of decimals
func (p *Predictor) PredictDay(store, item int, date time.Time) (float64, error) {
	vec, err := feature.DeriveOne(store, item, date)
	if err != nil {
		return 0, err
	}
	res, err := p.predict([]feature.Vector{vec})
	if err != nil {
		return 0, err
	}
	return round(res[0], p.opt.Decimals), nil
}

// Forecast predicts sales for each of the days following start. Row i is dated
// start + i + 1 days.
func (p *Predictor) Forecast(store, item int, start time.Time, days int) (*Results, error) {
	dates, err := dataset.Horizon(start, days)
	if err != nil {
		return nil, err
	}

	obs := make([]dataset.Observation, len(dates))
	for i, d := range dates {
		obs[i] = dataset.NewObservation(store, item, d)
	}
	vecs, err := feature.Derive(obs)
	if err != nil {
		return nil, err
	}
	preds, err := p.predict(vecs)
	if err != nil {
		return nil, err
	}

	res := &Results{
		Store: store,
		Item:  item,
		Start: dataset.Civil(start),
		Rows:  make([]ForecastRow, len(dates)),
	}
	for i, d := range dates {
		row := ForecastRow{
			Date:      d,
			Vector:    vecs[i],
			Predicted: preds[i],
		}
		if name, found := p.opt.Calendar.Lookup(d); found {
			row.Holiday = name
		}
		res.Rows[i] = row
	}
	return res, nil
}

// Evaluate scores the model against every observation in the dataset carrying a sales
// value. Observations without sales are skipped.
func (p *Predictor) Evaluate(ds *dataset.Dataset) (*Evaluation, error) {
	if ds.Len() == 0 {
		return nil, ErrNoEvaluationData
	}
	labeled := ds.Labeled()
	if labeled.Len() == 0 {
		return nil, ErrNoEvaluationData
	}
	if skipped := ds.Len() - labeled.Len(); skipped > 0 {
		slog.Debug("skipping observations without sales", "skipped", skipped, "evaluated", labeled.Len())
	}

	vecs, err := feature.Derive(labeled.Observations)
	if err != nil {
		return nil, err
	}
	preds, err := p.predict(vecs)
	if err != nil {
		return nil, err
	}
	actual := labeled.Sales()

	scores, err := NewScores(preds, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to score evaluation, %w", err)
	}
	return &Evaluation{
		T:         labeled.Dates(),
		Actual:    actual,
		Predicted: preds,
		Scores:    scores,
	}, nil
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
