package feature

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-demand/dataset"
	"gonum.org/v1/gonum/mat"
)

// Contract is the ordered feature set consumed by the demand model. Training, prediction
// and evaluation must all agree on this order.
var Contract = NewLabels([]Feature{
	NewIdentifier(IdentifierStore),
	NewIdentifier(IdentifierItem),
	NewTime(TimeYear),
	NewTime(TimeMonth),
	NewTime(TimeDayOfWeek),
	NewSeasonality(TimeMonth, FourierCompSin, 1, MonthsPerYear),
	NewSeasonality(TimeMonth, FourierCompCos, 1, MonthsPerYear),
})

// Vector is the feature vector for a single observation
type Vector struct {
	Store     int     `json:"store"`
	Item      int     `json:"item"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	DayOfWeek int     `json:"dayofweek"`
	MonthSin  float64 `json:"month_sin"`
	MonthCos  float64 `json:"month_cos"`
}

// Value returns the numeric value of a single contract feature
func (v Vector) Value(f Feature) (float64, error) {
	idx, exists := Contract.Index(f)
	if !exists {
		return 0, fmt.Errorf("%s, %w", f.String(), ErrUnknownFeature)
	}
	return v.Values()[idx], nil
}

// Values returns the feature values in contract order
func (v Vector) Values() []float64 {
	return []float64{
		float64(v.Store),
		float64(v.Item),
		float64(v.Year),
		float64(v.Month),
		float64(v.DayOfWeek),
		v.MonthSin,
		v.MonthCos,
	}
}

func vectorFromValues(vals []float64) Vector {
	return Vector{
		Store:     int(vals[0]),
		Item:      int(vals[1]),
		Year:      int(vals[2]),
		Month:     int(vals[3]),
		DayOfWeek: int(vals[4]),
		MonthSin:  vals[5],
		MonthCos:  vals[6],
	}
}

// featureValue computes a single feature for a store, item and date. Seasonality
// features take their position within the period from the calendar field of the same
// name.
func featureValue(f Feature, store, item int, date time.Time) (float64, error) {
	switch feat := f.(type) {
	case *Identifier:
		v, err := feat.Value(store, item)
		return float64(v), err
	case *Time:
		v, err := feat.Value(date)
		return float64(v), err
	case *Seasonality:
		pos, err := NewTime(feat.Name).Value(date)
		if err != nil {
			return 0, err
		}
		return feat.Value(float64(pos)), nil
	}
	return 0, fmt.Errorf("%s, %w", f.String(), ErrUnknownFeature)
}

// DeriveOne computes the feature vector of a store, item and date
func DeriveOne(store, item int, date time.Time) (Vector, error) {
	if date.IsZero() {
		return Vector{}, fmt.Errorf("missing date, %w", ErrInvalidInput)
	}
	labels := Contract.Labels()
	vals := make([]float64, len(labels))
	for i, label := range labels {
		v, err := featureValue(label, store, item, date)
		if err != nil {
			return Vector{}, err
		}
		vals[i] = v
	}
	return vectorFromValues(vals), nil
}

// DeriveRaw parses the date text before deriving the feature vector. Unparseable dates
// match both ErrInvalidInput and dataset.ErrInvalidDate.
func DeriveRaw(store, item int, date string) (Vector, error) {
	d, err := dataset.ParseDate(date)
	if err != nil {
		return Vector{}, fmt.Errorf("%w, %w", ErrInvalidInput, err)
	}
	return DeriveOne(store, item, d)
}

// Derive computes one feature vector per observation keeping the input order. Store and
// item pass through unchanged.
func Derive(obs []dataset.Observation) ([]Vector, error) {
	vecs := make([]Vector, len(obs))
	for i, o := range obs {
		v, err := DeriveOne(o.Store, o.Item, o.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d, %w", i, err)
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Matrix returns the model input with one row per vector and one column per contract
// feature.
func Matrix(vecs []Vector) *mat.Dense {
	n := Contract.Len()
	if len(vecs) == 0 {
		return nil
	}
	obs := make([]float64, 0, len(vecs)*n)
	for _, v := range vecs {
		obs = append(obs, v.Values()...)
	}
	return mat.NewDense(len(vecs), n, obs)
}

// Columns returns the vectors as a column Set in contract order
func Columns(vecs []Vector) *Set {
	labels := Contract.Labels()
	cols := make([][]float64, len(labels))
	for j := range cols {
		cols[j] = make([]float64, len(vecs))
	}
	for i, v := range vecs {
		for j, val := range v.Values() {
			cols[j][i] = val
		}
	}
	s := NewSet()
	for j, label := range labels {
		s.Set(label, cols[j])
	}
	return s
}
