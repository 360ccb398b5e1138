// Package feature derives the fixed model feature vector from store/item observations.
// The ordering and definition of every feature lives in Contract so that prediction,
// forecasting and evaluation all score the exact same inputs.
package feature

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownFeature     = errors.New("unknown feature")
	ErrUnknownTimeFeature = errors.New("unknown time feature")
	ErrFeatureMismatch    = errors.New("feature names do not match the feature contract")
)

type FeatureType int

const (
	FeatureTypeIdentifier FeatureType = iota
	FeatureTypeTime
	FeatureTypeSeasonality
)

func (t FeatureType) String() string {
	switch t {
	case FeatureTypeIdentifier:
		return "identifier"
	case FeatureTypeTime:
		return "time"
	case FeatureTypeSeasonality:
		return "seasonality"
	}
	return "unknown"
}

type Feature interface {
	String() string
	Type() FeatureType
	Decode() map[string]string
}
