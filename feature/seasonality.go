package feature

import (
	"fmt"
	"math"
	"strconv"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// MonthsPerYear is the period of the cyclical month encoding
const MonthsPerYear = 12.0

// Seasonality is a fourier component of a periodic calendar quantity so that values on
// either side of the period boundary, e.g. December and January, stay numerically close.
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
	Period      float64     `json:"period"`
}

func NewSeasonality(name string, fcomp FourierComp, order int, period float64) *Seasonality {
	return &Seasonality{name, fcomp, order, period}
}

// String returns the column name used by the model, e.g. month_sin. Higher orders carry
// the order in the name.
func (s Seasonality) String() string {
	if s.Order <= 1 {
		return fmt.Sprintf("%s_%s", s.Name, s.FourierComp)
	}
	return fmt.Sprintf("%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = s.Name
	res["fourier_component"] = string(s.FourierComp)
	res["order"] = strconv.Itoa(s.Order)
	res["period"] = strconv.FormatFloat(s.Period, 'f', -1, 64)
	return res
}

// Value computes the fourier component for a single position within the period
func (s Seasonality) Value(x float64) float64 {
	rad := 2.0 * math.Pi * float64(s.Order) * x / s.Period
	if s.FourierComp == FourierCompCos {
		return math.Cos(rad)
	}
	return math.Sin(rad)
}
