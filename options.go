package demand

import (
	"github.com/aouyang1/go-demand/holiday"
)

const (
	DefaultDecimals      = 2
	DefaultEvalPlotLimit = 500
)

// Options configures a Predictor
type Options struct {
	// Calendar annotates forecast rows with holiday names. A nil calendar annotates nothing.
	Calendar *holiday.Calendar

	// Decimals is the number of decimal places single day predictions are rounded to
	Decimals int
}

func NewDefaultOptions() *Options {
	return &Options{
		Decimals: DefaultDecimals,
	}
}

// Validate fills in defaults for unset or invalid values and returns the options to use
func (o *Options) Validate() *Options {
	if o == nil {
		return NewDefaultOptions()
	}
	opt := *o
	if opt.Decimals < 0 {
		opt.Decimals = DefaultDecimals
	}
	return &opt
}
