package dataset

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

var ErrInvalidSimulation = errors.New("simulation needs at least one store, item and day")

// SimulateOptions configures a synthetic store/item daily sales dataset with weekly and
// yearly seasonality plus gaussian noise.
type SimulateOptions struct {
	Stores int
	Items  int
	Start  time.Time
	Days   int

	Base       float64
	WeeklyAmp  float64
	YearlyAmp  float64
	NoiseScale float64
	Seed       uint64
}

func NewDefaultSimulateOptions() *SimulateOptions {
	return &SimulateOptions{
		Stores:     2,
		Items:      3,
		Start:      time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:       365,
		Base:       20.0,
		WeeklyAmp:  5.0,
		YearlyAmp:  8.0,
		NoiseScale: 2.0,
		Seed:       42,
	}
}

// Simulate generates observations ordered by store, item and then date, matching the
// layout of the store item demand csv.
func Simulate(opt *SimulateOptions) (*Dataset, error) {
	if opt == nil {
		opt = NewDefaultSimulateOptions()
	}
	if opt.Stores < 1 || opt.Items < 1 || opt.Days < 1 {
		return nil, ErrInvalidSimulation
	}

	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	start := Civil(opt.Start)

	obs := make([]Observation, 0, opt.Stores*opt.Items*opt.Days)
	for store := 1; store <= opt.Stores; store++ {
		storeScale := 1.0 + 0.1*float64(store-1)
		for item := 1; item <= opt.Items; item++ {
			itemScale := 1.0 + 0.05*float64(item-1)
			for d := 0; d < opt.Days; d++ {
				date := start.AddDate(0, 0, d)
				dow := float64((int(date.Weekday()) + 6) % 7)
				doy := float64(date.YearDay())

				y := opt.Base * storeScale * itemScale
				y += opt.WeeklyAmp * math.Sin(2.0*math.Pi*dow/7.0)
				y += opt.YearlyAmp * math.Sin(2.0*math.Pi*doy/365.25)
				y += rng.NormFloat64() * opt.NoiseScale
				obs = append(obs, Observation{
					Date:  date,
					Store: store,
					Item:  item,
					Sales: math.Max(0, math.Round(y)),
				})
			}
		}
	}
	return New(obs)
}
