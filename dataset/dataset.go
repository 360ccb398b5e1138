// Package dataset holds the typed store/item sales observations along with loaders for
// the tabular files they are read from.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrNoData            = errors.New("no observations")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidValue      = errors.New("invalid column value")
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// DateLayout is the canonical calendar date representation used for output.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// Observation is a single store/item sales record for one calendar day. Sales is NaN
// when the value is absent, e.g. for rows that are yet to be forecasted.
type Observation struct {
	Date  time.Time
	Store int
	Item  int
	Sales float64
}

// NewObservation returns an observation without a sales value
func NewObservation(store, item int, date time.Time) Observation {
	return Observation{
		Date:  Civil(date),
		Store: store,
		Item:  item,
		Sales: math.NaN(),
	}
}

// HasSales reports whether the observation carries a sales value
func (o Observation) HasSales() bool {
	return !math.IsNaN(o.Sales)
}

type observationJSON struct {
	Date  string   `json:"date"`
	Store int      `json:"store"`
	Item  int      `json:"item"`
	Sales *float64 `json:"sales"`
}

func (o Observation) MarshalJSON() ([]byte, error) {
	out := observationJSON{
		Date:  o.Date.Format(DateLayout),
		Store: o.Store,
		Item:  o.Item,
	}
	if o.HasSales() {
		sales := o.Sales
		out.Sales = &sales
	}
	return json.Marshal(out)
}

func (o *Observation) UnmarshalJSON(data []byte) error {
	var in observationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return err
	}
	o.Date = date
	o.Store = in.Store
	o.Item = in.Item
	o.Sales = math.NaN()
	if in.Sales != nil {
		o.Sales = *in.Sales
	}
	return nil
}

// Civil truncates a time to its calendar date at UTC midnight
func Civil(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in one of the supported layouts and returns it at
// UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date, %w", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse %q, %w", s, ErrInvalidDate)
}

// Dataset is an ordered collection of observations
type Dataset struct {
	Observations []Observation
	columns      []string
}

// New returns a Dataset holding a copy of the input observations
func New(obs []Observation) (*Dataset, error) {
	if len(obs) == 0 {
		return nil, ErrNoData
	}
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return &Dataset{
		Observations: cp,
		columns:      []string{"date", "store", "item", "sales"},
	}, nil
}

func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Observations)
}

// observations returns the records of a possibly nil dataset
func (ds *Dataset) observations() []Observation {
	if ds == nil {
		return nil
	}
	return ds.Observations
}

// Columns returns the column names of the source the dataset was loaded from
func (ds *Dataset) Columns() []string {
	if ds == nil {
		return nil
	}
	return slices.Clone(ds.columns)
}

// Copy returns a deep copy. A nil dataset copies to an empty one.
func (ds *Dataset) Copy() *Dataset {
	obs := make([]Observation, ds.Len())
	copy(obs, ds.observations())
	return &Dataset{
		Observations: obs,
		columns:      ds.Columns(),
	}
}

// Dates returns the date of every observation in dataset order
func (ds *Dataset) Dates() DateSlice {
	t := make(DateSlice, ds.Len())
	for i, o := range ds.observations() {
		t[i] = o.Date
	}
	return t
}

// Sales returns the sales of every observation in dataset order with NaN for absent values
func (ds *Dataset) Sales() []float64 {
	y := make([]float64, ds.Len())
	for i, o := range ds.observations() {
		y[i] = o.Sales
	}
	return y
}

// Stores returns the sorted unique store ids
func (ds *Dataset) Stores() []int {
	return ds.unique(func(o Observation) int { return o.Store })
}

// Items returns the sorted unique item ids
func (ds *Dataset) Items() []int {
	return ds.unique(func(o Observation) int { return o.Item })
}

func (ds *Dataset) unique(key func(Observation) int) []int {
	seen := make(map[int]struct{})
	for _, o := range ds.observations() {
		seen[key(o)] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Filter restricts observations to a store and/or item. A zero value matches any id.
type Filter struct {
	Store int `form:"store" json:"store"`
	Item  int `form:"item" json:"item"`
}

func (f Filter) Match(o Observation) bool {
	if f.Store != 0 && o.Store != f.Store {
		return false
	}
	if f.Item != 0 && o.Item != f.Item {
		return false
	}
	return true
}

// Filter returns a new dataset with the observations matching the filter. The result
// may be empty.
func (ds *Dataset) Filter(f Filter) *Dataset {
	obs := make([]Observation, 0, ds.Len())
	for _, o := range ds.observations() {
		if f.Match(o) {
			obs = append(obs, o)
		}
	}
	return &Dataset{Observations: obs, columns: ds.Columns()}
}

// Labeled returns a new dataset containing only observations with a sales value
func (ds *Dataset) Labeled() *Dataset {
	obs := make([]Observation, 0, ds.Len())
	for _, o := range ds.observations() {
		if o.HasSales() {
			obs = append(obs, o)
		}
	}
	return &Dataset{Observations: obs, columns: ds.Columns()}
}

// SortByDate returns a copy sorted by date, keeping the original relative order of
// observations on the same day.
func (ds *Dataset) SortByDate() *Dataset {
	sorted := ds.Copy()
	sort.SliceStable(sorted.Observations, func(i, j int) bool {
		return sorted.Observations[i].Date.Before(sorted.Observations[j].Date)
	})
	return sorted
}
