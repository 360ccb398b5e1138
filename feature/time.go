package feature

import (
	"fmt"
	"time"
)

const (
	TimeYear      = "year"
	TimeMonth     = "month"
	TimeDayOfWeek = "dayofweek"
)

// Time is a calendar field extracted from the observation date
type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return t.Name
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = t.Name
	return res
}

// Value extracts the calendar field from a single date
func (t Time) Value(d time.Time) (int, error) {
	switch t.Name {
	case TimeYear:
		return d.Year(), nil
	case TimeMonth:
		return int(d.Month()), nil
	case TimeDayOfWeek:
		return DayOfWeek(d), nil
	}
	return 0, fmt.Errorf("%s, %w", t.Name, ErrUnknownTimeFeature)
}

// DayOfWeek returns the weekday with Monday as 0 and Sunday as 6
func DayOfWeek(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
