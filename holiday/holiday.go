// Package holiday annotates civil dates with public holiday names
package holiday

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

const (
	CalendarUS   = "us"
	CalendarNone = "none"
)

var (
	ErrUnknownCalendar = errors.New("unknown holiday calendar")
	ErrStartAfterEnd   = errors.New("holiday span start is after end")
)

// Holiday is a single observed holiday date
type Holiday struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Calendar looks up holidays by date. The zero value and the none calendar report no
// holidays.
type Calendar struct {
	name     string
	holidays []*cal.Holiday
	bc       *cal.BusinessCalendar
}

// New returns the named holiday calendar, an empty name is treated as none
func New(name string) (*Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CalendarUS:
		bc := cal.NewBusinessCalendar()
		bc.AddHoliday(us.Holidays...)
		return &Calendar{name: CalendarUS, holidays: us.Holidays, bc: bc}, nil
	case CalendarNone, "":
		return &Calendar{name: CalendarNone}, nil
	default:
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownCalendar)
	}
}

func (c *Calendar) Name() string {
	if c == nil || c.name == "" {
		return CalendarNone
	}
	return c.name
}

// Lookup returns the holiday name for the civil date of t. Both the actual date and the
// observed date of a holiday match.
func (c *Calendar) Lookup(t time.Time) (string, bool) {
	if c == nil || c.bc == nil || t.IsZero() {
		return "", false
	}
	actual, observed, h := c.bc.IsHoliday(t)
	if h == nil || (!actual && !observed) {
		return "", false
	}
	return h.Name, true
}

// Between lists every observed holiday within [start, end] in date order
func (c *Calendar) Between(start, end time.Time) ([]Holiday, error) {
	if start.After(end) {
		return nil, ErrStartAfterEnd
	}
	if c == nil || c.bc == nil {
		return nil, nil
	}

	var res []Holiday
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range c.holidays {
			_, observed := h.Calc(year)
			if observed.IsZero() {
				continue
			}
			date := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, start.Location())
			if date.Before(start) || date.After(end) {
				continue
			}
			res = append(res, Holiday{Name: h.Name, Date: date})
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})
	return res, nil
}
