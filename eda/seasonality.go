package eda

import (
	"sort"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/feature"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/stats"
)

// SalesOverTime filters the dataset, orders it by date and keeps the first sampleN
// observations. A sampleN below 1 keeps DefaultSampleRows.
func SalesOverTime(ds *dataset.Dataset, f dataset.Filter, sampleN int) *dataset.Dataset {
	if sampleN < 1 {
		sampleN = DefaultSampleRows
	}
	res := ds.Filter(f).SortByDate()
	if res.Len() > sampleN {
		res.Observations = res.Observations[:sampleN]
	}
	return res
}

func groupBy(ds *dataset.Dataset, key func(dataset.Observation) int) ([]stats.Group, error) {
	if ds.Len() == 0 {
		return nil, ErrNoData
	}
	keys := make([]int, ds.Len())
	for i, o := range ds.Observations {
		keys[i] = key(o)
	}
	return stats.GroupBy(keys, ds.Sales())
}

// MonthlySeasonality averages sales by calendar month 1-12
func MonthlySeasonality(ds *dataset.Dataset) ([]stats.Group, error) {
	return groupBy(ds, func(o dataset.Observation) int {
		return int(o.Date.Month())
	})
}

// WeekdaySeasonality averages sales by day of week with Monday as 0
func WeekdaySeasonality(ds *dataset.Dataset) ([]stats.Group, error) {
	return groupBy(ds, func(o dataset.Observation) int {
		return feature.DayOfWeek(o.Date)
	})
}

// StoreTotals sums sales per store in store order
func StoreTotals(ds *dataset.Dataset) ([]stats.Group, error) {
	return groupBy(ds, func(o dataset.Observation) int {
		return o.Store
	})
}

// TopItems returns the n items with the largest total sales
func TopItems(ds *dataset.Dataset, n int) ([]stats.Group, error) {
	groups, err := groupBy(ds, func(o dataset.Observation) int {
		return o.Item
	})
	if err != nil {
		return nil, err
	}
	return stats.TopN(groups, n), nil
}

const NoHoliday = "none"

// HolidayEffect is the average sales across all days falling on one holiday
type HolidayEffect struct {
	Holiday   string  `json:"holiday"`
	Days      int     `json:"days"`
	MeanSales float64 `json:"mean_sales"`
}

// HolidayEffects averages sales by holiday name. Days on no holiday are reported under
// NoHoliday and listed first, the rest in descending mean sales.
func HolidayEffects(ds *dataset.Dataset, cal *holiday.Calendar) ([]HolidayEffect, error) {
	labeled := ds.Labeled()
	if labeled.Len() == 0 {
		return nil, ErrNoData
	}

	// holidays are keyed by an index into names since grouping works on ints
	names := []string{NoHoliday}
	nameIdx := map[string]int{NoHoliday: 0}
	keys := make([]int, labeled.Len())
	for i, o := range labeled.Observations {
		name, found := cal.Lookup(o.Date)
		if !found {
			continue
		}
		idx, exists := nameIdx[name]
		if !exists {
			idx = len(names)
			names = append(names, name)
			nameIdx[name] = idx
		}
		keys[i] = idx
	}

	groups, err := stats.GroupBy(keys, labeled.Sales())
	if err != nil {
		return nil, err
	}
	res := make([]HolidayEffect, len(groups))
	for i, g := range groups {
		res[i] = HolidayEffect{
			Holiday:   names[g.Key],
			Days:      g.Count,
			MeanSales: g.Mean,
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Holiday == NoHoliday || res[j].Holiday == NoHoliday {
			return res[i].Holiday == NoHoliday && res[j].Holiday != NoHoliday
		}
		return res[i].MeanSales > res[j].MeanSales
	})
	return res, nil
}
