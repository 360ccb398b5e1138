package eda

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// testDataset has two stores and two items over 2024-01-01 (Monday) to 2024-01-03
// with one absent sales value
func testDataset(t *testing.T) *dataset.Dataset {
	ds, err := dataset.New([]dataset.Observation{
		{Date: day(2024, 1, 3), Store: 1, Item: 1, Sales: 30},
		{Date: day(2024, 1, 1), Store: 1, Item: 1, Sales: 10},
		{Date: day(2024, 1, 2), Store: 1, Item: 1, Sales: 20},
		{Date: day(2024, 1, 1), Store: 2, Item: 2, Sales: 40},
		{Date: day(2024, 1, 2), Store: 2, Item: 2, Sales: math.NaN()},
		{Date: day(2024, 2, 5), Store: 2, Item: 1, Sales: 60},
	})
	require.Nil(t, err)
	return ds
}

func simulated(t *testing.T, days int) *dataset.Dataset {
	opt := dataset.NewDefaultSimulateOptions()
	opt.Days = days
	ds, err := dataset.Simulate(opt)
	require.Nil(t, err)
	return ds
}

func TestNewInfo(t *testing.T) {
	info, err := NewInfo(testDataset(t))
	require.Nil(t, err)

	assert.Equal(t, 6, info.Rows)
	assert.Equal(t, []string{"date", "store", "item", "sales"}, info.Columns)
	assert.Equal(t, "int", info.DTypes["store"])
	assert.Equal(t, day(2024, 1, 1), info.Start)
	assert.Equal(t, day(2024, 2, 5), info.End)
	assert.Equal(t, "D", info.Frequency)
	assert.Equal(t, 2, info.Stores)
	assert.Equal(t, 2, info.Items)
	assert.Equal(t, 1, info.MissingSales)

	_, err = NewInfo(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewInfoSingleDate(t *testing.T) {
	ds, err := dataset.New([]dataset.Observation{{Date: day(2024, 1, 1), Store: 1, Item: 1, Sales: 3}})
	require.Nil(t, err)

	info, err := NewInfo(ds)
	require.Nil(t, err)
	assert.Equal(t, "unknown", info.Frequency)
}

func TestFrequencyName(t *testing.T) {
	assert.Equal(t, "D", frequencyName(24*time.Hour))
	assert.Equal(t, "W", frequencyName(7*24*time.Hour))
	assert.Equal(t, "1h0m0s", frequencyName(time.Hour))
}

func TestSummary(t *testing.T) {
	table, err := Summary(testDataset(t))
	require.Nil(t, err)

	require.Len(t, table.Header, 4)
	assert.Equal(t, []string{"store", "item", "sales"}, table.Header[1:])
	require.NotEmpty(t, table.Rows)
	assert.Equal(t, "mean", table.Rows[0][0])

	var buf bytes.Buffer
	require.Nil(t, table.TablePrint(&buf))
	assert.Contains(t, buf.String(), "sales")

	_, err = Summary(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMissingValues(t *testing.T) {
	res := MissingValues(testDataset(t))
	require.Len(t, res, 1)
	assert.Equal(t, "sales", res[0].Column)
	assert.Equal(t, 1, res[0].Count)
	assert.InDelta(t, 100.0/6.0, res[0].Percent, 1e-9)

	assert.Empty(t, MissingValues(simulated(t, 7)))
	assert.Nil(t, MissingValues(nil))
}

func TestSample(t *testing.T) {
	ds := simulated(t, 30)

	sample := Sample(ds, 50, DefaultSampleSeed)
	require.Equal(t, 50, sample.Len())
	for i := 1; i < sample.Len(); i++ {
		assert.False(t, sample.Observations[i].Date.Before(sample.Observations[i-1].Date))
	}

	again := Sample(ds, 50, DefaultSampleSeed)
	assert.Equal(t, sample.Observations, again.Observations)

	whole := Sample(ds, ds.Len()+1, DefaultSampleSeed)
	assert.Equal(t, ds.Len(), whole.Len())

	// the source dataset is not reordered
	assert.Equal(t, simulated(t, 30).Observations, ds.Observations)
}

func TestNilDataset(t *testing.T) {
	cal, err := holiday.New(holiday.CalendarUS)
	require.Nil(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, Sample(nil, 10, DefaultSampleSeed).Len())
	})
	assert.NotPanics(t, func() {
		assert.Equal(t, 0, SalesOverTime(nil, dataset.Filter{Store: 1}, 10).Len())
	})
	assert.NotPanics(t, func() {
		_, err := HolidayEffects(nil, cal)
		assert.ErrorIs(t, err, ErrNoData)
	})
	assert.NotPanics(t, func() {
		_, err := Correlation(nil)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestSalesOverTime(t *testing.T) {
	ds := testDataset(t)

	testData := map[string]struct {
		filter   dataset.Filter
		sampleN  int
		expected []float64
	}{
		"all sorted": {
			sampleN:  100,
			expected: []float64{10, 40, 20, math.NaN(), 30, 60},
		},
		"store filter": {
			filter:   dataset.Filter{Store: 1},
			sampleN:  100,
			expected: []float64{10, 20, 30},
		},
		"truncated": {
			filter:   dataset.Filter{Store: 1},
			sampleN:  2,
			expected: []float64{10, 20},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := SalesOverTime(ds, td.filter, td.sampleN)
			sales := res.Sales()
			require.Len(t, sales, len(td.expected))
			for i := range td.expected {
				if math.IsNaN(td.expected[i]) {
					assert.True(t, math.IsNaN(sales[i]))
					continue
				}
				assert.Equal(t, td.expected[i], sales[i])
			}
		})
	}
}

func TestSeasonality(t *testing.T) {
	ds := testDataset(t)

	monthly, err := MonthlySeasonality(ds)
	require.Nil(t, err)
	assert.Equal(t, []stats.Group{
		{Key: 1, Sum: 100, Mean: 25, Count: 4},
		{Key: 2, Sum: 60, Mean: 60, Count: 1},
	}, monthly)

	weekday, err := WeekdaySeasonality(ds)
	require.Nil(t, err)
	// 2024-01-01 and 2024-02-05 are mondays
	assert.Equal(t, []stats.Group{
		{Key: 0, Sum: 110, Mean: 110.0 / 3.0, Count: 3},
		{Key: 1, Sum: 20, Mean: 20, Count: 1},
		{Key: 2, Sum: 30, Mean: 30, Count: 1},
	}, weekday)

	stores, err := StoreTotals(ds)
	require.Nil(t, err)
	assert.Equal(t, 60.0, stores[0].Sum)
	assert.Equal(t, 100.0, stores[1].Sum)

	items, err := TopItems(ds, 1)
	require.Nil(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Key)
	assert.Equal(t, 120.0, items[0].Sum)

	_, err = MonthlySeasonality(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestHolidayEffects(t *testing.T) {
	cal, err := holiday.New(holiday.CalendarUS)
	require.Nil(t, err)

	ds, err := dataset.New([]dataset.Observation{
		{Date: day(2024, 12, 24), Store: 1, Item: 1, Sales: 10},
		{Date: day(2024, 12, 25), Store: 1, Item: 1, Sales: 2},
		{Date: day(2024, 12, 25), Store: 2, Item: 1, Sales: 4},
		{Date: day(2024, 12, 26), Store: 1, Item: 1, Sales: 20},
		{Date: day(2024, 7, 4), Store: 1, Item: 1, Sales: 50},
	})
	require.Nil(t, err)

	res, err := HolidayEffects(ds, cal)
	require.Nil(t, err)
	assert.Equal(t, []HolidayEffect{
		{Holiday: NoHoliday, Days: 2, MeanSales: 15},
		{Holiday: "Independence Day", Days: 1, MeanSales: 50},
		{Holiday: "Christmas Day", Days: 2, MeanSales: 3},
	}, res)

	none, err := holiday.New(holiday.CalendarNone)
	require.Nil(t, err)
	res, err = HolidayEffects(ds, none)
	require.Nil(t, err)
	assert.Equal(t, []HolidayEffect{{Holiday: NoHoliday, Days: 5, MeanSales: 86.0 / 5.0}}, res)
}

func TestCorrelation(t *testing.T) {
	corr, err := Correlation(simulated(t, 60))
	require.Nil(t, err)

	expected := []string{"store", "item", "year", "month", "dayofweek", "month_sin", "month_cos", "sales"}
	assert.Equal(t, expected, corr.Labels)
	require.Len(t, corr.Values, len(expected))

	for i := range corr.Values {
		require.Len(t, corr.Values[i], len(expected))
		for j := range corr.Values[i] {
			assert.False(t, math.IsNaN(corr.Values[i][j]))
			assert.InDelta(t, corr.Values[i][j], corr.Values[j][i], 1e-9)
		}
	}
	// a single year is constant so its correlations are undefined
	assert.Equal(t, 0.0, corr.Values[2][7])
	assert.InDelta(t, 1.0, corr.Values[0][0], 1e-9)

	_, err = Correlation(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestColumnCorrelation(t *testing.T) {
	corr, err := ColumnCorrelation(testDataset(t))
	require.Nil(t, err)

	assert.Equal(t, []string{"store", "item", "sales"}, corr.Labels)
	require.Len(t, corr.Values, 3)
	for i := range corr.Values {
		assert.InDelta(t, 1.0, corr.Values[i][i], 1e-9)
		for j := range corr.Values[i] {
			assert.InDelta(t, corr.Values[i][j], corr.Values[j][i], 1e-9)
		}
	}
	// store 2 carries the larger sales in the labeled rows
	assert.Greater(t, corr.Values[0][2], 0.0)

	_, err = ColumnCorrelation(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFeatureVIF(t *testing.T) {
	vif, err := FeatureVIF(simulated(t, 365))
	require.Nil(t, err)

	assert.Len(t, vif, 7)
	assert.True(t, math.IsInf(vif["year"], 1))
	assert.InDelta(t, 1.0, vif["store"], 1e-6)
	for name, v := range vif {
		assert.GreaterOrEqual(t, v, 1.0-1e-9, name)
	}
}

func TestFeatureVIFSingleVaryingFeature(t *testing.T) {
	ds, err := dataset.New([]dataset.Observation{
		{Date: day(2024, 1, 1), Store: 1, Item: 1, Sales: 10},
		{Date: day(2024, 1, 2), Store: 1, Item: 1, Sales: 20},
		{Date: day(2024, 1, 3), Store: 1, Item: 1, Sales: 30},
	})
	require.Nil(t, err)

	vif, err := FeatureVIF(ds)
	require.Nil(t, err)

	assert.Len(t, vif, 7)
	assert.Equal(t, 1.0, vif["dayofweek"])
	for _, name := range []string{"store", "item", "year", "month", "month_sin", "month_cos"} {
		assert.True(t, math.IsInf(vif[name], 1), name)
	}
}

func TestDashboard(t *testing.T) {
	cal, err := holiday.New(holiday.CalendarUS)
	require.Nil(t, err)

	opt := NewDefaultDashboardOptions()
	opt.Calendar = cal
	opt.Filter = dataset.Filter{Store: 1}

	var buf bytes.Buffer
	require.Nil(t, Dashboard(&buf, simulated(t, 60), opt))
	out := buf.String()
	assert.Contains(t, out, "Sales Over Time - Store 1")
	assert.Contains(t, out, "Average Sales by Month")
	assert.Contains(t, out, "Top 20 Items by Total Sales")
	assert.Contains(t, out, "Feature Correlation")
	assert.Contains(t, out, "Column Correlation (store, item, sales)")
	assert.NotContains(t, out, "Numeric Features")
	assert.Contains(t, out, "Average Sales by Holiday")

	assert.ErrorIs(t, Dashboard(&buf, nil, nil), ErrNoData)
}
