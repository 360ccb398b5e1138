package eda

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/stats"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DashboardOptions configures the exploratory dashboard
type DashboardOptions struct {
	Filter   dataset.Filter
	SampleN  int
	TopN     int
	Calendar *holiday.Calendar
}

func NewDefaultDashboardOptions() *DashboardOptions {
	return &DashboardOptions{
		SampleN: DefaultSampleRows,
		TopN:    DefaultTopItems,
	}
}

// LineSalesOverTime charts sales of the filtered and truncated dataset
func LineSalesOverTime(ds *dataset.Dataset, f dataset.Filter, sampleN int) *charts.Line {
	sub := SalesOverTime(ds, f, sampleN)

	titleParts := []string{"Sales Over Time"}
	if f.Store != 0 {
		titleParts = append(titleParts, fmt.Sprintf("Store %d", f.Store))
	}
	if f.Item != 0 {
		titleParts = append(titleParts, fmt.Sprintf("Item %d", f.Item))
	}

	xAxis := make([]string, sub.Len())
	lineData := make([]opts.LineData, sub.Len())
	for i, o := range sub.Observations {
		xAxis[i] = o.Date.Format(dataset.DateLayout)
		if math.IsNaN(o.Sales) {
			lineData[i] = opts.LineData{Value: "-"}
			continue
		}
		lineData[i] = opts.LineData{Value: o.Sales}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: strings.Join(titleParts, " - "),
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show:    opts.Bool(true),
				Trigger: "axis",
			},
		),
		charts.WithDataZoomOpts(
			opts.DataZoom{
				Type: "slider",
			},
		),
	)
	line.SetXAxis(xAxis).AddSeries("Sales", lineData)
	return line
}

// BarGroups charts a value of each group against its key
func BarGroups(title, seriesName string, groups []stats.Group, value func(stats.Group) float64) *charts.Bar {
	xAxis := make([]string, len(groups))
	barData := make([]opts.BarData, len(groups))
	for i, g := range groups {
		xAxis[i] = strconv.Itoa(g.Key)
		barData[i] = opts.BarData{Value: value(g)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show: opts.Bool(true),
			},
		),
	)
	bar.SetXAxis(xAxis).AddSeries(seriesName, barData)
	return bar
}

func groupMean(g stats.Group) float64 {
	return g.Mean
}

func groupSum(g stats.Group) float64 {
	return g.Sum
}

// BarHolidayEffects charts the mean sales per holiday
func BarHolidayEffects(effects []HolidayEffect) *charts.Bar {
	xAxis := make([]string, len(effects))
	barData := make([]opts.BarData, len(effects))
	for i, e := range effects {
		xAxis[i] = e.Holiday
		barData[i] = opts.BarData{Value: e.MeanSales}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Average Sales by Holiday",
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show: opts.Bool(true),
			},
		),
	)
	bar.SetXAxis(xAxis).AddSeries("Average Sales", barData)
	return bar
}

// HeatMapCorrelation charts a correlation matrix
func HeatMapCorrelation(title string, corr *stats.Correlation) *charts.HeatMap {
	data := make([]opts.HeatMapData, 0, len(corr.Labels)*len(corr.Labels))
	for i := range corr.Values {
		for j, v := range corr.Values[i] {
			data = append(data, opts.HeatMapData{
				Value: [3]interface{}{i, j, math.Round(v*100) / 100},
			})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show: opts.Bool(true),
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Type: "category",
				Data: corr.Labels,
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Type: "category",
				Data: corr.Labels,
			},
		),
		charts.WithVisualMapOpts(
			opts.VisualMap{
				Calculable: opts.Bool(true),
				Min:        -1,
				Max:        1,
				InRange: &opts.VisualMapInRange{
					Color: []string{"#3b4cc0", "#f7f7f7", "#b40426"},
				},
			},
		),
	)
	hm.SetXAxis(corr.Labels).AddSeries("correlation", data)
	return hm
}

// Dashboard renders every exploratory chart of the dataset on one html page
func Dashboard(w io.Writer, ds *dataset.Dataset, opt *DashboardOptions) error {
	if ds.Len() == 0 {
		return ErrNoData
	}
	if opt == nil {
		opt = NewDefaultDashboardOptions()
	}

	monthly, err := MonthlySeasonality(ds)
	if err != nil {
		return fmt.Errorf("unable to compute monthly seasonality, %w", err)
	}
	weekday, err := WeekdaySeasonality(ds)
	if err != nil {
		return fmt.Errorf("unable to compute weekday seasonality, %w", err)
	}
	stores, err := StoreTotals(ds)
	if err != nil {
		return fmt.Errorf("unable to compute store totals, %w", err)
	}
	topN := opt.TopN
	if topN < 1 {
		topN = DefaultTopItems
	}
	items, err := TopItems(ds, topN)
	if err != nil {
		return fmt.Errorf("unable to compute top items, %w", err)
	}
	corr, err := Correlation(ds)
	if err != nil {
		return fmt.Errorf("unable to compute correlation, %w", err)
	}
	colCorr, err := ColumnCorrelation(ds)
	if err != nil {
		return fmt.Errorf("unable to compute column correlation, %w", err)
	}

	page := components.NewPage()
	page.PageTitle = "EDA Dashboard"
	page.AddCharts(
		LineSalesOverTime(ds, opt.Filter, opt.SampleN),
		BarGroups("Average Sales by Month", "Average Sales", monthly, groupMean),
		BarGroups("Average Sales by Day of Week (0=Mon)", "Average Sales", weekday, groupMean),
		BarGroups("Total Sales by Store", "Total Sales", stores, groupSum),
		BarGroups(fmt.Sprintf("Top %d Items by Total Sales", topN), "Total Sales", items, groupSum),
		HeatMapCorrelation("Feature Correlation", corr),
		HeatMapCorrelation("Column Correlation (store, item, sales)", colCorr),
	)
	if opt.Calendar != nil && opt.Calendar.Name() != holiday.CalendarNone {
		effects, err := HolidayEffects(ds, opt.Calendar)
		if err != nil {
			return fmt.Errorf("unable to compute holiday effects, %w", err)
		}
		page.AddCharts(BarHolidayEffects(effects))
	}
	return page.Render(w)
}
