package demand

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func indentExpand(indent string, growth int) string {
	if growth <= 0 {
		return ""
	}
	return strings.Repeat(indent, growth)
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaN values are left
// as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show:    opts.Bool(true),
				Trigger: "axis",
			},
		),
	)

	xAxis := make([]string, len(t))
	for i, ts := range t {
		xAxis[i] = ts.Format(dataset.DateLayout)
	}

	line = line.SetXAxis(xAxis)
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		lineData := make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]) && j < len(t); j++ {
			if math.IsNaN(y[i][j]) {
				lineData = append(lineData, opts.LineData{Value: "-"})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: y[i][j]})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// LineForecast generates an echart line chart of the predicted sales of a forecast
func LineForecast(res *Results) *charts.Line {
	return LineTSeries(
		"Sales Forecast",
		[]string{"Predicted Sales"},
		res.T(),
		[][]float64{res.Forecast()},
	)
}

// LineEvaluation generates an echart line chart of actual against predicted sales for the first
// limit observations of an evaluation. A limit below 1 plots DefaultEvalPlotLimit observations.
func LineEvaluation(eval *Evaluation, limit int) *charts.Line {
	if limit < 1 {
		limit = DefaultEvalPlotLimit
	}
	n := len(eval.Actual)
	if n > limit {
		n = limit
	}

	xAxis := make([]int, n)
	actual := make([]opts.LineData, n)
	predicted := make([]opts.LineData, n)
	for i := 0; i < n; i++ {
		xAxis[i] = i
		actual[i] = opts.LineData{Value: eval.Actual[i]}
		predicted[i] = opts.LineData{Value: eval.Predicted[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Actual vs Predicted",
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show:    opts.Bool(true),
				Trigger: "axis",
			},
		),
	)
	line.SetXAxis(xAxis).
		AddSeries("Actual", actual).
		AddSeries("Predicted", predicted)
	return line
}

// PlotForecast uses the Apache Echarts library to render an html page of the forecast
func PlotForecast(w io.Writer, res *Results) error {
	page := components.NewPage()
	page.PageTitle = "Forecast"
	page.AddCharts(LineForecast(res))
	return page.Render(w)
}

// PlotEvaluation renders an html page comparing actual and predicted sales
func PlotEvaluation(w io.Writer, eval *Evaluation, limit int) error {
	page := components.NewPage()
	page.PageTitle = "Model Evaluation"
	page.AddCharts(LineEvaluation(eval, limit))
	return page.Render(w)
}
