// Package export writes forecasts out as spreadsheets
package export

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

const (
	SheetForecast = "Forecast"
	SheetSummary  = "Summary"
)

// ForecastFrame flattens forecast rows into a dataframe with one column per feature
func ForecastFrame(res *demand.Results) dataframe.DataFrame {
	n := len(res.Rows)
	dates := make([]string, n)
	stores := make([]int, n)
	items := make([]int, n)
	years := make([]int, n)
	months := make([]int, n)
	dows := make([]int, n)
	sins := make([]float64, n)
	coss := make([]float64, n)
	preds := make([]float64, n)
	holidays := make([]string, n)
	for i, row := range res.Rows {
		dates[i] = row.Date.Format(dataset.DateLayout)
		stores[i] = row.Store
		items[i] = row.Item
		years[i] = row.Year
		months[i] = row.Month
		dows[i] = row.DayOfWeek
		sins[i] = row.MonthSin
		coss[i] = row.MonthCos
		preds[i] = row.Predicted
		holidays[i] = row.Holiday
	}
	return dataframe.New(
		series.New(dates, series.String, "date"),
		series.New(stores, series.Int, "store"),
		series.New(items, series.Int, "item"),
		series.New(years, series.Int, "year"),
		series.New(months, series.Int, "month"),
		series.New(dows, series.Int, "dayofweek"),
		series.New(sins, series.Float, "month_sin"),
		series.New(coss, series.Float, "month_cos"),
		series.New(preds, series.Float, "predicted_sales"),
		series.New(holidays, series.String, "holiday"),
	)
}

func writeFrame(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		for colIdx, colName := range colNames {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, df.Col(colName).Val(rowIdx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForecastXLSX writes the forecast rows and a summary sheet as an xlsx workbook
func ForecastXLSX(w io.Writer, res *demand.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetForecast); err != nil {
		return err
	}
	if err := writeFrame(f, SheetForecast, ForecastFrame(res)); err != nil {
		return fmt.Errorf("unable to write forecast sheet, %w", err)
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	forecast := res.Forecast()
	var total float64
	for _, v := range forecast {
		total += v
	}
	summary := [][]interface{}{
		{"store", res.Store},
		{"item", res.Item},
		{"start_date", res.Start.Format(dataset.DateLayout)},
		{"days", len(res.Rows)},
		{"total_predicted_sales", total},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("unable to write summary sheet, %w", err)
		}
	}

	return f.Write(w)
}

// ForecastCSV writes the forecast rows as csv with a header row
func ForecastCSV(w io.Writer, res *demand.Results) error {
	return ForecastFrame(res).WriteCSV(w)
}
