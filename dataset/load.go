package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

const (
	ColDate  = "date"
	ColStore = "store"
	ColItem  = "item"
	ColSales = "sales"
)

var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// Load reads a dataset from a .csv or .xlsx file
func Load(path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s, %w", path, ErrNotFound)
		}
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("extension %q, %w", ext, ErrUnsupportedFormat)
	}
}

// ReadCSV parses a csv stream with a header row into a Dataset
func ReadCSV(r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(
		r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("unable to read csv, %w", df.Err)
	}
	return FromDataFrame(df)
}

// ReadXLSX parses the first sheet of an excel workbook into a Dataset. The first row
// must be the header. Cells are read unformatted so that date cells stored as excel
// serial numbers are converted back to calendar dates rather than relying on the
// display format of the sheet.
func ReadXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook, %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet rows, %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	// excelize trims trailing empty cells so pad every row out to the header width
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	for j, name := range rows[0] {
		if !strings.EqualFold(strings.TrimSpace(name), ColDate) {
			continue
		}
		for _, row := range rows[1:] {
			row[j] = excelDate(row[j], date1904)
		}
	}

	df := dataframe.LoadRecords(
		rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("unable to load sheet records, %w", df.Err)
	}
	return FromDataFrame(df)
}

// excelDate converts an excel serial date cell to the canonical date layout. Any other
// text is returned as is for ParseDate to handle.
func excelDate(cell string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return cell
	}
	return t.Format(DateLayout)
}

// FromDataFrame converts a dataframe with date, store, item and an optional sales column
// into typed observations. Column names are matched case-insensitively.
func FromDataFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Nrow() == 0 {
		return nil, ErrNoData
	}

	names := make(map[string]string)
	for _, name := range df.Names() {
		names[strings.ToLower(strings.TrimSpace(name))] = name
	}
	column := func(key string, required bool) ([]string, error) {
		name, exists := names[key]
		if !exists {
			if required {
				return nil, fmt.Errorf("%s, %w", key, ErrMissingColumn)
			}
			return nil, nil
		}
		return df.Col(name).Records(), nil
	}

	dates, err := column(ColDate, true)
	if err != nil {
		return nil, err
	}
	stores, err := column(ColStore, true)
	if err != nil {
		return nil, err
	}
	items, err := column(ColItem, true)
	if err != nil {
		return nil, err
	}
	sales, err := column(ColSales, false)
	if err != nil {
		return nil, err
	}

	obs := make([]Observation, df.Nrow())
	for i := range obs {
		date, err := ParseDate(dates[i])
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", i+1, err)
		}
		store, err := parseID(stores[i])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s, %w", i+1, ColStore, err)
		}
		item, err := parseID(items[i])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s, %w", i+1, ColItem, err)
		}
		y := math.NaN()
		if sales != nil {
			y, err = parseSales(sales[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s, %w", i+1, ColSales, err)
			}
		}
		obs[i] = Observation{Date: date, Store: store, Item: item, Sales: y}
	}

	return &Dataset{
		Observations: obs,
		columns:      df.Names(),
	}, nil
}

func isMissing(s string) bool {
	_, missing := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return missing
}

func parseID(s string) (int, error) {
	if isMissing(s) {
		return 0, fmt.Errorf("missing id, %w", ErrInvalidValue)
	}
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}

	// ids exported from float typed columns e.g. 3.0
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) {
		return 0, fmt.Errorf("%q is not an integer, %w", s, ErrInvalidValue)
	}
	return int(v), nil
}

func parseSales(s string) (float64, error) {
	if isMissing(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not numeric, %w", s, ErrInvalidValue)
	}
	if v < 0 || math.IsInf(v, 0) {
		return 0, fmt.Errorf("sales %q must be a finite non-negative quantity, %w", s, ErrInvalidValue)
	}
	return v, nil
}

// DataFrame returns the dataset as a gota dataframe with the date column formatted as
// text and absent sales as NaN.
func (ds *Dataset) DataFrame() dataframe.DataFrame {
	n := len(ds.Observations)
	dates := make([]string, n)
	stores := make([]int, n)
	items := make([]int, n)
	sales := make([]float64, n)
	for i, o := range ds.Observations {
		dates[i] = o.Date.Format(DateLayout)
		stores[i] = o.Store
		items[i] = o.Item
		sales[i] = o.Sales
	}
	return dataframe.New(
		series.New(dates, series.String, ColDate),
		series.New(stores, series.Int, ColStore),
		series.New(items, series.Int, ColItem),
		series.New(sales, series.Float, ColSales),
	)
}

// WriteCSV writes the dataset with a header row
func (ds *Dataset) WriteCSV(w io.Writer) error {
	return ds.DataFrame().WriteCSV(w)
}
