package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/booster"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "8080",
		Environment:         "test",
		LogLevel:            slog.LevelInfo,
		LogFormat:           "text",
		HolidayCalendar:     holiday.CalendarUS,
		MinForecastDays:     7,
		MaxForecastDays:     365,
		DefaultForecastDays: 30,
		EvalPlotLimit:       500,
		EDASampleRows:       5000,
	}
}

func testDataset(t *testing.T) *dataset.Dataset {
	opt := dataset.NewDefaultSimulateOptions()
	opt.Days = 60
	ds, err := dataset.Simulate(opt)
	require.Nil(t, err)
	return ds
}

func newTestServer(t *testing.T, ds *dataset.Dataset) http.Handler {
	model, err := booster.Load("testdata/xgb_demand_model.json")
	require.Nil(t, err)
	cal, err := holiday.New(holiday.CalendarUS)
	require.Nil(t, err)
	p, err := demand.New(model, &demand.Options{Calendar: cal, Decimals: 2})
	require.Nil(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(testConfig(), p, ds, logger)
	require.Nil(t, err)
	return srv.Router()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.Nil(t, err)
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestNew(t *testing.T) {
	model, err := booster.Load("testdata/xgb_demand_model.json")
	require.Nil(t, err)
	p, err := demand.New(model, nil)
	require.Nil(t, err)

	_, err = New(testConfig(), nil, nil, nil)
	assert.ErrorIs(t, err, demand.ErrNoModel)

	cfg := testConfig()
	cfg.HolidayCalendar = "lunar"
	_, err = New(cfg, p, nil, nil)
	assert.ErrorIs(t, err, holiday.ErrUnknownCalendar)

	cfg = testConfig()
	cfg.MaxForecastDays = 1
	_, err = New(cfg, p, nil, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, testDataset(t))
	w := doRequest(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Status      string   `json:"status"`
		Features    []string `json:"features"`
		Calendar    string   `json:"calendar"`
		DatasetRows int      `json:"dataset_rows"`
	}
	decode(t, w, &res)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, "us", res.Calendar)
	assert.Len(t, res.Features, 7)
	assert.Equal(t, 2*3*60, res.DatasetRows)
}

func TestPredict(t *testing.T) {
	h := newTestServer(t, nil)

	testData := map[string]struct {
		body     any
		code     int
		expected float64
	}{
		"weekday store 1": {
			body:     map[string]any{"store": 1, "item": 1, "date": "2024-03-15"},
			code:     http.StatusOK,
			expected: 10.13,
		},
		"weekend": {
			body:     map[string]any{"store": 1, "item": 1, "date": "2024-03-16"},
			code:     http.StatusOK,
			expected: 20.13,
		},
		"store 2": {
			body:     map[string]any{"store": 2, "item": 7, "date": "2024-03-15"},
			code:     http.StatusOK,
			expected: 15.13,
		},
		"missing date": {
			body: map[string]any{"store": 1, "item": 1},
			code: http.StatusBadRequest,
		},
		"zero store": {
			body: map[string]any{"store": 0, "item": 1, "date": "2024-03-15"},
			code: http.StatusBadRequest,
		},
		"bad date": {
			body: map[string]any{"store": 1, "item": 1, "date": "someday"},
			code: http.StatusBadRequest,
		},
		"malformed json": {
			body: `{"store": 1,`,
			code: http.StatusBadRequest,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/api/v1/predict", td.body)
			require.Equal(t, td.code, w.Code, w.Body.String())

			if td.code != http.StatusOK {
				var res map[string]string
				decode(t, w, &res)
				assert.NotEmpty(t, res["error"])
				return
			}
			var res predictResponse
			decode(t, w, &res)
			assert.Equal(t, td.expected, res.Predicted)
		})
	}
}

func TestForecast(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodPost, "/api/v1/forecast",
		map[string]any{"store": 1, "item": 1, "start_date": "2024-03-15"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		StartDate string `json:"start_date"`
		Days      int    `json:"days"`
		Rows      []struct {
			Date      string  `json:"date"`
			DayOfWeek int     `json:"dayofweek"`
			Predicted float64 `json:"predicted_sales"`
			Holiday   string  `json:"holiday"`
		} `json:"rows"`
	}
	decode(t, w, &res)
	assert.Equal(t, "2024-03-15", res.StartDate)
	assert.Equal(t, 30, res.Days)
	require.Len(t, res.Rows, 30)
	assert.Equal(t, "2024-03-16", res.Rows[0].Date)
	assert.Equal(t, 5, res.Rows[0].DayOfWeek)
	assert.InDelta(t, 20.126, res.Rows[0].Predicted, 1e-6)
	assert.Equal(t, "2024-04-14", res.Rows[29].Date)

	w = doRequest(t, h, http.MethodPost, "/api/v1/forecast",
		map[string]any{"store": 1, "item": 1, "start_date": "2024-12-20", "days": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var week struct {
		Rows []struct {
			Date    string `json:"date"`
			Holiday string `json:"holiday"`
		} `json:"rows"`
	}
	decode(t, w, &week)
	require.Len(t, week.Rows, 7)
	assert.Equal(t, "2024-12-25", week.Rows[4].Date)
	assert.Equal(t, "Christmas Day", week.Rows[4].Holiday)
	assert.Empty(t, week.Rows[3].Holiday)
}

func TestForecastInvalid(t *testing.T) {
	h := newTestServer(t, nil)

	testData := map[string]struct {
		body map[string]any
	}{
		"below minimum days": {body: map[string]any{"store": 1, "item": 1, "start_date": "2024-03-15", "days": 3}},
		"above maximum days": {body: map[string]any{"store": 1, "item": 1, "start_date": "2024-03-15", "days": 366}},
		"negative days":      {body: map[string]any{"store": 1, "item": 1, "start_date": "2024-03-15", "days": -1}},
		"missing start":      {body: map[string]any{"store": 1, "item": 1}},
		"bad start":          {body: map[string]any{"store": 1, "item": 1, "start_date": "2024-02-30"}},
		"missing item":       {body: map[string]any{"store": 1, "start_date": "2024-03-15"}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/api/v1/forecast", td.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestExportForecast(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodGet, "/api/v1/forecast/export?store=1&item=1&start_date=2024-03-15&days=7", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "forecast_store1_item1_2024-03-15.xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.Nil(t, err)
	defer f.Close()
	rows, err := f.GetRows("Forecast")
	require.Nil(t, err)
	assert.Len(t, rows, 8)

	w = doRequest(t, h, http.MethodGet, "/api/v1/forecast/export?store=1&item=1&start_date=2024-03-15&days=7&format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[1], "2024-03-16,1,1,2024,3,5"))

	w = doRequest(t, h, http.MethodGet, "/api/v1/forecast/export?store=1&item=1&start_date=2024-03-15&format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/forecast/export?item=1&start_date=2024-03-15", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluate(t *testing.T) {
	ds := testDataset(t)
	h := newTestServer(t, ds)

	w := doRequest(t, h, http.MethodGet, "/api/v1/evaluate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var scores demand.Scores
	decode(t, w, &scores)
	assert.Equal(t, ds.Len(), scores.N)
	assert.Greater(t, scores.MAE, 0.0)
	assert.InDelta(t, scores.RMSE*scores.RMSE, scores.MSE, 1e-9)
}

func TestFeatures(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodGet, "/api/v1/features", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Features []map[string]string `json:"features"`
	}
	decode(t, w, &res)
	require.Len(t, res.Features, 7)

	columns := make([]string, len(res.Features))
	for i, f := range res.Features {
		columns[i] = f["column"]
	}
	assert.Equal(t, []string{"store", "item", "year", "month", "dayofweek", "month_sin", "month_cos"}, columns)
	assert.Equal(t, "identifier", res.Features[0]["type"])
	assert.Equal(t, "time", res.Features[2]["type"])
	assert.Equal(t, "seasonality", res.Features[5]["type"])
	assert.Equal(t, "sin", res.Features[5]["fourier_component"])
	assert.Equal(t, "12", res.Features[5]["period"])
}

func TestHolidays(t *testing.T) {
	h := newTestServer(t, nil)

	testData := map[string]struct {
		target   string
		code     int
		expected []holidayResponse
	}{
		"december": {
			target:   "/api/v1/holidays?start=2024-12-01&end=2024-12-31",
			code:     http.StatusOK,
			expected: []holidayResponse{{Name: "Christmas Day", Date: "2024-12-25"}},
		},
		"observed on friday": {
			target:   "/api/v1/holidays?start=2026-07-01&end=2026-07-05",
			code:     http.StatusOK,
			expected: []holidayResponse{{Name: "Independence Day", Date: "2026-07-03"}},
		},
		"no holidays": {
			target:   "/api/v1/holidays?start=2024-08-01&end=2024-08-31",
			code:     http.StatusOK,
			expected: []holidayResponse{},
		},
		"start after end": {
			target: "/api/v1/holidays?start=2024-12-31&end=2024-12-01",
			code:   http.StatusBadRequest,
		},
		"missing end": {
			target: "/api/v1/holidays?start=2024-12-01",
			code:   http.StatusBadRequest,
		},
		"bad date": {
			target: "/api/v1/holidays?start=yesterday&end=2024-12-01",
			code:   http.StatusBadRequest,
		},
		"span too long": {
			target: "/api/v1/holidays?start=2000-01-01&end=2024-12-31",
			code:   http.StatusBadRequest,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, td.target, nil)
			require.Equal(t, td.code, w.Code, w.Body.String())
			if td.code != http.StatusOK {
				return
			}
			var res struct {
				Calendar string            `json:"calendar"`
				Holidays []holidayResponse `json:"holidays"`
			}
			decode(t, w, &res)
			assert.Equal(t, holiday.CalendarUS, res.Calendar)
			assert.Equal(t, td.expected, res.Holidays)
		})
	}
}

func TestNoDataset(t *testing.T) {
	h := newTestServer(t, nil)

	for _, target := range []string{
		"/api/v1/evaluate",
		"/api/v1/eda/info",
		"/api/v1/eda/summary",
		"/api/v1/eda/correlation",
		"/dashboard/eda",
		"/dashboard/evaluation",
	} {
		t.Run(target, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, w.Body.String(), ErrNoDataset.Error())
		})
	}
}

func TestEDA(t *testing.T) {
	ds := testDataset(t)
	h := newTestServer(t, ds)

	t.Run("info", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/info", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var info struct {
			Rows      int    `json:"rows"`
			Frequency string `json:"frequency"`
			Stores    int    `json:"n_stores"`
			Items     int    `json:"n_items"`
		}
		decode(t, w, &info)
		assert.Equal(t, ds.Len(), info.Rows)
		assert.Equal(t, "D", info.Frequency)
		assert.Equal(t, 2, info.Stores)
		assert.Equal(t, 3, info.Items)
	})

	t.Run("summary", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/summary", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var table struct {
			Header []string   `json:"header"`
			Rows   [][]string `json:"rows"`
		}
		decode(t, w, &table)
		assert.Contains(t, table.Header, "sales")
		assert.NotEmpty(t, table.Rows)
	})

	t.Run("missing", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/missing", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"missing":[]}`, w.Body.String())
	})

	t.Run("sample", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/sample?n=5", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res struct {
			Rows []dataset.Observation `json:"rows"`
		}
		decode(t, w, &res)
		require.Len(t, res.Rows, 5)
		for i := 1; i < len(res.Rows); i++ {
			assert.False(t, res.Rows[i].Date.Before(res.Rows[i-1].Date))
		}

		w = doRequest(t, h, http.MethodGet, "/api/v1/eda/sample", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &res)
		assert.Len(t, res.Rows, defaultSampleRows)

		w = doRequest(t, h, http.MethodGet, "/api/v1/eda/sample?n=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("correlation", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/correlation", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var corr struct {
			Labels []string    `json:"labels"`
			Values [][]float64 `json:"values"`
		}
		decode(t, w, &corr)
		assert.Contains(t, corr.Labels, "sales")
		assert.Contains(t, corr.Labels, "month_sin")
		assert.Len(t, corr.Values, len(corr.Labels))

		w = doRequest(t, h, http.MethodGet, "/api/v1/eda/correlation?view=columns", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &corr)
		assert.Equal(t, []string{"store", "item", "sales"}, corr.Labels)
		assert.Len(t, corr.Values, 3)

		w = doRequest(t, h, http.MethodGet, "/api/v1/eda/correlation?view=numeric", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("vif", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/api/v1/eda/vif", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var vif map[string]*float64
		decode(t, w, &vif)
		require.Contains(t, vif, "year")
		assert.Nil(t, vif["year"])
	})
}

func TestDashboards(t *testing.T) {
	h := newTestServer(t, testDataset(t))

	testData := map[string]struct {
		target string
		code   int
		title  string
	}{
		"eda": {
			target: "/dashboard/eda",
			code:   http.StatusOK,
			title:  "EDA Dashboard",
		},
		"eda filtered": {
			target: "/dashboard/eda?store=1&item=2",
			code:   http.StatusOK,
			title:  "EDA Dashboard",
		},
		"eda invalid filter": {
			target: "/dashboard/eda?store=-2",
			code:   http.StatusBadRequest,
		},
		"forecast": {
			target: "/dashboard/forecast?store=1&item=1&start_date=2024-03-15&days=14",
			code:   http.StatusOK,
			title:  "Forecast",
		},
		"forecast missing store": {
			target: "/dashboard/forecast?item=1&start_date=2024-03-15",
			code:   http.StatusBadRequest,
		},
		"evaluation": {
			target: "/dashboard/evaluation",
			code:   http.StatusOK,
			title:  "Model Evaluation",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodGet, td.target, nil)
			require.Equal(t, td.code, w.Code, w.Body.String())
			if td.code != http.StatusOK {
				return
			}
			assert.Equal(t, contentTypeHTML, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "<title>"+td.title+"</title>")
		})
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, nil)
	doRequest(t, h, http.MethodPost, "/api/v1/predict", map[string]any{"store": 1, "item": 1, "date": "2024-03-15"})

	w := doRequest(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "demand_http_requests_total")
	assert.Contains(t, body, `route="/api/v1/predict"`)
	assert.Contains(t, body, `demand_predictions_total{operation="predict"}`)
}

func TestRunShutdown(t *testing.T) {
	model, err := booster.Load("testdata/xgb_demand_model.json")
	require.Nil(t, err)
	p, err := demand.New(model, nil)
	require.Nil(t, err)

	cfg := testConfig()
	cfg.Port = "0"
	srv, err := New(cfg, p, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Nil(t, srv.Run(ctx))
}
