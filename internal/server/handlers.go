package server

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/eda"
	"github.com/aouyang1/go-demand/feature"
	"github.com/aouyang1/go-demand/internal/export"
	"github.com/gin-gonic/gin"
)

const (
	defaultSampleRows = 10

	maxHolidaySpanYears = 10

	correlationFeatures = "features"
	correlationColumns  = "columns"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type predictRequest struct {
	Store int    `json:"store" binding:"required,min=1"`
	Item  int    `json:"item" binding:"required,min=1"`
	Date  string `json:"date" binding:"required"`
}

type predictResponse struct {
	Store     int     `json:"store"`
	Item      int     `json:"item"`
	Date      string  `json:"date"`
	Predicted float64 `json:"predicted_sales"`
}

// forecastRequest binds from a json body on POST and from the query string on GET
type forecastRequest struct {
	Store     int    `json:"store" form:"store" binding:"required,min=1"`
	Item      int    `json:"item" form:"item" binding:"required,min=1"`
	StartDate string `json:"start_date" form:"start_date" binding:"required"`
	Days      int    `json:"days" form:"days"`
}

type forecastResponse struct {
	Store     int                  `json:"store"`
	Item      int                  `json:"item"`
	StartDate string               `json:"start_date"`
	Days      int                  `json:"days"`
	Rows      []demand.ForecastRow `json:"rows"`
}

type filterQuery struct {
	Store int `form:"store" binding:"omitempty,min=1"`
	Item  int `form:"item" binding:"omitempty,min=1"`
}

type sampleQuery struct {
	N    int    `form:"n" binding:"omitempty,min=1"`
	Seed uint64 `form:"seed"`
}

type correlationQuery struct {
	View string `form:"view" binding:"omitempty,oneof=features columns"`
}

type holidayQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

type holidayResponse struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

func invalidRequest(err error) error {
	return fmt.Errorf("%w, %w", ErrInvalidRequest, err)
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalidRequest(err))
		return
	}
	date, err := dataset.ParseDate(req.Date)
	if err != nil {
		abortWithError(c, err)
		return
	}

	pred, err := s.predictor.PredictDay(req.Store, req.Item, date)
	if err != nil {
		abortWithError(c, err)
		return
	}
	predictionsTotal.WithLabelValues("predict").Inc()

	c.JSON(http.StatusOK, predictResponse{
		Store:     req.Store,
		Item:      req.Item,
		Date:      date.Format(dataset.DateLayout),
		Predicted: pred,
	})
}

// runForecast binds and validates a forecast request and scores it
func (s *Server) runForecast(c *gin.Context) (*demand.Results, error) {
	var req forecastRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, invalidRequest(err)
	}
	if req.Days == 0 {
		req.Days = s.cfg.DefaultForecastDays
	}
	if req.Days < s.cfg.MinForecastDays || req.Days > s.cfg.MaxForecastDays {
		return nil, fmt.Errorf("days %d outside of [%d, %d], %w",
			req.Days, s.cfg.MinForecastDays, s.cfg.MaxForecastDays, ErrForecastDays)
	}
	start, err := dataset.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	res, err := s.predictor.Forecast(req.Store, req.Item, start, req.Days)
	if err != nil {
		return nil, err
	}
	predictionsTotal.WithLabelValues("forecast").Add(float64(len(res.Rows)))
	return res, nil
}

func (s *Server) forecast(c *gin.Context) {
	res, err := s.runForecast(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecastResponse{
		Store:     res.Store,
		Item:      res.Item,
		StartDate: res.Start.Format(dataset.DateLayout),
		Days:      len(res.Rows),
		Rows:      res.Rows,
	})
}

func (s *Server) exportForecast(c *gin.Context) {
	res, err := s.runForecast(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "xlsx":
		contentType = contentTypeXLSX
		err = export.ForecastXLSX(&buf, res)
	case "csv":
		contentType = contentTypeCSV
		err = export.ForecastCSV(&buf, res)
	default:
		abortWithError(c, invalidRequest(fmt.Errorf("unsupported export format %q", format)))
		return
	}
	if err != nil {
		abortWithError(c, fmt.Errorf("unable to export forecast, %w", err))
		return
	}

	filename := fmt.Sprintf("forecast_store%d_item%d_%s.%s", res.Store, res.Item, res.Start.Format(dataset.DateLayout), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) runEvaluation() (*demand.Evaluation, error) {
	if s.data == nil || s.data.Len() == 0 {
		return nil, ErrNoDataset
	}
	eval, err := s.predictor.Evaluate(s.data)
	if err != nil {
		return nil, err
	}
	predictionsTotal.WithLabelValues("evaluate").Add(float64(eval.Scores.N))
	evaluationScore.WithLabelValues("mae").Set(eval.Scores.MAE)
	evaluationScore.WithLabelValues("rmse").Set(eval.Scores.RMSE)
	evaluationScore.WithLabelValues("r2").Set(eval.Scores.R2)
	return eval, nil
}

// features describes the model input columns in order
func (s *Server) features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": feature.Contract.Decode()})
}

// holidays lists the observed holidays of the configured calendar within [start, end]
func (s *Server) holidays(c *gin.Context) {
	var q holidayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, invalidRequest(err))
		return
	}
	start, err := dataset.ParseDate(q.Start)
	if err != nil {
		abortWithError(c, err)
		return
	}
	end, err := dataset.ParseDate(q.End)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if end.After(start.AddDate(maxHolidaySpanYears, 0, 0)) {
		abortWithError(c, invalidRequest(fmt.Errorf("span exceeds %d years", maxHolidaySpanYears)))
		return
	}

	hs, err := s.calendar.Between(start, end)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res := make([]holidayResponse, len(hs))
	for i, h := range hs {
		res[i] = holidayResponse{Name: h.Name, Date: h.Date.Format(dataset.DateLayout)}
	}
	c.JSON(http.StatusOK, gin.H{"calendar": s.calendar.Name(), "holidays": res})
}

func (s *Server) evaluate(c *gin.Context) {
	eval, err := s.runEvaluation()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval.Scores)
}

func (s *Server) edaInfo(c *gin.Context) {
	info, err := eda.NewInfo(s.data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) edaSummary(c *gin.Context) {
	table, err := eda.Summary(s.data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) edaMissing(c *gin.Context) {
	missing := eda.MissingValues(s.data)
	if missing == nil {
		missing = []eda.Missing{}
	}
	c.JSON(http.StatusOK, gin.H{"missing": missing})
}

func (s *Server) edaSample(c *gin.Context) {
	q := sampleQuery{N: defaultSampleRows, Seed: eda.DefaultSampleSeed}
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, invalidRequest(err))
		return
	}
	n := min(q.N, s.cfg.EDASampleRows)
	sample := eda.Sample(s.data, n, q.Seed)
	c.JSON(http.StatusOK, gin.H{"rows": sample.Observations})
}

// edaCorrelation correlates the derived model features by default or the raw store, item
// and sales columns with view=columns
func (s *Server) edaCorrelation(c *gin.Context) {
	q := correlationQuery{View: correlationFeatures}
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, invalidRequest(err))
		return
	}
	correlate := eda.Correlation
	if q.View == correlationColumns {
		correlate = eda.ColumnCorrelation
	}
	corr, err := correlate(s.data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, corr)
}

// edaVIF reports null for features that are constant or perfectly collinear
func (s *Server) edaVIF(c *gin.Context) {
	vif, err := eda.FeatureVIF(s.data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make(map[string]*float64, len(vif))
	for label, v := range vif {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[label] = nil
			continue
		}
		out[label] = &v
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) dashboardEDA(c *gin.Context) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, invalidRequest(err))
		return
	}
	opt := eda.NewDefaultDashboardOptions()
	opt.Filter = dataset.Filter{Store: q.Store, Item: q.Item}
	opt.SampleN = s.cfg.EDASampleRows
	opt.Calendar = s.calendar

	var buf bytes.Buffer
	if err := eda.Dashboard(&buf, s.data, opt); err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

func (s *Server) dashboardForecast(c *gin.Context) {
	res, err := s.runForecast(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := demand.PlotForecast(&buf, res); err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

func (s *Server) dashboardEvaluation(c *gin.Context) {
	eval, err := s.runEvaluation()
	if err != nil {
		abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := demand.PlotEvaluation(&buf, eval, s.cfg.EvalPlotLimit); err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}
