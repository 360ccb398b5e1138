// Package server exposes the demand predictor and the exploratory analysis over http
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Server holds the read-only model and dataset shared by every request
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	predictor *demand.Predictor
	data      *dataset.Dataset
	calendar  *holiday.Calendar
}

// New creates a server around a loaded predictor. The dataset is optional; without it the
// exploratory and evaluation routes respond with 503.
func New(cfg *config.Config, predictor *demand.Predictor, data *dataset.Dataset, logger *slog.Logger) (*Server, error) {
	if predictor == nil {
		return nil, demand.ErrNoModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cal, err := holiday.New(cfg.HolidayCalendar)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		predictor: predictor,
		data:      data,
		calendar:  cal,
	}, nil
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), instrument(), cors.Default())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/predict", s.predict)
		v1.POST("/forecast", s.forecast)
		v1.GET("/forecast/export", s.exportForecast)
		v1.GET("/evaluate", s.evaluate)
		v1.GET("/features", s.features)
		v1.GET("/holidays", s.holidays)

		explore := v1.Group("/eda", s.requireData)
		{
			explore.GET("/info", s.edaInfo)
			explore.GET("/summary", s.edaSummary)
			explore.GET("/missing", s.edaMissing)
			explore.GET("/sample", s.edaSample)
			explore.GET("/correlation", s.edaCorrelation)
			explore.GET("/vif", s.edaVIF)
		}
	}

	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("/eda", s.requireData, s.dashboardEDA)
		dashboard.GET("/forecast", s.dashboardForecast)
		dashboard.GET("/evaluation", s.dashboardEvaluation)
	}
	return r
}

// Run serves until the context is cancelled and then drains in flight requests
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", srv.Addr, "environment", s.cfg.Environment)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requireData(c *gin.Context) {
	if s.data == nil || s.data.Len() == 0 {
		abortWithError(c, ErrNoDataset)
		return
	}
	c.Next()
}

func (s *Server) health(c *gin.Context) {
	rows := 0
	if s.data != nil {
		rows = s.data.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"features":     s.predictor.Model().FeatureNames(),
		"calendar":     s.calendar.Name(),
		"dataset_rows": rows,
	})
}
