package server

import (
	"errors"
	"net/http"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/eda"
	"github.com/aouyang1/go-demand/feature"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/gin-gonic/gin"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoDataset      = errors.New("no dataset loaded")
	ErrForecastDays   = errors.New("forecast days out of range")
)

// statusCode maps a handler error onto the http status returned to the client
func statusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrForecastDays),
		errors.Is(err, feature.ErrInvalidInput),
		errors.Is(err, dataset.ErrInvalidDate),
		errors.Is(err, dataset.ErrInvalidHorizon),
		errors.Is(err, holiday.ErrStartAfterEnd):
		return http.StatusBadRequest
	case errors.Is(err, demand.ErrNoEvaluationData),
		errors.Is(err, eda.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoDataset):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError records the error for the request logger and writes the error body
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode(err), gin.H{"error": err.Error()})
}
