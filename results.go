package demand

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/feature"
	"github.com/goccy/go-json"
)

// ForecastRow is a single forecasted day with the features it was scored on
type ForecastRow struct {
	Date time.Time `json:"date"`
	feature.Vector
	Predicted float64 `json:"predicted_sales"`
	Holiday   string  `json:"holiday,omitempty"`
}

// MarshalJSON writes the date as a civil date alongside the flattened features
func (r ForecastRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date string `json:"date"`
		feature.Vector
		Predicted float64 `json:"predicted_sales"`
		Holiday   string  `json:"holiday,omitempty"`
	}{
		Date:      r.Date.Format(dataset.DateLayout),
		Vector:    r.Vector,
		Predicted: r.Predicted,
		Holiday:   r.Holiday,
	})
}

// Results is a multi day forecast for one store and item
type Results struct {
	Store int           `json:"store"`
	Item  int           `json:"item"`
	Start time.Time     `json:"start_date"`
	Rows  []ForecastRow `json:"rows"`
}

func (r *Results) T() []time.Time {
	t := make([]time.Time, len(r.Rows))
	for i, row := range r.Rows {
		t[i] = row.Date
	}
	return t
}

func (r *Results) Forecast() []float64 {
	y := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		y[i] = row.Predicted
	}
	return y
}

// TablePrint writes one line per forecasted day
func (r *Results) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Forecast: store %d, item %d, %d days after %s\n",
		r.Store, r.Item, len(r.Rows), r.Start.Format(dataset.DateLayout)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "date\tdayofweek\tmonth_sin\tmonth_cos\tpredicted_sales\tholiday"); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.2f\t%s\n",
			row.Date.Format(dataset.DateLayout),
			row.DayOfWeek,
			row.MonthSin,
			row.MonthCos,
			row.Predicted,
			row.Holiday,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Evaluation pairs actual and predicted sales over a labeled dataset
type Evaluation struct {
	T         []time.Time `json:"time"`
	Actual    []float64   `json:"actual"`
	Predicted []float64   `json:"predicted"`
	Scores    *Scores     `json:"scores"`
}

// TablePrint writes the evaluation scores
func (e *Evaluation) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sEvaluation:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sObservations: %d\n", prefix, indentExpand(indent, 1), len(e.Actual)); err != nil {
		return err
	}
	if e.Scores == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sMAE: %.3f    MSE: %.3f    RMSE: %.3f    R2: %.3f\n",
		prefix, indentExpand(indent, 1),
		e.Scores.MAE,
		e.Scores.MSE,
		e.Scores.RMSE,
		e.Scores.R2,
	)
	return err
}
