package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrCannotInferFreq = errors.New("cannot infer frequency from less than two dates")
	ErrInvalidHorizon  = errors.New("forecast horizon must be at least one day")
)

type DateSlice []time.Time

func (t DateSlice) Start() time.Time {
	var start time.Time
	for i, d := range t {
		if i == 0 || d.Before(start) {
			start = d
		}
	}
	return start
}

func (t DateSlice) End() time.Time {
	var end time.Time
	for i, d := range t {
		if i == 0 || d.After(end) {
			end = d
		}
	}
	return end
}

// Unique returns the sorted distinct dates
func (t DateSlice) Unique() DateSlice {
	seen := make(map[time.Time]struct{}, len(t))
	out := make(DateSlice, 0, len(t))
	for _, d := range t {
		if _, exists := seen[d]; exists {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// EstimateFreq returns the most common spacing between consecutive distinct dates,
// preferring the smaller spacing on ties.
func (t DateSlice) EstimateFreq() (time.Duration, error) {
	u := t.Unique()
	if len(u) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(u); i++ {
		delta := u[i].Sub(u[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Horizon returns the consecutive calendar days following start, start+1 through
// start+days inclusive.
func Horizon(start time.Time, days int) (DateSlice, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("zero start date, %w", ErrInvalidDate)
	}
	if days < 1 {
		return nil, fmt.Errorf("requested %d days, %w", days, ErrInvalidHorizon)
	}
	start = Civil(start)
	t := make(DateSlice, 0, days)
	for i := 1; i <= days; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t, nil
}
