package booster

import (
	"fmt"
	"math"
)

// link converts the base score into margin space and the summed margin back into the
// output space of the objective
type link struct {
	name       string
	toMargin   func(float64) (float64, error)
	fromMargin func(float64) float64
}

func identity(v float64) float64 {
	return v
}

func identityMargin(v float64) (float64, error) {
	return v, nil
}

func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func logitMargin(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("base score %g outside of (0, 1), %w", p, ErrInvalidModel)
	}
	return math.Log(p / (1 - p)), nil
}

func logMargin(v float64) (float64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("base score %g must be positive, %w", v, ErrInvalidModel)
	}
	return math.Log(v), nil
}

var (
	linkIdentity = link{name: "identity", toMargin: identityMargin, fromMargin: identity}
	linkLogistic = link{name: "logistic", toMargin: logitMargin, fromMargin: sigmoid}
	linkLogitRaw = link{name: "logitraw", toMargin: logitMargin, fromMargin: identity}
	linkLog      = link{name: "log", toMargin: logMargin, fromMargin: math.Exp}
)

var objectives = map[string]link{
	"reg:squarederror":     linkIdentity,
	"reg:linear":           linkIdentity,
	"reg:squaredlogerror":  linkIdentity,
	"reg:absoluteerror":    linkIdentity,
	"reg:pseudohubererror": linkIdentity,
	"reg:logistic":         linkLogistic,
	"binary:logistic":      linkLogistic,
	"binary:logitraw":      linkLogitRaw,
	"count:poisson":        linkLog,
	"reg:gamma":            linkLog,
	"reg:tweedie":          linkLog,
}

func objectiveLink(name string) (link, error) {
	l, exists := objectives[name]
	if !exists {
		return link{}, fmt.Errorf("%q, %w", name, ErrUnknownObjective)
	}
	return l, nil
}
