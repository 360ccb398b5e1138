package booster

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("model artifact not found")
	ErrInvalidModel       = errors.New("invalid model artifact")
	ErrUnsupportedModel   = errors.New("unsupported model")
	ErrUnknownObjective   = errors.New("unknown objective")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of input features does not match the model")
)
