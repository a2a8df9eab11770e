package weather

import "errors"

var (
	// ErrUnknownDataset is the only resolution failure returned to callers.
	ErrUnknownDataset = errors.New("unknown dataset")

	// The errors below are recovered by the resolver: they are logged and the
	// request degrades to an empty or partial result.
	ErrUnknownProvider      = errors.New("unknown provider")
	ErrResourceUnavailable  = errors.New("resource unavailable")
	ErrFilter               = errors.New("filter failed")
	ErrUnknownInterpolation = errors.New("unknown interpolation")
	ErrStrategy             = errors.New("decimation strategy failed")
	ErrUnknownTransform     = errors.New("unknown transform")
	ErrMalformedSource      = errors.New("malformed source data")
)
