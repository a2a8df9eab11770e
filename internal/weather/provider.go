package weather

import (
	"context"
)

// Provider abstracts a raw dataset source (static fixture, delimited file...).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, params Params) ([]Sample, error)
}

// Cache is the contract the in-memory result cache must satisfy.
type Cache interface {
	Get(key string) ([]Sample, bool)
	Save(key string, samples []Sample)
}
