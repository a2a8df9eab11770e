package weather

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Resolver maps a dataset id plus query parameters to a cached, filtered and
// decimated sample sequence. One Resolver is shared by the whole application.
type Resolver struct {
	datasets  Datasets
	cache     Cache
	providers map[string]Provider

	mu         sync.RWMutex
	strategies map[string]Strategy

	flights singleflight.Group
}

// NewResolver creates a Resolver. Providers are registered under their Name.
func NewResolver(datasets Datasets, cache Cache, providers ...Provider) *Resolver {
	r := &Resolver{
		datasets:   datasets,
		cache:      cache,
		providers:  make(map[string]Provider, len(providers)),
		strategies: map[string]Strategy{StrategySimple: Systematic},
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// RegisterStrategy makes a decimation strategy available to dataset descriptors.
func (r *Resolver) RegisterStrategy(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Datasets returns the dataset configuration the resolver serves.
func (r *Resolver) Datasets() Datasets {
	return r.datasets
}

// CacheKey derives the cache key of a request. Filter ids are concatenated in
// the given order: the same filters in another order are another query.
func CacheKey(datasetID string, maxItem int, filters []Filter) string {
	var ids strings.Builder
	for _, f := range filters {
		ids.WriteString(f.ID)
	}

	h := md5.New()
	h.Write([]byte(datasetID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxItem)))
	h.Write([]byte{0})
	h.Write([]byte(ids.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// Resolve returns the samples of datasetID, filtered in order by filters and
// reduced to at most maxItem samples (0 means all).
//
// Only ErrUnknownDataset is returned. Any other failure is logged and yields
// an empty sequence, which callers must read as "no data available".
func (r *Resolver) Resolve(ctx context.Context, datasetID string, maxItem int, filters []Filter) ([]Sample, error) {
	if maxItem < 0 {
		maxItem = 0
	}

	key := CacheKey(datasetID, maxItem, filters)
	if samples, ok := r.cache.Get(key); ok {
		log.Printf("DEBUG: resolver: %s served from cache (key %s)", datasetID, key)
		return samples, nil
	}

	desc, ok := r.datasets[datasetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, datasetID)
	}

	// A superseded caller must not abort the shared fetch: it still completes
	// and fills the cache.
	fetchCtx := context.WithoutCancel(ctx)

	v, _, _ := r.flights.Do(key, func() (interface{}, error) {
		if samples, ok := r.cache.Get(key); ok {
			return samples, nil
		}
		samples, cacheable := r.load(fetchCtx, datasetID, desc, maxItem, filters)
		if cacheable {
			r.cache.Save(key, samples)
		}
		return samples, nil
	})

	return v.([]Sample), nil
}

// load runs the fetch, filter and decimation steps. The boolean reports
// whether the result may be cached: failed fetches are not.
func (r *Resolver) load(ctx context.Context, datasetID string, desc DatasetDescriptor, maxItem int, filters []Filter) ([]Sample, bool) {
	log.Printf("DEBUG: resolver: loading dataset %s (max %d, %d filters)", datasetID, maxItem, len(filters))

	p, ok := r.providers[desc.Provider]
	if !ok {
		log.Printf("ERROR: resolver: dataset %s: %v: %q", datasetID, ErrUnknownProvider, desc.Provider)
		return []Sample{}, false
	}

	data, err := fetch(ctx, p, desc.Params)
	if err != nil {
		log.Printf("ERROR: resolver: dataset %s: provider %s fetch failed: %v", datasetID, p.Name(), err)
		return []Sample{}, false
	}
	if data == nil {
		data = []Sample{}
	}

	data, err = applyFilters(data, filters)
	if err != nil {
		log.Printf("ERROR: resolver: dataset %s: %v; keeping partially filtered data", datasetID, err)
	}

	return r.decimate(datasetID, desc, data, maxItem), true
}

func (r *Resolver) decimate(datasetID string, desc DatasetDescriptor, data []Sample, maxItem int) []Sample {
	if maxItem == 0 {
		return data
	}

	if desc.Interpolation != "" {
		r.mu.RLock()
		strategy, ok := r.strategies[desc.Interpolation]
		r.mu.RUnlock()
		if !ok {
			log.Printf("ERROR: resolver: dataset %s: %v: %q; truncating instead", datasetID, ErrUnknownInterpolation, desc.Interpolation)
		} else if out, err := decimateWith(strategy, data, maxItem); err != nil {
			log.Printf("ERROR: resolver: dataset %s: %v; truncating instead", datasetID, err)
		} else {
			return out
		}
	}

	if len(data) > maxItem {
		return data[:maxItem]
	}
	return data
}

// fetch calls the provider, reporting a panic as ErrResourceUnavailable.
func fetch(ctx context.Context, p Provider, params Params) (data []Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: provider %s panicked: %v", ErrResourceUnavailable, p.Name(), r)
		}
	}()
	return p.Fetch(ctx, params)
}

// decimateWith runs a strategy, reporting a panic as ErrStrategy.
func decimateWith(strategy Strategy, data []Sample, maxItem int) (out []Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrStrategy, r)
		}
	}()
	return strategy(data, maxItem), nil
}
