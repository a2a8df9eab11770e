package weather

import (
	"fmt"
	"time"
)

// Filter narrows a sample sequence. ID must encode every parameter of Keep:
// it is the only part of the filter the cache key sees.
type Filter struct {
	ID   string
	Keep func(Sample) bool
}

const dayLayout = "2006-01-02"

// StartFilter keeps samples dated on or after start.
func StartFilter(start time.Time) Filter {
	return Filter{
		ID:   "start-" + start.Format(dayLayout),
		Keep: func(s Sample) bool { return !s.Date.Before(start) },
	}
}

// EndFilter keeps samples dated on or before end.
func EndFilter(end time.Time) Filter {
	return Filter{
		ID:   "end-" + end.Format(dayLayout),
		Keep: func(s Sample) bool { return !s.Date.After(end) },
	}
}

// DateRangeFilters returns the start then end filters, skipping zero bounds.
func DateRangeFilters(start, end time.Time) []Filter {
	var filters []Filter
	if !start.IsZero() {
		filters = append(filters, StartFilter(start))
	}
	if !end.IsZero() {
		filters = append(filters, EndFilter(end))
	}
	return filters
}

// applyFilters runs the filters in order. A panicking filter stops the chain;
// the samples kept by the previous filters are returned with an ErrFilter.
func applyFilters(samples []Sample, filters []Filter) (out []Sample, err error) {
	out = samples
	for _, f := range filters {
		next, ferr := applyFilter(out, f)
		if ferr != nil {
			return out, ferr
		}
		out = next
	}
	return out, nil
}

func applyFilter(samples []Sample, f Filter) (out []Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %s: %v", ErrFilter, f.ID, r)
		}
	}()

	if f.Keep == nil {
		return nil, fmt.Errorf("%w: %s: no predicate", ErrFilter, f.ID)
	}

	out = make([]Sample, 0, len(samples))
	for _, s := range samples {
		if f.Keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}
