package weather

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Summary describes the numeric content of a resolved series.
type Summary struct {
	Count        int       `json:"count"`
	NumericCount int       `json:"numericCount"`
	From         *time.Time `json:"from,omitempty"` // nil for an empty series
	To           *time.Time `json:"to,omitempty"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Mean         float64   `json:"mean"`
	Median       float64   `json:"median"`
}

// Summarize coerces sample values to numbers and computes basic statistics.
// Values that are not numeric are counted but ignored by the statistics.
func Summarize(samples []Sample) (Summary, error) {
	sum := Summary{Count: len(samples)}
	if len(samples) == 0 {
		return sum, nil
	}

	values := make(stats.Float64Data, 0, len(samples))
	from, to := samples[0].Date, samples[0].Date
	for _, s := range samples {
		if s.Date.Before(from) {
			from = s.Date
		}
		if s.Date.After(to) {
			to = s.Date
		}
		f, err := s.Value.Float64()
		if err != nil {
			continue
		}
		values = append(values, f)
	}

	sum.From, sum.To = &from, &to
	sum.NumericCount = len(values)
	if len(values) == 0 {
		return sum, nil
	}

	var err error
	if sum.Min, err = stats.Min(values); err != nil {
		return sum, err
	}
	if sum.Max, err = stats.Max(values); err != nil {
		return sum, err
	}
	if sum.Mean, err = stats.Mean(values); err != nil {
		return sum, err
	}
	if sum.Median, err = stats.Median(values); err != nil {
		return sum, err
	}
	return sum, nil
}
