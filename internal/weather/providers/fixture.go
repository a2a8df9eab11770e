package providers

import (
	"context"
	"fmt"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// fixtureRows is a small monthly rain series used for smoke tests.
var fixtureRows = []weather.Row{
	{"date": "19700101", "value": "4"},
	{"date": "19700201", "value": "0"},
	{"date": "19700301", "value": "0"},
	{"date": "19700401", "value": "3"},
	{"date": "19700501", "value": "5"},
}

// FixtureProvider serves a fixed literal series. Only the optional transform
// param is read; it defaults to big-endian, the encoding of the literal dates.
type FixtureProvider struct{}

func NewFixtureProvider() *FixtureProvider {
	return &FixtureProvider{}
}

func (p *FixtureProvider) Name() string {
	return "fixture"
}

func (p *FixtureProvider) Fetch(_ context.Context, params weather.Params) ([]weather.Sample, error) {
	name := params.Transform()
	if name == "" {
		name = weather.TransformBigEndian
	}
	transform, ok := weather.TransformByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", weather.ErrUnknownTransform, name)
	}

	samples := make([]weather.Sample, 0, len(fixtureRows))
	for _, row := range fixtureRows {
		s, err := transform(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrMalformedSource, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}
