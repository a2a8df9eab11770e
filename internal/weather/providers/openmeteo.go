package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// OpenMeteoArchiveURL is the historical weather endpoint of Open-Meteo.
const OpenMeteoArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// OpenMeteoProvider reads one daily variable from the Open-Meteo archive API.
//
// Params: latitude, longitude, variable (e.g. precipitation_sum,
// temperature_2m_mean), start and end (YYYY-MM-DD).
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = OpenMeteoArchiveURL
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, params weather.Params) ([]weather.Sample, error) {
	for _, k := range []string{"latitude", "longitude", "variable", "start", "end"} {
		if params[k] == "" {
			return nil, fmt.Errorf("openmeteo requires the %q param", k)
		}
	}
	variable := params["variable"]

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", params["latitude"])
		values.Set("longitude", params["longitude"])
		values.Set("start_date", params["start"])
		values.Set("end_date", params["end"])
		values.Set("daily", variable)
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily map[string]json.RawMessage `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrMalformedSource, err)
	}

	var days []string
	var values []*float64
	if err := json.Unmarshal(payload.Daily["time"], &days); err != nil {
		return nil, fmt.Errorf("%w: daily.time: %v", weather.ErrMalformedSource, err)
	}
	if err := json.Unmarshal(payload.Daily[variable], &values); err != nil {
		return nil, fmt.Errorf("%w: daily.%s: %v", weather.ErrMalformedSource, variable, err)
	}
	if len(days) != len(values) {
		return nil, fmt.Errorf("%w: %d days for %d values", weather.ErrMalformedSource, len(days), len(values))
	}

	samples := make([]weather.Sample, 0, len(days))
	for i, d := range days {
		// Open-Meteo reports missing measurements as null.
		if values[i] == nil {
			continue
		}
		ts, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrMalformedSource, err)
		}
		samples = append(samples, weather.Sample{
			Date:  ts,
			Value: weather.Value(strconv.FormatFloat(*values[i], 'f', -1, 64)),
		})
	}
	return samples, nil
}
