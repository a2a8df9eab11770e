package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sony/gobreaker"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// CSVProvider fetches a delimited text file over HTTP and turns every row into
// a sample with the transform named in the dataset params.
//
// Params: url (absolute, or relative to the base URL), separator (default ","),
// transform (big-endian, iso8601 or auto; auto when empty).
//
// Transforms read the "date" and "value" columns. A header without them falls
// back to the first column as date and the second as value.
type CSVProvider struct {
	name    string
	baseURL *url.URL
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewCSVProvider creates a CSVProvider. Relative dataset URLs are resolved
// against baseURL, which may be empty when every URL is absolute.
func NewCSVProvider(cfg HTTPClientConfig, baseURL string) (*CSVProvider, error) {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
		}
		base = u
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}

	return &CSVProvider{
		name:    "csv",
		baseURL: base,
		httpCfg: cfg,
		circuit: newCircuitBreaker("csv"),
	}, nil
}

func (p *CSVProvider) Name() string {
	return p.name
}

func (p *CSVProvider) Fetch(ctx context.Context, params weather.Params) ([]weather.Sample, error) {
	transform, ok := weather.TransformByName(params.Transform())
	if !ok {
		return nil, fmt.Errorf("%w: %q", weather.ErrUnknownTransform, params.Transform())
	}

	sep, size := utf8.DecodeRuneInString(params.Separator())
	if size != len(params.Separator()) || sep == utf8.RuneError {
		return nil, fmt.Errorf("%w: separator %q must be a single character", weather.ErrMalformedSource, params.Separator())
	}

	target, err := p.resolveURL(params.URL())
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, target, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	defer resp.Body.Close()

	samples, err := parseDelimited(resp.Body, sep, transform)
	if err != nil {
		log.Printf("ERROR: csv: reading %s failed: %v", target, err)
		return []weather.Sample{}, nil
	}
	return samples, nil
}

func (p *CSVProvider) resolveURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: no url configured", weather.ErrResourceUnavailable)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url %q: %v", weather.ErrResourceUnavailable, raw, err)
	}
	if !u.IsAbs() && p.baseURL != nil {
		u = p.baseURL.ResolveReference(u)
	}
	return u.String(), nil
}

// parseDelimited reads a header line followed by data rows. Rows the
// transform rejects are skipped and reported in a single log line.
func parseDelimited(r io.Reader, sep rune, transform weather.Transform) ([]weather.Sample, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []weather.Sample{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", weather.ErrMalformedSource, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	dateCol, valueCol := aliasColumns(columns)

	samples := []weather.Sample{}
	var skipped int
	var firstErr error
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrMalformedSource, err)
		}

		row := make(weather.Row, len(columns)+2)
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		if dateCol >= 0 && dateCol < len(record) {
			row["date"] = record[dateCol]
		}
		if valueCol >= 0 && valueCol < len(record) {
			row["value"] = record[valueCol]
		}

		s, err := transform(row)
		if err != nil {
			skipped++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		samples = append(samples, s)
	}

	if skipped > 0 {
		log.Printf("INFO: csv: skipped %d rows with an invalid date (first: %v)", skipped, firstErr)
	}
	return samples, nil
}

// aliasColumns picks the columns read as "date" and "value" when the header
// does not name them: the first column is the date, the second the value.
// A returned index of -1 means the header already has that column.
func aliasColumns(columns []string) (dateCol, valueCol int) {
	dateCol, valueCol = -1, -1
	var hasDate, hasValue bool
	for _, c := range columns {
		switch c {
		case "date":
			hasDate = true
		case "value":
			hasValue = true
		}
	}
	if !hasDate && len(columns) > 0 {
		dateCol = 0
	}
	if !hasValue && len(columns) > 1 {
		valueCol = 1
	}
	return dateCol, valueCol
}
