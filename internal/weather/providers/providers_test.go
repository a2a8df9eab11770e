package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vostoksystem/station-meteo/internal/store"
	"github.com/vostoksystem/station-meteo/internal/weather"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestCSVProvider(t *testing.T, baseURL string) *CSVProvider {
	t.Helper()
	p, err := NewCSVProvider(HTTPClientConfig{Client: http.DefaultClient, Backoff: fastBackoff}, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func serve(body string, status int, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestFixtureProvider(t *testing.T) {
	got, err := NewFixtureProvider().Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []weather.Sample{
		{Date: day(1970, 1, 1), Value: "4"},
		{Date: day(1970, 2, 1), Value: "0"},
		{Date: day(1970, 3, 1), Value: "0"},
		{Date: day(1970, 4, 1), Value: "3"},
		{Date: day(1970, 5, 1), Value: "5"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected samples (-want +got):\n%s", diff)
	}

	if _, err := NewFixtureProvider().Fetch(context.Background(), weather.Params{"transform": "nope"}); !errors.Is(err, weather.ErrUnknownTransform) {
		t.Fatalf("expected ErrUnknownTransform, got %v", err)
	}
}

func TestCSVProviderSeparatorAndTransform(t *testing.T) {
	srv := serve("date;value\n19700101;4\n19700201;0\n", http.StatusOK, nil)
	defer srv.Close()

	p := newTestCSVProvider(t, "")
	got, err := p.Fetch(context.Background(), weather.Params{
		"url":       srv.URL + "/rain.csv",
		"separator": ";",
		"transform": weather.TransformBigEndian,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []weather.Sample{
		{Date: day(1970, 1, 1), Value: "4"},
		{Date: day(1970, 2, 1), Value: "0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected samples (-want +got):\n%s", diff)
	}
}

func TestCSVProviderRelativeURLAndAutoType(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, "\ufeffdate,value\n1970-01-01, 12.50\nnot-a-date,3\n1970-01-02,13\n")
	}))
	defer srv.Close()

	p := newTestCSVProvider(t, srv.URL+"/")
	got, err := p.Fetch(context.Background(), weather.Params{"url": "data/temperature.csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/data/temperature.csv" {
		t.Fatalf("unexpected request path %q", path)
	}
	want := []weather.Sample{
		{Date: day(1970, 1, 1), Value: "12.5"},
		{Date: day(1970, 1, 2), Value: "13"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected samples (-want +got):\n%s", diff)
	}
}

func TestCSVProviderNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := serve("missing", http.StatusNotFound, &hits)
	defer srv.Close()

	_, err := newTestCSVProvider(t, "").Fetch(context.Background(), weather.Params{"url": srv.URL})
	if !errors.Is(err, weather.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d requests", hits.Load())
	}
}

func TestResolveUnreachableCSVResourceYieldsEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := serve("missing", http.StatusNotFound, &hits)
	defer srv.Close()

	cache := store.NewMemoryStore(0, 0)
	datasets := weather.Datasets{
		"rain-level": {Provider: "csv", Params: weather.Params{"url": srv.URL + "/rain-level.csv"}},
	}
	r := weather.NewResolver(datasets, cache, newTestCSVProvider(t, ""))

	got, err := r.Resolve(context.Background(), "rain-level", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty non-nil sequence, got %#v", got)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected the failure not to be cached, got %d entries", cache.Len())
	}

	// Not cached, so the next request goes back to the source.
	if _, err := r.Resolve(context.Background(), "rain-level", 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", hits.Load())
	}
}

func TestCSVProviderUnnamedColumns(t *testing.T) {
	srv := serve("DATE;RR;TN\n19700101;4;-2\n19700201;0;1\n", http.StatusOK, nil)
	defer srv.Close()

	got, err := newTestCSVProvider(t, "").Fetch(context.Background(), weather.Params{
		"url":       srv.URL,
		"separator": ";",
		"transform": weather.TransformBigEndian,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []weather.Sample{
		{Date: day(1970, 1, 1), Value: "4"},
		{Date: day(1970, 2, 1), Value: "0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected samples (-want +got):\n%s", diff)
	}
}

func TestCSVProviderRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := serve("", http.StatusBadGateway, &hits)
	defer srv.Close()

	_, err := newTestCSVProvider(t, "").Fetch(context.Background(), weather.Params{"url": srv.URL})
	if !errors.Is(err, weather.ErrResourceUnavailable) {
		t.Fatalf("expected ErrResourceUnavailable, got %v", err)
	}
	if got := hits.Load(); got != int32(fastBackoff.MaxRetries+1) {
		t.Fatalf("expected %d attempts, got %d", fastBackoff.MaxRetries+1, got)
	}
}

func TestCSVProviderMalformedBodyYieldsEmpty(t *testing.T) {
	srv := serve("date,value\n\"19700101,4\n", http.StatusOK, nil)
	defer srv.Close()

	got, err := newTestCSVProvider(t, "").Fetch(context.Background(), weather.Params{"url": srv.URL, "transform": weather.TransformBigEndian})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty sequence, got %#v", got)
	}
}

func TestCSVProviderConfigErrors(t *testing.T) {
	p := newTestCSVProvider(t, "")
	tests := []struct {
		params weather.Params
		want   error
	}{
		{weather.Params{"url": "http://example.invalid", "transform": "julian"}, weather.ErrUnknownTransform},
		{weather.Params{"url": "http://example.invalid", "separator": "::"}, weather.ErrMalformedSource},
		{weather.Params{}, weather.ErrResourceUnavailable},
	}
	for _, tt := range tests {
		if _, err := p.Fetch(context.Background(), tt.params); !errors.Is(err, tt.want) {
			t.Errorf("%v: expected %v, got %v", tt.params, tt.want, err)
		}
	}
}

func TestOpenMeteoProvider(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, `{"daily":{"time":["1970-01-01","1970-01-02","1970-01-03"],"precipitation_sum":[1.5,null,0]}}`)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(HTTPClientConfig{Client: http.DefaultClient, Backoff: fastBackoff}, srv.URL)
	got, err := p.Fetch(context.Background(), weather.Params{
		"latitude":  "48.85",
		"longitude": "2.35",
		"variable":  "precipitation_sum",
		"start":     "1970-01-01",
		"end":       "1970-01-03",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query == "" {
		t.Fatal("expected query parameters")
	}
	want := []weather.Sample{
		{Date: day(1970, 1, 1), Value: "1.5"},
		{Date: day(1970, 1, 3), Value: "0"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected samples (-want +got):\n%s", diff)
	}

	if _, err := p.Fetch(context.Background(), weather.Params{"latitude": "1"}); err == nil {
		t.Fatal("expected an error for missing params")
	}
}
