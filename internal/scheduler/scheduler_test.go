package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

type recordingResolver struct {
	mu       sync.Mutex
	datasets []string
	maxItems []int
}

func (r *recordingResolver) Resolve(_ context.Context, datasetID string, maxItem int, _ []weather.Filter) ([]weather.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets = append(r.datasets, datasetID)
	r.maxItems = append(r.maxItems, maxItem)
	if datasetID == "broken" {
		return nil, weather.ErrUnknownDataset
	}
	return []weather.Sample{}, nil
}

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 0
}

var graphs = []weather.GraphDescriptor{
	{Key: "rain-level", Dataset: "rain-level"},
	{Key: "temperature", Dataset: "temperature"},
	{Key: "broken", Dataset: "broken"},
}

func TestWarmUpResolvesEveryGraph(t *testing.T) {
	r := &recordingResolver{}
	s := New(graphs, Config{WarmupMaxItems: 365}, r, nil)

	s.WarmUp(context.Background())

	sort.Strings(r.datasets)
	want := []string{"broken", "rain-level", "temperature"}
	if diff := cmp.Diff(want, r.datasets); diff != "" {
		t.Fatalf("unexpected datasets (-want +got):\n%s", diff)
	}
	for _, m := range r.maxItems {
		if m != 365 {
			t.Fatalf("expected max items 365, got %d", m)
		}
	}
}

func TestStartRunsJobs(t *testing.T) {
	r := &recordingResolver{}
	sw := &countingSweeper{}
	s := New(graphs[:1], Config{WarmupInterval: time.Hour, SweepInterval: 10 * time.Millisecond}, r, sw)

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		warmed := len(r.datasets)
		r.mu.Unlock()
		if warmed == 1 && sw.calls.Load() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected the warm-up and sweep jobs to run, got %d sweeps", sw.calls.Load())
}
