package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// SeriesResolver is the part of the resolver a graph depends on.
type SeriesResolver interface {
	Resolve(ctx context.Context, datasetID string, maxItem int, filters []weather.Filter) ([]weather.Sample, error)
}

// State is what a graph shows: a loading indicator, an error, or a series.
type State struct {
	Loading bool
	Err     error
	Samples []weather.Sample
}

// GraphContainer drives the resolver for one graph. It sizes requests to the
// rendered width and debounces bursts of resize and date-range events.
type GraphContainer struct {
	graph    weather.GraphDescriptor
	resolver SeriesResolver
	debounce *Debouncer
	onChange func(State)
	ctx      context.Context

	mu    sync.Mutex
	width int
	// size is the item cap of the last request, fixed as soon as it is
	// scheduled so that a burst of resizes does not queue several refreshes.
	size       int
	start, end time.Time
	state      State
}

// NewGraphContainer creates a container. onChange, if set, receives every
// state change; it is called from the debouncer goroutine.
func NewGraphContainer(ctx context.Context, graph weather.GraphDescriptor, resolver SeriesResolver, delay time.Duration, onChange func(State)) *GraphContainer {
	return &GraphContainer{
		graph:    graph,
		resolver: resolver,
		debounce: NewDebouncer(delay),
		onChange: onChange,
		ctx:      ctx,
		state:    State{Loading: true},
	}
}

// Resize reports the rendered width of the chart. Shrinking never triggers a
// request: the samples already loaded are enough.
func (g *GraphContainer) Resize(width int) {
	g.mu.Lock()
	if width == g.width {
		g.mu.Unlock()
		return
	}
	g.width = width
	if width <= g.size {
		g.mu.Unlock()
		return
	}
	g.size = width
	g.mu.Unlock()

	g.schedule()
}

// SelectDates sets the date range to display; zero times are open bounds.
func (g *GraphContainer) SelectDates(start, end time.Time) {
	g.mu.Lock()
	if start.Equal(g.start) && end.Equal(g.end) {
		g.mu.Unlock()
		return
	}
	g.start, g.end = start, end
	g.mu.Unlock()

	g.schedule()
}

// State returns the current state of the graph.
func (g *GraphContainer) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Close cancels any pending refresh.
func (g *GraphContainer) Close() {
	g.debounce.Stop()
}

func (g *GraphContainer) schedule() {
	g.mu.Lock()
	size := g.size
	// Filter ids encode their dates, which keeps the cache key exact.
	filters := weather.DateRangeFilters(g.start, g.end)
	g.mu.Unlock()

	g.debounce.Trigger(func() { g.refresh(size, filters) })
}

func (g *GraphContainer) refresh(size int, filters []weather.Filter) {
	if size <= 0 {
		log.Printf("DEBUG: dashboard: %s: size is 0, skipping refresh", g.graph.Dataset)
		return
	}

	g.setState(State{Loading: true})

	samples, err := g.resolver.Resolve(g.ctx, g.graph.Dataset, size, filters)
	if err != nil {
		log.Printf("ERROR: dashboard: loading %s failed: %v", g.graph.Dataset, err)
		g.setState(State{Err: err})
		return
	}
	g.setState(State{Samples: samples})
}

func (g *GraphContainer) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()

	if g.onChange != nil {
		g.onChange(s)
	}
}
