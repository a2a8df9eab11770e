package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// Resolver is the part of weather.Resolver the warm-up job needs.
type Resolver interface {
	Resolve(ctx context.Context, datasetID string, maxItem int, filters []weather.Filter) ([]weather.Sample, error)
}

// Sweeper drops expired cache entries.
type Sweeper interface {
	Sweep() int
}

// Config holds the job intervals. A zero interval disables the job.
type Config struct {
	WarmupInterval time.Duration
	WarmupMaxItems int
	SweepInterval  time.Duration
}

// Scheduler periodically warms the result cache for every graph dataset and
// sweeps expired cache entries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  Resolver
	sweeper   Sweeper
	graphs    []weather.GraphDescriptor
	cfg       Config
}

// New creates a new Scheduler. sweeper may be nil when the cache never expires.
func New(graphs []weather.GraphDescriptor, cfg Config, resolver Resolver, sweeper Sweeper) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		resolver:  resolver,
		sweeper:   sweeper,
		graphs:    graphs,
		cfg:       cfg,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
// The warm-up job runs once immediately.
func (s *Scheduler) Start() error {
	if len(s.graphs) > 0 && s.cfg.WarmupInterval > 0 {
		_, err := s.scheduler.Every(s.cfg.WarmupInterval).SingletonMode().Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.WarmUp(ctx)
		})
		if err != nil {
			return err
		}
	} else {
		log.Println("scheduler: no graphs or warm-up disabled; nothing to warm up")
	}

	if s.sweeper != nil && s.cfg.SweepInterval > 0 {
		_, err := s.scheduler.Every(s.cfg.SweepInterval).WaitForSchedule().Do(func() {
			if n := s.sweeper.Sweep(); n > 0 {
				log.Printf("scheduler: swept %d expired series", n)
			}
		})
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// WarmUp resolves every graph dataset concurrently so the first dashboard
// view is served from cache. Failures are logged, never returned.
func (s *Scheduler) WarmUp(ctx context.Context) {
	log.Println("scheduler: running cache warm-up job")

	g, ctx := errgroup.WithContext(ctx)
	for _, graph := range s.graphs {
		graph := graph
		g.Go(func() error {
			samples, err := s.resolver.Resolve(ctx, graph.Dataset, s.cfg.WarmupMaxItems, nil)
			if err != nil {
				log.Printf("scheduler: warm-up failed for %s: %v", graph.Dataset, err)
				return nil
			}
			log.Printf("scheduler: %s warmed with %d samples", graph.Dataset, len(samples))
			return nil
		})
	}
	_ = g.Wait()

	log.Println("scheduler: completed cache warm-up job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
