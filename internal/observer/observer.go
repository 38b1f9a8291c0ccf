// Package observer runs the tick scheduler (§4.4): each tick fans out
// sensor prepare phases concurrently, applies them serially in a fixed
// order, augments the topology view, and records a SampleTimestamp.
package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/sdnalyzer/sdnalyzer/internal/metrics"
	"github.com/sdnalyzer/sdnalyzer/internal/sensors"
	"github.com/sdnalyzer/sdnalyzer/internal/store"
	"github.com/sdnalyzer/sdnalyzer/internal/topology"
)

const sensorPrepareTimeout = 10 * time.Second

// maxConcurrentPrepares bounds how many sensors can be mid-Prepare at
// once, so a controller hiccup can't pile up unbounded connections.
const maxConcurrentPrepares = 4

// Augmentor runs after all sensors have applied for a tick.
type Augmentor interface {
	Augment(ctx context.Context, sess *store.Session, sampled time.Time) error
}

type Config struct {
	Logger       *slog.Logger
	Clock        clockwork.Clock
	Store        *store.Store
	Sensors      []sensors.Sensor // fixed apply order, §4.1
	Augmentor    Augmentor
	PollInterval time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if len(cfg.Sensors) == 0 {
		return errors.New("at least one sensor is required")
	}
	if cfg.Augmentor == nil {
		cfg.Augmentor = topology.NewAugmentor()
	}
	if cfg.PollInterval <= 0 {
		return errors.New("poll interval must be greater than 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Observer is the tick scheduler's public state: started, completed,
// poll_interval, healthy (§4.4).
type Observer struct {
	log *slog.Logger
	cfg Config

	mu        sync.RWMutex
	started   time.Time
	completed time.Time
	healthy   bool
}

func New(cfg Config) (*Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Observer{log: cfg.Logger, cfg: cfg}, nil
}

// Status is the admin endpoint's read of observer health.
type Status struct {
	Started      time.Time
	Completed    time.Time
	PollInterval time.Duration
	Healthy      bool
}

func (o *Observer) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Status{
		Started:      o.started,
		Completed:    o.completed,
		PollInterval: o.cfg.PollInterval,
		Healthy:      o.healthy,
	}
}

// Run drives the tick loop. When single is true, it runs exactly one
// tick and returns (no sleep).
func (o *Observer) Run(ctx context.Context, single bool) error {
	for {
		o.Tick(ctx)
		if single {
			return nil
		}

		o.mu.RLock()
		started := o.started
		o.mu.RUnlock()

		// §4.4: sleep = max(0, floor((started + poll_interval) - now())).
		sleep := time.Duration(math.Max(0, math.Floor(
			started.Add(o.cfg.PollInterval).Sub(o.cfg.Clock.Now()).Seconds()))) * time.Second

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.cfg.Clock.After(sleep):
		}
	}
}

// Tick runs one full tick: prepare (parallel, timed out), apply
// (serial, fixed order), augment, timestamp. A failed prepare marks the
// tick unhealthy and skips apply/augment/timestamp entirely (§4.4).
func (o *Observer) Tick(ctx context.Context) {
	start := o.cfg.Clock.Now()
	o.mu.Lock()
	o.started = start
	o.mu.Unlock()

	tickStart := time.Now()
	outcome := "completed"
	defer func() {
		metrics.TickTotal.WithLabelValues(outcome).Inc()
		metrics.TickDuration.Observe(time.Since(tickStart).Seconds())
	}()

	if err := o.prepareAll(ctx); err != nil {
		o.log.Error("observer: tick unhealthy, skipping apply", "error", err)
		o.setHealthy(false)
		outcome = "unhealthy"
		return
	}

	if err := o.applyAll(ctx, start); err != nil {
		o.log.Error("observer: apply failed", "error", err)
		o.setHealthy(false)
		outcome = "unhealthy"
		return
	}

	if err := o.augment(ctx, start); err != nil {
		o.log.Error("observer: augment failed", "error", err)
		o.setHealthy(false)
		outcome = "unhealthy"
		return
	}

	if err := o.timestamp(ctx, start); err != nil {
		o.log.Error("observer: failed to record sample timestamp", "error", err)
		o.setHealthy(false)
		outcome = "unhealthy"
		return
	}

	o.mu.Lock()
	o.completed = o.cfg.Clock.Now()
	o.healthy = true
	o.mu.Unlock()
}

func (o *Observer) setHealthy(v bool) {
	o.mu.Lock()
	o.healthy = v
	o.mu.Unlock()
}

// prepareAll runs every sensor's Prepare concurrently, bounded to
// maxConcurrentPrepares at a time and each bounded by a 10s timeout.
// The first failure (including timeout) cancels the remaining prepares
// and fails the tick.
func (o *Observer) prepareAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPrepares)

	for _, sn := range o.cfg.Sensors {
		sn := sn
		g.Go(func() error {
			prepCtx, cancel := context.WithTimeout(gctx, sensorPrepareTimeout)
			defer cancel()

			start := time.Now()
			err := sn.Prepare(prepCtx)
			metrics.SensorPrepareDuration.WithLabelValues(sn.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				outcome := "error"
				if errors.Is(err, context.DeadlineExceeded) {
					outcome = "timeout"
				}
				metrics.SensorPrepareTotal.WithLabelValues(sn.Name(), outcome).Inc()
				return fmt.Errorf("%s: %w", sn.Name(), err)
			}
			metrics.SensorPrepareTotal.WithLabelValues(sn.Name(), "ok").Inc()
			return nil
		})
	}
	return g.Wait()
}

// applyAll runs every sensor's Apply serially in the configured order,
// each inside its own Session/transaction (§4.4: a store error in one
// sensor's apply rolls back only that sensor's transaction).
func (o *Observer) applyAll(ctx context.Context, now time.Time) error {
	for _, sn := range o.cfg.Sensors {
		if err := o.applyOne(ctx, sn, now); err != nil {
			return err
		}
	}
	return nil
}

func (o *Observer) applyOne(ctx context.Context, sn sensors.Sensor, now time.Time) error {
	sess, err := o.cfg.Store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin session: %w", sn.Name(), err)
	}

	start := time.Now()
	err = sn.Apply(ctx, sess, now)
	metrics.SensorApplyDuration.WithLabelValues(sn.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SensorApplyTotal.WithLabelValues(sn.Name(), "error").Inc()
		if rbErr := sess.Rollback(ctx); rbErr != nil {
			o.log.Error("observer: rollback failed", "sensor", sn.Name(), "error", rbErr)
		}
		return fmt.Errorf("%s: %w", sn.Name(), err)
	}

	if err := sess.Commit(ctx); err != nil {
		metrics.SensorApplyTotal.WithLabelValues(sn.Name(), "error").Inc()
		return fmt.Errorf("%s: failed to commit: %w", sn.Name(), err)
	}
	metrics.SensorApplyTotal.WithLabelValues(sn.Name(), "ok").Inc()
	return nil
}

// augment ensures every node has a NodeSample row for `now`, then runs
// the centrality augmentor in its own session.
func (o *Observer) augment(ctx context.Context, now time.Time) error {
	sess, err := o.cfg.Store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin augment session: %w", err)
	}
	if err := sess.EnsureNodeSampleForTick(ctx, now); err != nil {
		sess.Rollback(ctx)
		return fmt.Errorf("failed to ensure node samples: %w", err)
	}
	if err := o.cfg.Augmentor.Augment(ctx, sess, now); err != nil {
		sess.Rollback(ctx)
		return fmt.Errorf("failed to augment: %w", err)
	}
	return sess.Commit(ctx)
}

func (o *Observer) timestamp(ctx context.Context, now time.Time) error {
	sess, err := o.cfg.Store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin timestamp session: %w", err)
	}
	if err := sess.InsertSampleTimestamp(ctx, now, o.cfg.PollInterval); err != nil {
		sess.Rollback(ctx)
		return err
	}
	return sess.Commit(ctx)
}
