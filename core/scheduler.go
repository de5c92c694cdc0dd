package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rescuelink/telemetry-simulator/internal/logging"
	"github.com/rescuelink/telemetry-simulator/timectrl"
)

// Producer computes one telemetry sample for its topic class. Producers own
// their internal state; the scheduler never inspects it, it only invokes
// Produce and hands the result to the sink.
type Producer interface {
	Produce(now time.Time) (any, error)
}

// ProducerFunc adapts a plain function to the Producer interface.
type ProducerFunc func(now time.Time) (any, error)

// Produce calls f.
func (f ProducerFunc) Produce(now time.Time) (any, error) { return f(now) }

// Sink receives each produced sample alongside its topic class. The emitter
// in internal/publish implements this over the bus.
type Sink interface {
	Emit(ctx context.Context, class string, payload any) error
}

// MetricsRecorder receives scheduler activity for metrics export. All
// methods must be safe for concurrent use.
type MetricsRecorder interface {
	RecordPublish(class string, err error)
	RecordProducerFailure(class string)
	ObserveStep(d time.Duration)
}

// ScheduleEntry is one registered periodic producer.
type ScheduleEntry struct {
	Class    string
	Cadence  time.Duration
	Producer Producer

	// lastFired advances to "now" on every fire rather than to
	// lastFired+Cadence, admitting drift instead of catch-up bursts.
	lastFired time.Time
}

// Scheduler drives all registered producers at their own cadences from a
// single polling loop, dispatching each sample to the sink. Firing order
// among simultaneously-due entries is registration order. A producer fault
// (error or panic) is logged and counted but never deregisters the producer.
type Scheduler struct {
	clock    timectrl.Clock
	sink     Sink
	log      logging.Logger
	recorder MetricsRecorder

	poll    time.Duration
	entries []*ScheduleEntry
}

// SchedulerOption tweaks scheduler construction.
type SchedulerOption func(*Scheduler)

// WithPollInterval overrides the polling interval of the run loop. The
// interval bounds both fire latency and shutdown latency.
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.poll = d
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder.
func WithMetricsRecorder(r MetricsRecorder) SchedulerOption {
	return func(s *Scheduler) { s.recorder = r }
}

// DefaultPollInterval is short enough to honour the fastest cadence in the
// default scenario (the 100 ms waveform batches).
const DefaultPollInterval = 50 * time.Millisecond

// NewScheduler constructs a scheduler polling the given clock and emitting
// into the given sink.
func NewScheduler(clock timectrl.Clock, sink Sink, log logging.Logger, opts ...SchedulerOption) *Scheduler {
	if log == nil {
		log = logging.Noop()
	}
	s := &Scheduler{
		clock: clock,
		sink:  sink,
		log:   log,
		poll:  DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a producer under the given topic class. Registration order
// is fire order for simultaneously-due entries. Register must not be called
// once Run has started.
func (s *Scheduler) Register(class string, cadence time.Duration, p Producer) error {
	if cadence <= 0 {
		return fmt.Errorf("cadence for %q must be positive, got %v", class, cadence)
	}
	if p == nil {
		return fmt.Errorf("producer for %q is nil", class)
	}
	s.entries = append(s.entries, &ScheduleEntry{
		Class:    class,
		Cadence:  cadence,
		Producer: p,
	})
	return nil
}

// Entries returns the number of registered producers.
func (s *Scheduler) Entries() int { return len(s.entries) }

// Run polls the clock until ctx is cancelled, firing every due entry on each
// tick. Cancellation is observed within one polling interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info(ctx, "scheduler started",
		logging.Int("producers", len(s.entries)),
		logging.String("poll", s.poll.String()),
	)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scheduler stopped")
			return
		case <-ticker.C:
			begin := time.Now()
			s.Step(ctx, s.clock.Now())
			if s.recorder != nil {
				s.recorder.ObserveStep(time.Since(begin))
			}
		}
	}
}

// Step fires every entry whose cadence has elapsed at the given time, in
// registration order. An entry with a zero lastFired fires immediately.
// Step is exported so tests can drive the scheduler with a manual clock.
func (s *Scheduler) Step(ctx context.Context, now time.Time) {
	for _, e := range s.entries {
		if e.lastFired.IsZero() || now.Sub(e.lastFired) >= e.Cadence {
			s.fire(ctx, e, now)
			e.lastFired = now
		}
	}
}

// fire invokes one producer and publishes its sample. Panics are contained
// here so a faulty producer cannot take the loop down.
func (s *Scheduler) fire(ctx context.Context, e *ScheduleEntry, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "producer panicked",
				logging.String("class", e.Class),
				logging.Any("panic", r),
			)
			if s.recorder != nil {
				s.recorder.RecordProducerFailure(e.Class)
			}
		}
	}()

	payload, err := e.Producer.Produce(now)
	if err != nil {
		s.log.Error(ctx, "producer failed",
			logging.String("class", e.Class),
			logging.String("error", err.Error()),
		)
		if s.recorder != nil {
			s.recorder.RecordProducerFailure(e.Class)
		}
		return
	}

	err = s.sink.Emit(ctx, e.Class, payload)
	if err != nil {
		// Best-effort telemetry: report and move on, the next cadence
		// will try again.
		s.log.Warn(ctx, "publish failed",
			logging.String("class", e.Class),
			logging.String("error", err.Error()),
		)
	}
	if s.recorder != nil {
		s.recorder.RecordPublish(e.Class, err)
	}
}
