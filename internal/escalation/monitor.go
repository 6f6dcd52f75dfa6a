package escalation

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/observability"
)

// DefaultInterval matches the polling period of the dashboard.
const DefaultInterval = 10 * time.Second

// Source yields the current ticket snapshot.
type Source interface {
	Tickets(ctx context.Context) ([]domain.Ticket, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]domain.Ticket, error)

// Tickets implements Source.
func (f SourceFunc) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	return f(ctx)
}

// Publisher receives every computed result.
type Publisher interface {
	Publish(ctx context.Context, result Result) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, result Result) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, result Result) error {
	return f(ctx, result)
}

// Result is one evaluation of the escalation predicate.
type Result struct {
	ComputedAt time.Time
	Scanned    int
	Escalated  Set
}

// MonitorOptions configures a Monitor. Zero values fall back to defaults.
type MonitorOptions struct {
	Interval  time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Publisher Publisher
	// OnEscalated is called with tickets that were not escalated in the previous result.
	OnEscalated func(ctx context.Context, tickets []domain.Ticket)
}

// Monitor recomputes the escalated set on a fixed interval. Readers see the latest result
// through Latest; the only shared state is an atomic pointer.
type Monitor struct {
	source      Source
	interval    time.Duration
	now         func() time.Time
	logger      *zap.Logger
	metrics     *observability.Metrics
	publisher   Publisher
	onEscalated func(ctx context.Context, tickets []domain.Ticket)
	latest      atomic.Pointer[Result]
}

// NewMonitor builds a monitor over source.
func NewMonitor(source Source, opts MonitorOptions) *Monitor {
	m := &Monitor{
		source:      source,
		interval:    opts.Interval,
		now:         opts.Now,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		publisher:   opts.Publisher,
		onEscalated: opts.OnEscalated,
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Interval returns the polling period.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Latest returns the most recent result, if any tick has completed.
func (m *Monitor) Latest() (Result, bool) {
	r := m.latest.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Tick evaluates the snapshot once and stores the result. A failed snapshot load keeps the
// previous result.
func (m *Monitor) Tick(ctx context.Context) (Result, error) {
	tickets, err := m.source.Tickets(ctx)
	if err != nil {
		return Result{}, err
	}
	now := m.now()
	result := Result{ComputedAt: now, Scanned: len(tickets), Escalated: Compute(tickets, now)}

	var prev Set
	if p := m.latest.Load(); p != nil {
		prev = p.Escalated
	}
	m.latest.Store(&result)
	m.metrics.SetEscalated(len(result.Escalated))

	if added := Added(prev, result.Escalated); len(added) > 0 {
		fresh := make([]domain.Ticket, 0, len(added))
		for i := range tickets {
			if !result.Escalated.Has(tickets[i].ARNumber) || prev.Has(tickets[i].ARNumber) {
				continue
			}
			m.logger.Warn("ticket escalated",
				zap.String("ar_number", tickets[i].ARNumber),
				zap.String("severity", tickets[i].Severity),
				zap.Time("clock_anchor", tickets[i].ClockAnchor()))
			fresh = append(fresh, tickets[i])
		}
		if m.onEscalated != nil {
			m.onEscalated(ctx, fresh)
		}
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, result); err != nil {
			m.logger.Warn("publish escalations", zap.Error(err))
		}
	}
	return result, nil
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.runTick(ctx)
		}
	}
}

func (m *Monitor) runTick(ctx context.Context) {
	if _, err := m.Tick(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("escalation tick failed", zap.Error(err))
	}
}
