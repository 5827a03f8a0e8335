package system

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ChangeCaps/robots-or-smth/internal/core/system"

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64

	tickDuration  metric.Float64Histogram
	phaseDuration metric.Float64Histogram
}

func NewRunner() *Runner {
	r := &Runner{
		systems: make([]System, 0, 16),
	}

	// Global provider is a no-op unless the binary installs an SDK.
	m := otel.Meter(instrumentationName)
	r.tickDuration, _ = m.Float64Histogram(
		"rts.tick.duration",
		metric.WithDescription("Wall time spent running one simulation tick"),
		metric.WithUnit("ms"),
	)
	r.phaseDuration, _ = m.Float64Histogram(
		"rts.phase.duration",
		metric.WithDescription("Wall time spent in one tick phase"),
		metric.WithUnit("ms"),
	)
	return r
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Ticks returns the number of completed Tick calls.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Tick runs every registered system once, phase by phase. Systems within a
// phase keep their registration order.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	start := time.Now()
	phaseStart := start
	current := PhaseInput
	for _, s := range r.systems {
		if s.Phase() != current {
			r.recordPhase(current, phaseStart)
			current = s.Phase()
			phaseStart = time.Now()
		}
		s.Update(dt)
	}
	r.recordPhase(current, phaseStart)
	r.ticks++
	if r.tickDuration != nil {
		r.tickDuration.Record(context.Background(), msSince(start))
	}
}

// TickPhase runs only the systems of one phase. Used by tests and by the
// observer client, which polls input more often than it simulates.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) recordPhase(p Phase, since time.Time) {
	if r.phaseDuration == nil {
		return
	}
	r.phaseDuration.Record(context.Background(), msSince(since),
		metric.WithAttributes(attribute.String("phase", p.String())))
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
