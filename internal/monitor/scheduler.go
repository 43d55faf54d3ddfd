package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/hostguard/agent/internal/domain"
	"github.com/hostguard/agent/internal/logscan"
	"github.com/hostguard/agent/internal/metrics"
)

// Scheduler drives every configured alert rule from a single base ticker.
// Each rule keeps its own next-due time, so rules with different cadences
// multiplex onto one timer. A failure in one rule is isolated to that rule
// for that tick; the loop itself only stops with the process.
type Scheduler struct {
	rules      []domain.AlertRule
	dispatcher *Dispatcher
	logger     *slog.Logger
	tick       time.Duration

	now     func() time.Time
	nextDue []time.Time
}

func NewScheduler(rules []domain.AlertRule, dispatcher *Dispatcher, tick time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		rules:      rules,
		dispatcher: dispatcher,
		logger:     logger,
		tick:       tick,
		now:        time.Now,
		nextDue:    make([]time.Time, len(rules)),
	}
}

// Run blocks until the context is cancelled, evaluating due rules on every
// base tick. The first tick runs every rule.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("security monitor started",
		"rules", len(s.rules), "tick", s.tick.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("security monitor stopped")
			return
		case <-ticker.C:
			s.runDue(ctx, s.now())
		}
	}
}

// runDue evaluates every rule whose cadence has elapsed.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for i := range s.rules {
		if now.Before(s.nextDue[i]) {
			continue
		}
		s.nextDue[i] = now.Add(s.rules[i].Cadence)
		s.runRule(ctx, s.rules[i], now)
	}
}

// runRule executes one full check pipeline. Panics are confined to the
// current rule and tick.
func (s *Scheduler) runRule(ctx context.Context, rule domain.AlertRule, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("check panicked", "source", rule.Kind, "panic", r)
		}
	}()

	metrics.ScansTotal.WithLabelValues(string(rule.Kind)).Inc()

	src := logscan.Source{Kind: rule.Kind, Path: rule.Path}
	events, exists, err := src.Scan(now)
	if err != nil {
		s.logger.Error("scan failed", "source", rule.Kind, "path", rule.Path, "err", err)
		return
	}
	if !exists {
		// Absent file is an operational state, not a security signal.
		s.logger.Debug("log source absent", "source", rule.Kind, "path", rule.Path)
		return
	}

	metrics.EventsTotal.WithLabelValues(string(rule.Kind)).Add(float64(len(events)))

	agg := Aggregate(events, now, rule.Window)
	alert := Evaluate(agg, rule, now)
	if alert == nil {
		s.logger.Debug("check below threshold",
			"source", rule.Kind, "count", agg.Total, "threshold", rule.Threshold)
		return
	}

	metrics.AlertsFired.WithLabelValues(string(rule.Kind)).Inc()
	s.logger.Warn("threshold crossed",
		"source", rule.Kind, "count", alert.Count, "threshold", alert.Threshold)
	s.dispatcher.Dispatch(ctx, alert)
}
