package compose

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostguard/agent/internal/domain"
	"github.com/hostguard/agent/internal/metrics"
)

// StackController is the stop/start surface the orchestrator drives.
type StackController interface {
	Down(ctx context.Context) (string, error)
	Up(ctx context.Context) (string, error)
}

// Orchestrator runs the two-phase restart state machine:
//
//	Idle -> AwaitingConfirmation -> Stopping -> Settling -> Starting
//	     -> Completed | Failed -> Idle
//
// At most one request may be past confirmation at a time. The start phase
// always runs, even when the stop phase failed: a partially stopped stack
// should still attempt to come back up.
type Orchestrator struct {
	stack  StackController
	logger *slog.Logger
	settle time.Duration

	mu      sync.Mutex
	pending *domain.RestartRequest
	active  *domain.RestartRequest
}

func NewOrchestrator(stack StackController, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		stack:  stack,
		logger: logger,
		settle: settleDelay,
	}
}

// State reports the current phase of the machine.
func (o *Orchestrator) State() domain.RestartState {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		return o.active.State
	}
	if o.pending != nil {
		return domain.RestartAwaitConfirm
	}
	return domain.RestartIdle
}

// Request moves the machine to AwaitingConfirmation and returns the pending
// request. Repeated requests while one is pending are idempotent: the same
// request is returned so the caller can redisplay the prompt. A request
// while a restart is already executing is rejected.
func (o *Orchestrator) Request(initiator int64) (*domain.RestartRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		return nil, domain.RestartInProgressError{}
	}
	if o.pending != nil {
		return o.pending, nil
	}

	o.pending = &domain.RestartRequest{
		ID:        uuid.NewString(),
		Initiator: initiator,
		State:     domain.RestartAwaitConfirm,
		StartedAt: time.Now(),
	}
	o.logger.Info("restart requested", "request_id", o.pending.ID, "initiator", initiator)
	return o.pending, nil
}

// Cancel discards a pending request. Cancelling with nothing pending is a
// no-op; an executing restart cannot be cancelled.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending != nil {
		o.logger.Info("restart cancelled", "request_id", o.pending.ID)
		o.pending = nil
	}
}

// Confirm executes the pending restart: stop, settle, start. It blocks for
// the duration of the sequence and returns the terminal result. A confirm
// while another restart is executing is rejected with
// domain.RestartInProgressError and leaves the in-flight request untouched;
// a confirm with nothing pending is rejected with
// domain.NoPendingRestartError.
func (o *Orchestrator) Confirm(ctx context.Context, initiator int64) (*domain.RestartResult, error) {
	o.mu.Lock()
	if o.active != nil {
		o.mu.Unlock()
		return nil, domain.RestartInProgressError{}
	}
	if o.pending == nil {
		o.mu.Unlock()
		return nil, domain.NoPendingRestartError{}
	}
	req := o.pending
	o.pending = nil
	o.active = req
	o.setState(req, domain.RestartStopping)
	o.mu.Unlock()

	o.logger.Info("restart confirmed", "request_id", req.ID, "initiator", initiator)
	started := time.Now()

	stopOut, stopErr := o.stack.Down(ctx)
	if stopErr != nil {
		o.logger.Error("stack stop failed", "request_id", req.ID, "err", stopErr)
		stopOut = stopErr.Error()
	}

	// Settle unconditionally: the start phase runs even after a failed stop.
	o.transition(req, domain.RestartSettling)
	o.wait(ctx, o.settle)

	o.transition(req, domain.RestartStarting)
	startOut, startErr := o.stack.Up(ctx)
	if startErr != nil {
		o.logger.Error("stack start failed", "request_id", req.ID, "err", startErr)
		startOut = startErr.Error()
	}

	result := &domain.RestartResult{
		ID:          req.ID,
		StopOK:      stopErr == nil,
		StartOK:     startErr == nil,
		StopOutput:  stopOut,
		StartOutput: startOut,
		Duration:    time.Since(started),
	}
	result.Completed = result.StopOK && result.StartOK

	terminal := domain.RestartFailed
	label := metrics.ResultFailed
	if result.Completed {
		terminal = domain.RestartCompleted
		label = metrics.ResultCompleted
	}
	metrics.RestartsTotal.WithLabelValues(label).Inc()

	o.mu.Lock()
	o.setState(req, terminal)
	// Terminal states are single-shot: control returns to Idle immediately.
	o.active = nil
	o.mu.Unlock()

	o.logger.Info("restart finished",
		"request_id", req.ID, "completed", result.Completed,
		"duration", result.Duration.String())
	return result, nil
}

func (o *Orchestrator) transition(req *domain.RestartRequest, state domain.RestartState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setState(req, state)
}

func (o *Orchestrator) setState(req *domain.RestartRequest, state domain.RestartState) {
	req.State = state
	o.logger.Debug("restart state", "request_id", req.ID, "state", state)
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
