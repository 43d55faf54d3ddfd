// Package status assembles point-in-time host snapshots for the operator
// views. Every sub-check is best-effort: a failing probe degrades to a
// placeholder value and never aborts the report.
package status

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hostguard/agent/internal/compose"
	"github.com/hostguard/agent/internal/domain"
)

const (
	firewallUnit  = "ufw"
	intrusionUnit = "fail2ban"

	loadPlaceholder = "?"
)

// ContainerCounter reports how many containers of the managed stack run.
type ContainerCounter interface {
	RunningCount(ctx context.Context) (int, error)
}

type Reporter struct {
	containers  ContainerCounter
	runner      compose.Runner
	loadavgPath string
	logger      *slog.Logger
}

func NewReporter(containers ContainerCounter, runner compose.Runner, logger *slog.Logger) *Reporter {
	return &Reporter{
		containers:  containers,
		runner:      runner,
		loadavgPath: "/proc/loadavg",
		logger:      logger,
	}
}

// Status builds the general host snapshot.
func (r *Reporter) Status(ctx context.Context) domain.StatusSnapshot {
	snap := domain.StatusSnapshot{
		Load1:     loadPlaceholder,
		Load5:     loadPlaceholder,
		Load15:    loadPlaceholder,
		CheckedAt: time.Now(),
	}

	count, err := r.containers.RunningCount(ctx)
	if err != nil {
		r.logger.Warn("container count unavailable", "err", err)
	} else {
		snap.RunningContainers = count
		snap.ContainersKnown = true
	}

	if l1, l5, l15, ok := r.loadAverages(); ok {
		snap.Load1, snap.Load5, snap.Load15 = l1, l5, l15
	}

	return snap
}

// Security builds the security-view snapshot.
func (r *Reporter) Security(ctx context.Context) domain.SecuritySnapshot {
	snap := domain.SecuritySnapshot{
		Firewall:       r.serviceState(ctx, firewallUnit),
		IntrusionGuard: r.serviceState(ctx, intrusionUnit),
		CheckedAt:      time.Now(),
	}

	if ports, ok := r.listeningPorts(ctx); ok {
		snap.ListeningPorts = ports
		snap.PortsKnown = true
	}

	return snap
}

func (r *Reporter) loadAverages() (string, string, string, bool) {
	data, err := os.ReadFile(r.loadavgPath)
	if err != nil {
		r.logger.Warn("load averages unavailable", "err", err)
		return "", "", "", false
	}

	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		r.logger.Warn("load averages malformed", "raw", strings.TrimSpace(string(data)))
		return "", "", "", false
	}
	return fields[0], fields[1], fields[2], true
}

// serviceState probes one systemd unit. systemctl exits non-zero for
// inactive units while still printing the state, so the output decides.
func (r *Reporter) serviceState(ctx context.Context, unit string) domain.ServiceState {
	out, err := r.runner.Run(ctx, "", "systemctl", "is-active", unit)
	state := strings.TrimSpace(out)
	switch {
	case state == "active":
		return domain.ServiceActive
	case state != "":
		return domain.ServiceInactive
	default:
		r.logger.Warn("service state unavailable", "unit", unit, "err", err)
		return domain.ServiceUnknown
	}
}

func (r *Reporter) listeningPorts(ctx context.Context) (int, bool) {
	out, err := r.runner.Run(ctx, "", "ss", "-H", "-tln")
	if err != nil {
		r.logger.Warn("listening ports unavailable", "err", err)
		return 0, false
	}

	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, true
}
