// Package monitor implements the security-event control loop: sliding-window
// aggregation, threshold evaluation, alert fan-out and the scheduler driving
// each configured check on its own cadence.
package monitor

import (
	"time"

	"github.com/hostguard/agent/internal/domain"
)

// Aggregate counts the events that fall inside [now-window, now], grouped
// by origin IP. Events without an address contribute to the total only.
// Sample order follows the input, which is file order for scanned sources.
func Aggregate(events []domain.SecurityEvent, now time.Time, window time.Duration) domain.WindowAggregate {
	cutoff := now.Add(-window)
	agg := domain.WindowAggregate{ByGroup: make(map[string]int)}

	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		agg.Total++
		agg.Samples = append(agg.Samples, ev.RawText)
		if ev.OriginIP != "" {
			agg.ByGroup[ev.OriginIP]++
		}
	}
	return agg
}
