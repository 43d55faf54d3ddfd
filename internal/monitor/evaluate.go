package monitor

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hostguard/agent/internal/domain"
)

// maxSampleEvents caps the raw lines carried inside one alert.
const maxSampleEvents = 10

// Evaluate compares a window aggregate against a rule and returns an alert
// when the count strictly exceeds the threshold, nil otherwise. Each
// evaluation is independent: as long as the rolling count stays above the
// threshold the next cycle fires again.
func Evaluate(agg domain.WindowAggregate, rule domain.AlertRule, now time.Time) *domain.Alert {
	if agg.Total <= rule.Threshold {
		return nil
	}

	entries := make([]domain.AlertEntry, 0, len(agg.ByGroup))
	for key, count := range agg.ByGroup {
		entries = append(entries, domain.AlertEntry{Key: key, Count: count})
	}
	// Deterministic ordering: count descending, key ascending on ties.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if rule.TopN > 0 && len(entries) > rule.TopN {
		entries = entries[:rule.TopN]
	}

	samples := agg.Samples
	if len(samples) > maxSampleEvents {
		samples = samples[len(samples)-maxSampleEvents:]
	}

	return &domain.Alert{
		ID:           uuid.NewString(),
		Kind:         rule.Kind,
		FiredAt:      now,
		Count:        agg.Total,
		Threshold:    rule.Threshold,
		Window:       rule.Window,
		TopEntries:   entries,
		SampleEvents: samples,
	}
}
