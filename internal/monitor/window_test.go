package monitor

import (
	"testing"
	"time"

	"github.com/hostguard/agent/internal/domain"
)

func TestAggregate(t *testing.T) {
	now := time.Date(2026, time.February, 3, 12, 35, 0, 0, time.UTC)
	window := 5 * time.Minute

	event := func(offset time.Duration, ip, raw string) domain.SecurityEvent {
		return domain.SecurityEvent{
			Kind:      domain.SourceSSHAuth,
			Timestamp: now.Add(offset),
			OriginIP:  ip,
			RawText:   raw,
		}
	}

	tests := []struct {
		name      string
		events    []domain.SecurityEvent
		wantTotal int
		wantGroup map[string]int
	}{
		{
			name:      "empty input",
			events:    nil,
			wantTotal: 0,
			wantGroup: map[string]int{},
		},
		{
			name: "events outside window excluded",
			events: []domain.SecurityEvent{
				event(-6*time.Minute, "10.0.0.1", "old"),
				event(-time.Minute, "10.0.0.1", "fresh"),
			},
			wantTotal: 1,
			wantGroup: map[string]int{"10.0.0.1": 1},
		},
		{
			name: "window boundary is inclusive",
			events: []domain.SecurityEvent{
				event(-window, "10.0.0.1", "edge"),
			},
			wantTotal: 1,
			wantGroup: map[string]int{"10.0.0.1": 1},
		},
		{
			name: "events without ip count toward total only",
			events: []domain.SecurityEvent{
				event(-time.Minute, "", "anon"),
				event(-time.Minute, "10.0.0.2", "known"),
			},
			wantTotal: 2,
			wantGroup: map[string]int{"10.0.0.2": 1},
		},
		{
			name: "grouping accumulates per ip",
			events: []domain.SecurityEvent{
				event(-time.Minute, "10.0.0.1", "a"),
				event(-2*time.Minute, "10.0.0.1", "b"),
				event(-3*time.Minute, "10.0.0.2", "c"),
			},
			wantTotal: 3,
			wantGroup: map[string]int{"10.0.0.1": 2, "10.0.0.2": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Aggregate(tt.events, now, window)
			if agg.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", agg.Total, tt.wantTotal)
			}
			if len(agg.ByGroup) != len(tt.wantGroup) {
				t.Errorf("groups = %v, want %v", agg.ByGroup, tt.wantGroup)
			}
			for key, want := range tt.wantGroup {
				if agg.ByGroup[key] != want {
					t.Errorf("group %q = %d, want %d", key, agg.ByGroup[key], want)
				}
			}
			if len(agg.Samples) != tt.wantTotal {
				t.Errorf("samples = %d, want %d", len(agg.Samples), tt.wantTotal)
			}
		})
	}
}
