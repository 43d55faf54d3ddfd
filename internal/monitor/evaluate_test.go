package monitor

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/hostguard/agent/internal/domain"
)

func TestEvaluateThresholdBoundary(t *testing.T) {
	now := time.Now()
	rule := domain.AlertRule{Kind: domain.SourceFail2ban, Threshold: 5, TopN: 5, Window: 5 * time.Minute}

	tests := []struct {
		name     string
		total    int
		wantFire bool
	}{
		{"below threshold", 4, false},
		{"exactly at threshold", 5, false},
		{"one above threshold", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := domain.WindowAggregate{Total: tt.total, ByGroup: map[string]int{}}
			alert := Evaluate(agg, rule, now)
			if (alert != nil) != tt.wantFire {
				t.Fatalf("Evaluate() fired = %v, want %v", alert != nil, tt.wantFire)
			}
			if alert != nil {
				if alert.Count != tt.total {
					t.Errorf("count = %d, want %d", alert.Count, tt.total)
				}
				if alert.Threshold != rule.Threshold {
					t.Errorf("threshold = %d, want %d", alert.Threshold, rule.Threshold)
				}
			}
		})
	}
}

func TestEvaluateTopEntriesOrdering(t *testing.T) {
	now := time.Now()
	rule := domain.AlertRule{Kind: domain.SourceSSHAuth, Threshold: 1, TopN: 10}

	agg := domain.WindowAggregate{
		Total: 9,
		ByGroup: map[string]int{
			"10.0.0.2": 3,
			"10.0.0.1": 3,
			"10.0.0.9": 1,
			"10.0.0.5": 2,
		},
	}

	alert := Evaluate(agg, rule, now)
	if alert == nil {
		t.Fatal("expected an alert")
	}

	want := []domain.AlertEntry{
		{Key: "10.0.0.1", Count: 3},
		{Key: "10.0.0.2", Count: 3},
		{Key: "10.0.0.5", Count: 2},
		{Key: "10.0.0.9", Count: 1},
	}
	if !reflect.DeepEqual(alert.TopEntries, want) {
		t.Errorf("top entries = %v, want %v", alert.TopEntries, want)
	}
}

func TestEvaluateTopEntriesTruncation(t *testing.T) {
	now := time.Now()
	rule := domain.AlertRule{Kind: domain.SourceFirewallDrop, Threshold: 1, TopN: 2}

	agg := domain.WindowAggregate{
		Total:   6,
		ByGroup: map[string]int{"a": 3, "b": 2, "c": 1},
	}

	alert := Evaluate(agg, rule, now)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if len(alert.TopEntries) != 2 {
		t.Fatalf("top entries = %d, want 2", len(alert.TopEntries))
	}
	if alert.TopEntries[0].Key != "a" || alert.TopEntries[1].Key != "b" {
		t.Errorf("top entries = %v, want a then b", alert.TopEntries)
	}
}

func TestEvaluateSampleEventsKeepMostRecent(t *testing.T) {
	now := time.Now()
	rule := domain.AlertRule{Kind: domain.SourceFail2ban, Threshold: 1, TopN: 5}

	var samples []string
	for i := 0; i < 15; i++ {
		samples = append(samples, fmt.Sprintf("line-%02d", i))
	}
	agg := domain.WindowAggregate{Total: 15, ByGroup: map[string]int{}, Samples: samples}

	alert := Evaluate(agg, rule, now)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if len(alert.SampleEvents) != 10 {
		t.Fatalf("samples = %d, want 10", len(alert.SampleEvents))
	}
	if alert.SampleEvents[0] != "line-05" || alert.SampleEvents[9] != "line-14" {
		t.Errorf("samples window = [%s .. %s], want [line-05 .. line-14]",
			alert.SampleEvents[0], alert.SampleEvents[9])
	}
}
