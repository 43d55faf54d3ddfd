package domain

import "time"

// SourceKind identifies the origin of a security log line.
type SourceKind string

const (
	SourceFail2ban     SourceKind = "fail2ban"
	SourceSSHAuth      SourceKind = "ssh_auth"
	SourceFirewallDrop SourceKind = "firewall_drop"
)

// SecurityEvent is one matched log line. Events are transient: created during
// a scan, aggregated, then discarded.
type SecurityEvent struct {
	Kind      SourceKind
	Timestamp time.Time
	OriginIP  string // empty when the line carried no parsable address
	RawText   string
}

// AlertRule configures one monitored source. Rules are static for the
// lifetime of the process.
type AlertRule struct {
	Kind      SourceKind
	Path      string
	Window    time.Duration
	Threshold int
	Cadence   time.Duration
	TopN      int
}

// WindowAggregate is the result of counting events inside a sliding window.
// Events without an origin IP contribute to Total only.
type WindowAggregate struct {
	Total   int
	ByGroup map[string]int
	// Samples holds the raw text of in-window events in original file order.
	Samples []string
}

// AlertEntry is one grouped contributor surfaced in an alert.
type AlertEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Alert is produced when a window aggregate crosses a rule's threshold.
// It is handed straight to the dispatcher and never persisted.
type Alert struct {
	ID        string        `json:"id"`
	Kind      SourceKind    `json:"kind"`
	FiredAt   time.Time     `json:"fired_at"`
	Count     int           `json:"count"`
	Threshold int           `json:"threshold"`
	Window    time.Duration `json:"window"`
	// TopEntries is ordered by count descending, ties broken by key ascending.
	TopEntries []AlertEntry `json:"top_entries"`
	// SampleEvents holds the most recent raw lines, capped at ten.
	SampleEvents []string `json:"sample_events"`
}
