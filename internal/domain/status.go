package domain

import "time"

// ServiceState is the observed state of a host service.
type ServiceState string

const (
	ServiceActive   ServiceState = "active"
	ServiceInactive ServiceState = "inactive"
	ServiceUnknown  ServiceState = "unknown"
)

// StatusSnapshot is a point-in-time view of the host and the managed stack.
// Sub-checks are best-effort: a failed probe leaves its placeholder value.
type StatusSnapshot struct {
	RunningContainers int       `json:"running_containers"`
	ContainersKnown   bool      `json:"containers_known"`
	Load1             string    `json:"load_1"`
	Load5             string    `json:"load_5"`
	Load15            string    `json:"load_15"`
	CheckedAt         time.Time `json:"checked_at"`
}

// SecuritySnapshot is the security-view counterpart of StatusSnapshot.
type SecuritySnapshot struct {
	Firewall       ServiceState `json:"firewall"`
	IntrusionGuard ServiceState `json:"intrusion_guard"`
	ListeningPorts int          `json:"listening_ports"`
	PortsKnown     bool         `json:"ports_known"`
	CheckedAt      time.Time    `json:"checked_at"`
}
