// Package logscan turns raw security log lines into typed events.
package logscan

import (
	"strings"
	"time"

	"github.com/hostguard/agent/internal/domain"
)

const (
	fail2banLayout = "2006-01-02 15:04:05"
	syslogLayout   = "Jan _2 15:04:05"
)

// Extract parses one raw log line for the given source kind. It returns the
// event and true when the line matches the kind's marker and carries a
// parsable timestamp. Malformed lines yield false, never an error: a scan
// must survive arbitrary garbage in the file.
func Extract(kind domain.SourceKind, line string, now time.Time) (domain.SecurityEvent, bool) {
	switch kind {
	case domain.SourceFail2ban:
		return extractFail2ban(line, now)
	case domain.SourceSSHAuth:
		return extractSSHAuth(line, now)
	case domain.SourceFirewallDrop:
		return extractFirewallDrop(line, now)
	}
	return domain.SecurityEvent{}, false
}

// extractFail2ban matches ban/unban action lines. The timestamp is the
// leading "YYYY-MM-DD HH:MM:SS" token pair; fail2ban appends milliseconds
// after a comma, which are ignored.
func extractFail2ban(line string, now time.Time) (domain.SecurityEvent, bool) {
	if !strings.Contains(line, "Ban") && !strings.Contains(line, "Unban") {
		return domain.SecurityEvent{}, false
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return domain.SecurityEvent{}, false
	}

	timeTok, _, _ := strings.Cut(parts[1], ",")
	ts, err := time.ParseInLocation(fail2banLayout, parts[0]+" "+timeTok, now.Location())
	if err != nil {
		return domain.SecurityEvent{}, false
	}

	return domain.SecurityEvent{
		Kind:      domain.SourceFail2ban,
		Timestamp: ts,
		RawText:   strings.TrimSpace(line),
	}, true
}

// extractSSHAuth matches failed password attempts from the auth log. The
// origin address is the token following the "from" keyword; lines without
// one still count toward the total.
func extractSSHAuth(line string, now time.Time) (domain.SecurityEvent, bool) {
	if !strings.Contains(line, "Failed password") {
		return domain.SecurityEvent{}, false
	}

	ts, ok := parseSyslogTime(line, now)
	if !ok {
		return domain.SecurityEvent{}, false
	}

	var ip string
	parts := strings.Fields(line)
	for i, tok := range parts {
		if tok == "from" && i+1 < len(parts) {
			ip = parts[i+1]
			break
		}
	}

	return domain.SecurityEvent{
		Kind:      domain.SourceSSHAuth,
		Timestamp: ts,
		OriginIP:  ip,
		RawText:   strings.TrimSpace(line),
	}, true
}

// extractFirewallDrop matches packets rejected by the firewall. The origin
// address comes from the SRC= token when present.
func extractFirewallDrop(line string, now time.Time) (domain.SecurityEvent, bool) {
	if !strings.Contains(line, "[UFW BLOCK]") {
		return domain.SecurityEvent{}, false
	}

	ts, ok := parseSyslogTime(line, now)
	if !ok {
		return domain.SecurityEvent{}, false
	}

	var ip string
	for _, tok := range strings.Fields(line) {
		if v, found := strings.CutPrefix(tok, "SRC="); found {
			ip = v
			break
		}
	}

	return domain.SecurityEvent{
		Kind:      domain.SourceFirewallDrop,
		Timestamp: ts,
		OriginIP:  ip,
		RawText:   strings.TrimSpace(line),
	}, true
}

// parseSyslogTime parses the classic syslog prefix "Jan _2 15:04:05",
// which carries no year. The scan-time year is attached; stamps that would
// land in the future roll back one year to cover the December/January
// boundary.
func parseSyslogTime(line string, now time.Time) (time.Time, bool) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return time.Time{}, false
	}

	ts, err := time.ParseInLocation(syslogLayout, parts[0]+" "+parts[1]+" "+parts[2], now.Location())
	if err != nil {
		return time.Time{}, false
	}

	ts = ts.AddDate(now.Year(), 0, 0)
	if ts.After(now.Add(24 * time.Hour)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts, true
}
