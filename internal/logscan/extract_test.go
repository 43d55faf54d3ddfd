package logscan

import (
	"testing"
	"time"

	"github.com/hostguard/agent/internal/domain"
)

var scanNow = time.Date(2026, time.February, 3, 12, 35, 0, 0, time.UTC)

func TestExtractFail2ban(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantTime time.Time
	}{
		{
			name:     "ban line",
			line:     "2026-02-03 12:30:45,123 fail2ban.actions [1234]: NOTICE [sshd] Ban 203.0.113.7",
			wantOK:   true,
			wantTime: time.Date(2026, time.February, 3, 12, 30, 45, 0, time.UTC),
		},
		{
			name:     "unban line",
			line:     "2026-02-03 12:31:00 fail2ban.actions [1234]: NOTICE [sshd] Unban 203.0.113.7",
			wantOK:   true,
			wantTime: time.Date(2026, time.February, 3, 12, 31, 0, 0, time.UTC),
		},
		{
			name:   "unrelated notice",
			line:   "2026-02-03 12:30:45,123 fail2ban.filter [1234]: INFO [sshd] Found 203.0.113.7",
			wantOK: false,
		},
		{
			name:   "ban marker with garbage timestamp",
			line:   "notadate alsonotatime fail2ban.actions: NOTICE [sshd] Ban 203.0.113.7",
			wantOK: false,
		},
		{
			name:   "short line",
			line:   "Ban",
			wantOK: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Extract(domain.SourceFail2ban, tt.line, scanNow)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !ev.Timestamp.Equal(tt.wantTime) {
				t.Errorf("timestamp = %v, want %v", ev.Timestamp, tt.wantTime)
			}
			if ev.Kind != domain.SourceFail2ban {
				t.Errorf("kind = %q, want %q", ev.Kind, domain.SourceFail2ban)
			}
		})
	}
}

func TestExtractSSHAuth(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantOK bool
		wantIP string
	}{
		{
			name:   "failed password with ip",
			line:   "Feb  3 12:30:45 host sshd[999]: Failed password for root from 198.51.100.9 port 40022 ssh2",
			wantOK: true,
			wantIP: "198.51.100.9",
		},
		{
			name:   "failed password for invalid user",
			line:   "Feb  3 12:31:02 host sshd[999]: Failed password for invalid user admin from 198.51.100.10 port 40100 ssh2",
			wantOK: true,
			wantIP: "198.51.100.10",
		},
		{
			name:   "failed password without source",
			line:   "Feb  3 12:31:05 host sshd[999]: Failed password for root",
			wantOK: true,
			wantIP: "",
		},
		{
			name:   "accepted login",
			line:   "Feb  3 12:32:00 host sshd[999]: Accepted publickey for deploy from 198.51.100.9 port 40022 ssh2",
			wantOK: false,
		},
		{
			name:   "arbitrary text",
			line:   "totally unrelated line",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Extract(domain.SourceSSHAuth, tt.line, scanNow)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.OriginIP != tt.wantIP {
				t.Errorf("origin ip = %q, want %q", ev.OriginIP, tt.wantIP)
			}
			if ev.Timestamp.Year() != scanNow.Year() {
				t.Errorf("timestamp year = %d, want %d", ev.Timestamp.Year(), scanNow.Year())
			}
		})
	}
}

func TestExtractFirewallDrop(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantOK bool
		wantIP string
	}{
		{
			name:   "blocked packet",
			line:   "Feb  3 12:30:45 host kernel: [UFW BLOCK] IN=eth0 OUT= SRC=192.0.2.44 DST=10.0.0.1 PROTO=TCP DPT=23",
			wantOK: true,
			wantIP: "192.0.2.44",
		},
		{
			name:   "blocked packet without src",
			line:   "Feb  3 12:30:50 host kernel: [UFW BLOCK] IN=eth0 OUT= DST=10.0.0.1",
			wantOK: true,
			wantIP: "",
		},
		{
			name:   "allowed packet",
			line:   "Feb  3 12:30:55 host kernel: [UFW ALLOW] IN=eth0 SRC=192.0.2.44",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Extract(domain.SourceFirewallDrop, tt.line, scanNow)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.OriginIP != tt.wantIP {
				t.Errorf("origin ip = %q, want %q", ev.OriginIP, tt.wantIP)
			}
		})
	}
}

func TestParseSyslogTimeYearRollover(t *testing.T) {
	// A December stamp read in January belongs to the previous year.
	january := time.Date(2026, time.January, 2, 0, 10, 0, 0, time.UTC)
	ts, ok := parseSyslogTime("Dec 31 23:59:00 host sshd[1]: Failed password", january)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if ts.Year() != 2025 {
		t.Errorf("year = %d, want 2025", ts.Year())
	}
}
