package logscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hostguard/agent/internal/domain"
)

func TestSourceScanMissingFile(t *testing.T) {
	src := Source{Kind: domain.SourceFail2ban, Path: filepath.Join(t.TempDir(), "absent.log")}

	events, exists, err := src.Scan(scanNow)
	if err != nil {
		t.Fatalf("Scan() error = %v, want nil", err)
	}
	if exists {
		t.Error("exists = true for a missing file")
	}
	if len(events) != 0 {
		t.Errorf("got %d events from a missing file", len(events))
	}
}

func TestSourceScanExtractsInFileOrder(t *testing.T) {
	content := "2026-02-03 12:30:45,001 fail2ban.actions: NOTICE [sshd] Ban 203.0.113.1\n" +
		"some malformed garbage that matches nothing\n" +
		"2026-02-03 12:31:00,002 fail2ban.actions: NOTICE [sshd] Ban 203.0.113.2\n" +
		"2026-02-03 12:31:30,003 fail2ban.actions: NOTICE [sshd] Unban 203.0.113.1\n"

	path := filepath.Join(t.TempDir(), "fail2ban.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := Source{Kind: domain.SourceFail2ban, Path: path}
	events, exists, err := src.Scan(scanNow)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !exists {
		t.Fatal("exists = false for a present file")
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events out of file order at index %d", i)
		}
	}
}
