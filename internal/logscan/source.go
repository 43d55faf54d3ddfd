package logscan

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/hostguard/agent/internal/domain"
)

// Source is one monitored log file. Sources hold no state between scans;
// every scan re-reads the whole file, so rotation needs no tracking.
type Source struct {
	Kind domain.SourceKind
	Path string
}

// Scan reads the file and extracts every matching event, in file order.
// A missing file is an operational state, not an error: it reports
// exists=false with no events. Read failures on a present file are
// returned so the caller can log them.
func (s Source) Scan(now time.Time) (events []domain.SecurityEvent, exists bool, err error) {
	file, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ev, ok := Extract(s.Kind, scanner.Text(), now); ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("read %s: %w", s.Path, err)
	}

	return events, true, nil
}
