// Package compose controls the managed docker-compose stack through the
// docker CLI and implements the two-phase confirm/execute restart flow.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	stopTimeout  = 30 * time.Second
	startTimeout = 60 * time.Second
	listTimeout  = 10 * time.Second

	// settleDelay is the pause between stopping and starting the stack,
	// giving ports and volumes time to release.
	settleDelay = 5 * time.Second
)

// Runner executes one external command in a working directory and returns
// its combined output. Errors never escape as panics; a timeout surfaces as
// a plain command failure.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("%s: %w: %s", name, err, text)
		}
		return text, fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// Stack wraps the docker-compose stack described by one compose file.
type Stack struct {
	composeFile string
	runner      Runner
	logger      *slog.Logger
}

func NewStack(composeFile string, runner Runner, logger *slog.Logger) *Stack {
	return &Stack{
		composeFile: composeFile,
		runner:      runner,
		logger:      logger,
	}
}

func (s *Stack) dir() string {
	return filepath.Dir(s.composeFile)
}

// Down stops the stack with a bounded timeout, returning the captured
// output regardless of outcome.
func (s *Stack) Down(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	s.logger.Info("stopping stack", "compose_file", s.composeFile)
	return s.runner.Run(ctx, s.dir(), "docker", "compose", "down")
}

// Up starts the stack detached with a bounded timeout.
func (s *Stack) Up(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	s.logger.Info("starting stack", "compose_file", s.composeFile)
	return s.runner.Run(ctx, s.dir(), "docker", "compose", "up", "-d")
}

// RunningCount reports how many containers of the stack are running.
func (s *Stack) RunningCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	out, err := s.runner.Run(ctx, s.dir(), "docker", "compose", "ps", "-q")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}
