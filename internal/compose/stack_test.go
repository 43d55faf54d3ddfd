package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRunner struct {
	out  string
	err  error
	dirs []string
	cmds [][]string
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	f.dirs = append(f.dirs, dir)
	f.cmds = append(f.cmds, append([]string{name}, args...))
	return f.out, f.err
}

func TestStackRunningCount(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    int
		wantErr bool
	}{
		{"no containers", "", nil, 0, false},
		{"three containers", "aaa\nbbb\nccc", nil, 3, false},
		{"trailing blank lines", "aaa\n\n", nil, 1, false},
		{"command failure", "", errors.New("docker: not found"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: tt.out, err: tt.err}
			stack := NewStack("/srv/app/docker-compose.yml", runner, discardLogger())

			got, err := stack.RunningCount(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunningCount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RunningCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStackRunsInComposeDir(t *testing.T) {
	runner := &fakeRunner{}
	stack := NewStack("/srv/app/docker-compose.yml", runner, discardLogger())

	if _, err := stack.Down(context.Background()); err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if _, err := stack.Up(context.Background()); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	for _, dir := range runner.dirs {
		if dir != "/srv/app" {
			t.Errorf("command ran in %q, want /srv/app", dir)
		}
	}

	down := strings.Join(runner.cmds[0], " ")
	up := strings.Join(runner.cmds[1], " ")
	if down != "docker compose down" {
		t.Errorf("down command = %q", down)
	}
	if up != "docker compose up -d" {
		t.Errorf("up command = %q", up)
	}
}
