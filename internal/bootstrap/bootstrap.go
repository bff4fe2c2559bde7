// Package bootstrap makes sure the dashboard container exists and is running.
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/FreePeak/inventory-dashboard/internal/logger"
)

// Runner runs an external command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the local machine
type ExecRunner struct{}

// Run executes the command. A non-zero exit status is returned as an error
// carrying the command's standard error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.String(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return stdout.String(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

// State describes what EnsureContainer found and did
type State struct {
	Existed bool `json:"existed"`
	Created bool `json:"created"`
	Started bool `json:"started"`
}

// Launcher manages one docker container built from a local context directory
type Launcher struct {
	Runner     Runner
	Name       string
	Port       int
	ContextDir string
}

// NewLauncher creates a launcher that runs docker on the local machine
func NewLauncher(name string, port int, contextDir string) *Launcher {
	return &Launcher{
		Runner:     ExecRunner{},
		Name:       name,
		Port:       port,
		ContextDir: contextDir,
	}
}

// Exists reports whether a container with the launcher's name exists,
// running or not
func (l *Launcher) Exists(ctx context.Context) (bool, error) {
	return l.listed(ctx, "ps", "-a")
}

// Running reports whether the container is running
func (l *Launcher) Running(ctx context.Context) (bool, error) {
	return l.listed(ctx, "ps")
}

func (l *Launcher) listed(ctx context.Context, args ...string) (bool, error) {
	args = append(args, "--filter", "name=^/"+l.Name+"$", "--format", "{{.Names}}")
	out, err := l.Runner.Run(ctx, "docker", args...)
	if err != nil {
		return false, fmt.Errorf("failed to list containers: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == l.Name {
			return true, nil
		}
	}
	return false, nil
}

// EnsureContainer builds the image and creates the container when it does
// not exist, then starts it when it is not running
func (l *Launcher) EnsureContainer(ctx context.Context) (State, error) {
	var state State

	exists, err := l.Exists(ctx)
	if err != nil {
		return state, err
	}
	state.Existed = exists

	if !exists {
		logger.Info("Container %s does not exist. Building image and creating container...", l.Name)
		if _, err := l.Runner.Run(ctx, "docker", "build", "-t", l.Name, l.ContextDir); err != nil {
			return state, fmt.Errorf("failed to build image %s: %w", l.Name, err)
		}

		ports := fmt.Sprintf("%d:%d", l.Port, l.Port)
		if _, err := l.Runner.Run(ctx, "docker", "create", "--name", l.Name, "-p", ports, l.Name); err != nil {
			return state, fmt.Errorf("failed to create container %s: %w", l.Name, err)
		}
		state.Created = true
	}

	running, err := l.Running(ctx)
	if err != nil {
		return state, err
	}
	if !running {
		logger.Info("Starting container %s...", l.Name)
		if _, err := l.Runner.Run(ctx, "docker", "start", l.Name); err != nil {
			return state, fmt.Errorf("failed to start container %s: %w", l.Name, err)
		}
		state.Started = true
	}

	logger.Info("Container %s is running on port %d", l.Name, l.Port)
	return state, nil
}
