//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ImageName   = "routesim-debug:latest"
	WaitTimeout = 2 * time.Minute
)

// Harness runs the routesim binary inside containers, one container per simulation run
type Harness struct {
	t          *testing.T
	mu         sync.Mutex
	ctx        context.Context
	Runs       map[string]testcontainers.Container
	LogManager *LogManager
	RootDir    string
}

func NewHarness(t *testing.T) *Harness {
	rootDir, err := findRoot()
	if err != nil {
		t.Fatal(err)
	}
	h := &Harness{
		t:          t,
		ctx:        context.Background(),
		Runs:       make(map[string]testcontainers.Container),
		LogManager: NewLogManager(),
		RootDir:    rootDir,
	}
	// image building is handled in TestMain
	t.Cleanup(func() {
		h.Cleanup()
	})
	return h
}

// Step is a single line typed at the prompt, sent after waiting for Delay
type Step struct {
	Delay   time.Duration
	Command string
}

// shellScript renders steps as a shell pipeline feeding the prompt
func shellScript(steps []Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.Delay > 0 {
			parts = append(parts, fmt.Sprintf("sleep %.1f", s.Delay.Seconds()))
		}
		parts = append(parts, fmt.Sprintf("echo '%s'", s.Command))
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

// Simulate starts `routesim simulate` on topologyPath and types steps into its prompt
func (h *Harness) Simulate(name, topologyPath string, args []string, steps ...Step) testcontainers.Container {
	cmd := fmt.Sprintf("%s | routesim simulate -t /app/topology.yaml %s", shellScript(steps), strings.Join(args, " "))
	return h.start(name, topologyPath, []string{"sh", "-c", cmd}, "simulation started")
}

// Run starts routesim with args on topologyPath, returning once it has exited
func (h *Harness) Run(name, topologyPath string, args ...string) testcontainers.Container {
	cmd := append([]string{"routesim", "-t", "/app/topology.yaml"}, args...)
	return h.start(name, topologyPath, cmd, "")
}

func (h *Harness) start(name, topologyPath string, cmd []string, waitFor string) testcontainers.Container {
	h.t.Logf("Starting run %s: %v", name, cmd)
	req := testcontainers.ContainerRequest{
		Image: ImageName,
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      topologyPath,
				ContainerFilePath: "/app/topology.yaml",
				FileMode:          0644,
			},
		},
		Cmd: cmd,
		HostConfigModifier: func(hostConfig *container.HostConfig) {
			// the simulation never touches a real network
			hostConfig.NetworkMode = "none"
		},
		LogConsumerCfg: &testcontainers.LogConsumerConfig{
			Consumers: []testcontainers.LogConsumer{
				&UnifiedLogConsumer{Run: name, Manager: h.LogManager},
			},
		},
		Name: strings.ReplaceAll(h.t.Name(), "/", "-") + "-" + name,
	}
	if waitFor != "" {
		req.WaitingFor = wait.ForLog(waitFor).WithStartupTimeout(30 * time.Second)
	} else {
		req.WaitingFor = wait.ForExit().WithExitTimeout(30 * time.Second)
	}
	cont, err := testcontainers.GenericContainer(h.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		h.t.Fatalf("failed to start run %s: %v", name, err)
	}
	h.mu.Lock()
	h.Runs[name] = cont
	h.mu.Unlock()
	return cont
}

func (h *Harness) WaitForLog(run string, pattern string) {
	h.waitFor(run, SourceStderr, pattern, false)
}
func (h *Harness) WaitForMatch(run string, pattern string) {
	h.waitFor(run, SourceStderr, pattern, true)
}
func (h *Harness) WaitForOutput(run string, pattern string) {
	h.waitFor(run, SourceStdout, pattern, false)
}
func (h *Harness) waitFor(run string, source LogSource, pattern string, isRegex bool) {
	h.t.Helper()
	sub, err := h.LogManager.Subscribe(run, source, pattern, isRegex)
	if err != nil {
		h.t.Fatalf("failed to subscribe: %v", err)
	}
	defer h.LogManager.Unsubscribe(sub)

	select {
	case <-sub.MatchCh:
		return
	case <-time.After(WaitTimeout):
		h.PrintLogs(run)
		h.t.Fatalf("timed out waiting for %s pattern %q in run %s", source, pattern, run)
	case <-h.ctx.Done():
		h.t.Fatal("context canceled")
	}
}

// WaitForExit blocks until the run has exited and returns its exit code
func (h *Harness) WaitForExit(run string) int {
	h.t.Helper()
	c := h.get(run)
	deadline := time.Now().Add(WaitTimeout)
	for time.Now().Before(deadline) {
		st, err := c.State(h.ctx)
		if err != nil {
			h.t.Fatalf("failed to inspect run %s: %v", run, err)
		}
		if !st.Running {
			return st.ExitCode
		}
		time.Sleep(200 * time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for run %s to exit", run)
	return -1
}

func (h *Harness) get(run string) testcontainers.Container {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.Runs[run]
	if !ok {
		h.t.Fatalf("run %s not found", run)
	}
	return c
}

func (h *Harness) Cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, c := range h.Runs {
		if err := c.Terminate(h.ctx); err != nil {
			h.t.Logf("failed to terminate run %s: %v", name, err)
		}
	}
}

// Exec runs cmd inside a run that is still alive
func (h *Harness) Exec(run string, cmd []string) (string, string, error) {
	c := h.get(run)
	code, r, err := c.Exec(h.ctx, cmd)
	if err != nil {
		return "", "", err
	}

	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	_, err = stdcopy.StdCopy(stdoutBuf, stderrBuf, r)
	if err != nil {
		return "", "", fmt.Errorf("failed to copy output: %w", err)
	}

	stdout := StripAnsi(stdoutBuf.String())
	stderr := StripAnsi(stderrBuf.String())
	if code != 0 {
		return stdout, stderr, fmt.Errorf("command exited with code %d: %s\nStderr: %s", code, stdout, stderr)
	}
	return stdout, stderr, nil
}

func (h *Harness) PrintLogs(run string) {
	h.mu.Lock()
	c, ok := h.Runs[run]
	h.mu.Unlock()
	if !ok {
		h.t.Logf("run %s not found for logging", run)
		return
	}
	r, err := c.Logs(h.ctx)
	if err != nil {
		h.t.Logf("failed to get logs for %s: %v", run, err)
		return
	}
	buf := new(bytes.Buffer)
	io.Copy(buf, r)
	h.t.Logf("Logs for %s:\n%s", run, buf.String())
}

// TopologyPath returns the path of a topology bundled with the repository
func (h *Harness) TopologyPath(name string) string {
	return filepath.Join(h.RootDir, "configs", name)
}
