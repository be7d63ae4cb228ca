//go:build e2e

package e2e

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologyCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	t.Parallel()
	h := NewHarness(t)

	h.Run("topo", h.TopologyPath("campus.yaml"), "topology")
	out := h.LogManager.Output("topo", SourceStdout)
	assert.Contains(t, out, "adjacency:")
	assert.Contains(t, out, "CORE1")
	assert.Equal(t, 7, strings.Count(out, "- - "))
}

func TestPingNeighbour(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	t.Parallel()
	h := NewHarness(t)

	h.Simulate("chain", h.TopologyPath("chain.yaml"), FastTiming,
		Step{Delay: time.Second, Command: "ping r1 r2"},
		Step{Delay: time.Second, Command: "exit"},
	)
	h.WaitForLog("chain", "established link with R2")
	h.WaitForLog("chain", "probe R1 -> R2 succeeded")
	require.Equal(t, 0, h.WaitForExit("chain"))
	h.WaitForLog("chain", "simulation stopped")
}

func TestPingBeyondNeighbours(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	t.Parallel()
	h := NewHarness(t)
	dir := h.SetupTestDir()
	path := h.WriteTopology(dir, "line.yaml", LineTopology(4))

	h.Simulate("line", path, FastTiming,
		Step{Delay: time.Second, Command: "ping R1 R4"},
		Step{Command: "ping R4 nowhere"},
		Step{Delay: time.Second, Command: "exit"},
	)
	h.WaitForLog("line", "no route to R4, dropping probe")
	h.WaitForLog("line", "no route to nowhere, dropping probe")
	h.WaitForMatch("line", `probe R1 -> R4 failed.*reason=PROBE_NO_ROUTE`)
	require.Equal(t, 0, h.WaitForExit("line"))
}

func TestLinkFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	t.Parallel()
	h := NewHarness(t)

	h.Simulate("fail", h.TopologyPath("chain.yaml"), FastTiming,
		Step{Delay: time.Second, Command: "fail link R1 R2"},
		Step{Command: "fail link R1 R2"},
		Step{Delay: 2 * time.Second, Command: "show R2"},
		Step{Command: "ping R1 R2"},
		Step{Delay: time.Second, Command: "exit"},
	)
	h.WaitForLog("fail", "link to R2 timed out")
	h.WaitForLog("fail", "link to R1 timed out")
	h.WaitForOutput("fail", "Link failed.")
	h.WaitForOutput("fail", "Error: no link between R1 and R2")
	h.WaitForLog("fail", "probe R1 -> R2 failed")
	require.Equal(t, 0, h.WaitForExit("fail"))
}

func TestPauseResume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	t.Parallel()
	h := NewHarness(t)

	h.Simulate("pause", h.TopologyPath("chain.yaml"), FastTiming,
		Step{Delay: time.Second, Command: "pause"},
		// longer than the neighbour timeout
		Step{Delay: 2 * time.Second, Command: "resume"},
		Step{Delay: 500 * time.Millisecond, Command: "ping R2 R3"},
		Step{Delay: time.Second, Command: "exit"},
	)
	h.WaitForOutput("pause", "Simulation paused.")
	h.WaitForOutput("pause", "Simulation resumed.")
	h.WaitForLog("pause", "probe R2 -> R3 succeeded")
	require.Equal(t, 0, h.WaitForExit("pause"))
	assert.NotContains(t, h.LogManager.Output("pause", SourceStderr), "timed out")
}
