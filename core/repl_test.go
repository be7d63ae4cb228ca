package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/encodeous/routesim/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdEmpty}},
		{"   ", Command{Kind: CmdEmpty}},
		{"ping R1 R2", Command{Kind: CmdPing, Args: []string{"r1", "r2"}}},
		{"  PING   r1\tr3 ", Command{Kind: CmdPing, Args: []string{"r1", "r3"}}},
		{"fail link R1 R2", Command{Kind: CmdFailLink, Args: []string{"r1", "r2"}}},
		{"Fail Link a b", Command{Kind: CmdFailLink, Args: []string{"a", "b"}}},
		{"pause", Command{Kind: CmdPause}},
		{"RESUME", Command{Kind: CmdResume}},
		{"help", Command{Kind: CmdHelp}},
		{"exit", Command{Kind: CmdExit}},
		{"show r1", Command{Kind: CmdShow, Args: []string{"r1"}}},
		{"devices", Command{Kind: CmdDevices}},
		{"ping R1", Command{Kind: CmdUnknown, Args: []string{"ping", "r1"}}},
		{"fail R1 R2", Command{Kind: CmdUnknown, Args: []string{"fail", "r1", "r2"}}},
		{"fail node R1 R2", Command{Kind: CmdUnknown, Args: []string{"fail", "node", "r1", "r2"}}},
		{"exit now", Command{Kind: CmdUnknown, Args: []string{"exit", "now"}}},
		{"traceroute r1", Command{Kind: CmdUnknown, Args: []string{"traceroute", "r1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseCommand(tt.line)); diff != "" {
				t.Errorf("ParseCommand(%q) (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestExecWithoutStart(t *testing.T) {
	e := NewEngine(chain(t), fastSim(), slog.New(slog.DiscardHandler))
	defer e.Stop()
	out := &bytes.Buffer{}

	assert.False(t, e.Exec(ParseCommand("fail link R1 R2"), out))
	assert.Equal(t, "Link failed.\n", out.String())
	out.Reset()

	e.Exec(ParseCommand("fail link R1 R2"), out)
	assert.Equal(t, "Error: no link between R1 and R2\n", out.String())
	out.Reset()

	e.Exec(ParseCommand("pause"), out)
	e.Exec(ParseCommand("pause"), out)
	e.Exec(ParseCommand("resume"), out)
	e.Exec(ParseCommand("resume"), out)
	assert.Equal(t, "Simulation paused.\nSimulation is already paused.\nSimulation resumed.\nSimulation is not paused.\n", out.String())
	out.Reset()

	e.Exec(ParseCommand("show r2"), out)
	assert.Contains(t, out.String(), "Device R2 (Starting)")
	assert.Contains(t, out.String(), " - R3")
	out.Reset()

	e.Exec(ParseCommand("show r9"), out)
	assert.Equal(t, "Error: unknown device: r9\n", out.String())
	out.Reset()

	e.Exec(ParseCommand("devices"), out)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"DEVICE", "STATUS", "ROUTES", "LINKS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"R1", "Starting", "1", "none"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"R2", "Starting", "1", "R3"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"R3", "Starting", "1", "R2"}, strings.Fields(lines[3]))
	out.Reset()

	e.Exec(ParseCommand("what"), out)
	assert.Equal(t, "Unknown command.\n", out.String())

	assert.True(t, e.Exec(ParseCommand("exit"), out))
	assert.Equal(t, state.DeviceId("R1"), e.Router("R1").Id)
}
