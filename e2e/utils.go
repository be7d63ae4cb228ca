//go:build e2e

package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/encodeous/routesim/state"
	"github.com/goccy/go-yaml"
)

// SetupTestDir creates a directory for the current test run
func (h *Harness) SetupTestDir() string {
	dir := filepath.Join(h.RootDir, "e2e", "runs", h.t.Name())
	// clean up the previous run
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatal(err)
	}
	return dir
}

// WriteTopology marshals the topology to YAML and writes it to dir
func (h *Harness) WriteTopology(dir, filename string, cfg state.TopologyCfg) string {
	path := filepath.Join(dir, filename)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		h.t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		h.t.Fatal(err)
	}
	return path
}

// LineTopology connects n devices named R1..Rn in a line
func LineTopology(n int) state.TopologyCfg {
	cfg := state.TopologyCfg{}
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("R%d", i)
		ids = append(ids, id)
		cfg.Devices = append(cfg.Devices, state.DeviceCfg{Id: state.DeviceId(id)})
	}
	for i := 1; i < n; i++ {
		cfg.Graph = append(cfg.Graph, strings.Join(ids[i-1:i+1], ", "))
	}
	return cfg
}

// FastTiming are the simulate flags used by every run, keeping a run within a few seconds
var FastTiming = []string{
	"--tick", "20ms",
	"--hello", "200ms",
	"--timeout", "1s",
	"--settle", "500ms",
	"-v",
}
