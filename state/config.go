package state

import (
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// InterfaceCfg is one row of a device's interface table. The simulation core does not consult
// these fields; they are carried so that devices boot with their configured interfaces.
type InterfaceCfg struct {
	Name      string
	Ip        netip.Addr `yaml:"ip,omitempty"`
	Mask      netip.Addr `yaml:"mask,omitempty"`
	Bandwidth uint64     `yaml:"bandwidth,omitempty"` // kbit/s
	Mtu       uint32     `yaml:"mtu,omitempty"`
}

type DeviceCfg struct {
	Id         DeviceId
	Interfaces []InterfaceCfg `yaml:",omitempty"`
}

// TopologyCfg is the on-disk description of the simulated network
type TopologyCfg struct {
	Devices []DeviceCfg
	Graph   []string
}

func (c *TopologyCfg) GetIds() []DeviceId {
	ids := make([]DeviceId, 0, len(c.Devices))
	for _, d := range c.Devices {
		ids = append(ids, d.Id)
	}
	return ids
}

// ParseTopology decodes and validates a topology document, then resolves its graph
func ParseTopology(data []byte) (*Topology, error) {
	var cfg TopologyCfg
	err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict())
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func LoadTopology(path string) (*Topology, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	topo, err := ParseTopology(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology %s: %w", path, err)
	}
	return topo, nil
}

func (c *TopologyCfg) Build() (*Topology, error) {
	err := TopologyConfigValidator(c)
	if err != nil {
		return nil, err
	}
	edges, err := ParseGraph(c.Graph, c.GetIds())
	if err != nil {
		return nil, err
	}
	return NewTopology(c.Devices, edges)
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	spl := strings.Split(strings.TrimSpace(s), ",")
	line := make([]string, 0)
	for _, s := range spl {
		x := strings.TrimSpace(s)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid device/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`device/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph Graph syntax is something like this:

Core = r1, r2, r3

Edge = r4, r5

Core, Edge, r6 // Core, Edge and r6 will all be interconnected, but not within Core or Edge

Core, Core // every device in Core is connected to every other device in Core

r8, r9 // r8 and r9 will be connected

Symbols are matched case-insensitively; the returned edges use the ids as given in devices.
*/
func ParseGraph(graph []string, devices []DeviceId) ([]Pair[DeviceId, DeviceId], error) {
	canonical := make(map[string]DeviceId)
	nodes := make([]string, 0, len(devices))
	for _, d := range devices {
		key := strings.ToLower(string(d))
		canonical[key] = d
		nodes = append(nodes, key)
	}

	parsedPairings := make([]Pair[string, string], 0)

	groups := make(map[string][]string)

	symbols := slices.Clone(nodes)

	// pass 0, collect all symbols

	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			// group definition
			spl := strings.Split(line, "=")
			if len(spl) != 2 {
				return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
			}
			grp := strings.TrimSpace(spl[0])
			if slices.Contains(nodes, grp) {
				return nil, fmt.Errorf("group name must not be a device name: %s", grp)
			}
			symbols = append(symbols, grp)
		}
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	// map: group -> groups it depends on, consumed by the topological sort below
	topo := make(map[string][]string)
	expansion := make(map[string][]string)

	// pass 1, parse graph
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if _, ok := groups[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			deps := make([]string, 0)
			for _, l := range lst {
				if !slices.Contains(nodes, l) {
					deps = append(deps, l)
				} else {
					expansion[grp] = append(expansion[grp], l)
				}
			}
			slices.Sort(deps)
			deps = slices.Compact(deps)

			topo[grp] = deps
			groups[grp] = lst
		} else {
			names, err := parseSymbolList(line, symbols)
			if err != nil {
				return nil, err
			}
			if len(names) < 2 {
				return nil, fmt.Errorf("invalid pairing, %v", names)
			}
			interconnect := make([]string, 0)
			for _, name := range names {
				for _, node := range interconnect {
					parsedPairings = append(parsedPairings, MakeSortedPair(node, name))
				}
				interconnect = append(interconnect, name)
			}
			SortPairs(parsedPairings)
			parsedPairings = slices.Compact(parsedPairings)
		}
	}

	// pass 2, expand group names
	for len(topo) > 0 {
		var group string
		for k, v := range topo {
			if len(v) == 0 {
				group = k
				break
			}
		}
		if group == "" {
			cycle := make([]string, 0)
			for node := range topo {
				cycle = append(cycle, node)
			}
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		delete(topo, group)

		for k, deps := range topo {
			if slices.Contains(deps, group) {
				expansion[k] = append(expansion[k], expansion[group]...)
				slices.Sort(expansion[k])
				expansion[k] = slices.Compact(expansion[k])

				topo[k] = slices.DeleteFunc(deps, func(dep string) bool {
					return dep == group
				})
			}
		}
	}

	// pass 3, rewrite pairings onto device ids
	expand := func(sym string) []DeviceId {
		if slices.Contains(nodes, sym) {
			return []DeviceId{canonical[sym]}
		}
		x := make([]DeviceId, 0)
		for _, exp := range expansion[sym] {
			x = append(x, canonical[exp])
		}
		return x
	}
	pairings := make([]Pair[DeviceId, DeviceId], 0)
	for _, pair := range parsedPairings {
		for _, x := range expand(pair.V1) {
			for _, y := range expand(pair.V2) {
				if x != y {
					pairings = append(pairings, MakeSortedPair(x, y))
				}
			}
		}
	}
	SortPairs(pairings)
	pairings = slices.Compact(pairings)
	return pairings, nil
}
