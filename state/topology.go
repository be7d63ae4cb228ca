package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Topology is the read-only network handed to the simulation engine
type Topology struct {
	Devices   map[DeviceId]DeviceCfg
	Adjacency map[DeviceId][]DeviceId
	folded    map[string]DeviceId
}

func NewTopology(devices []DeviceCfg, edges []Pair[DeviceId, DeviceId]) (*Topology, error) {
	t := &Topology{
		Devices:   make(map[DeviceId]DeviceCfg),
		Adjacency: make(map[DeviceId][]DeviceId),
		folded:    make(map[string]DeviceId),
	}
	for _, d := range devices {
		key := strings.ToLower(string(d.Id))
		if _, ok := t.folded[key]; ok {
			return nil, fmt.Errorf("duplicate device: %s", d.Id)
		}
		t.folded[key] = d.Id
		t.Devices[d.Id] = d
		t.Adjacency[d.Id] = make([]DeviceId, 0)
	}
	for _, edge := range edges {
		if edge.V1 == edge.V2 {
			return nil, fmt.Errorf("device %s cannot be linked to itself", edge.V1)
		}
		for _, id := range []DeviceId{edge.V1, edge.V2} {
			if _, ok := t.Devices[id]; !ok {
				return nil, fmt.Errorf("device %s not defined", id)
			}
		}
		if slices.Contains(t.Adjacency[edge.V1], edge.V2) {
			continue
		}
		t.Adjacency[edge.V1] = append(t.Adjacency[edge.V1], edge.V2)
		t.Adjacency[edge.V2] = append(t.Adjacency[edge.V2], edge.V1)
	}
	for id := range t.Adjacency {
		slices.Sort(t.Adjacency[id])
	}
	return t, nil
}

// Ids returns every device in sorted order
func (t *Topology) Ids() []DeviceId {
	return slices.Sorted(maps.Keys(t.Devices))
}

func (t *Topology) Neighbours(id DeviceId) []DeviceId {
	return t.Adjacency[id]
}

func (t *Topology) Has(id DeviceId) bool {
	_, ok := t.Devices[id]
	return ok
}

// Resolve maps a name typed by an operator onto a device id, ignoring case
func (t *Topology) Resolve(name string) (DeviceId, bool) {
	id, ok := t.folded[strings.ToLower(name)]
	return id, ok
}

// Edges returns each undirected link once, sorted
func (t *Topology) Edges() []Pair[DeviceId, DeviceId] {
	edges := make([]Pair[DeviceId, DeviceId], 0)
	for id, neighs := range t.Adjacency {
		for _, n := range neighs {
			if id < n {
				edges = append(edges, Pair[DeviceId, DeviceId]{id, n})
			}
		}
	}
	SortPairs(edges)
	return edges
}
