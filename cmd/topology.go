package cmd

import (
	"fmt"

	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type topologyView struct {
	Devices   []state.DeviceCfg                  `yaml:"devices"`
	Links     [][2]state.DeviceId                `yaml:"links"`
	Adjacency map[state.DeviceId][]state.DeviceId `yaml:"adjacency"`
}

var topologyCmd = &cobra.Command{
	Use:     "topology",
	Aliases: []string{"topo"},
	Short:   "Validates a topology and prints the resolved network",
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := state.LoadTopology(topologyPath)
		if err != nil {
			return err
		}
		view := topologyView{
			Devices:   make([]state.DeviceCfg, 0),
			Links:     make([][2]state.DeviceId, 0),
			Adjacency: topo.Adjacency,
		}
		for _, id := range topo.Ids() {
			view.Devices = append(view.Devices, topo.Devices[id])
		}
		for _, e := range topo.Edges() {
			view.Links = append(view.Links, [2]state.DeviceId{e.V1, e.V2})
		}
		out, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
	GroupID: "topo",
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}
