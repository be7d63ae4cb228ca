package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var topologyPath = "topology.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Concurrent router network simulator",
	Long: `routesim simulates a small network of routers, each running concurrently.
Routers discover their neighbours with hellos, time out neighbours that go quiet and forward probes
while an operator injects probes, link failures and pauses from an interactive prompt.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "topo",
		Title: "Topology Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&topologyPath, "topology", "t", topologyPath, "topology file")
}
