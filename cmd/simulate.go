package cmd

import (
	"log/slog"
	"os"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var (
	simCfg    = state.DefaultSimCfg()
	logPath   string
	debugAddr string
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim"},
	Short:   "Run an interactive simulation of a topology",
	Long: `Starts one router per device of the topology, waits for the network to settle, then reads
commands from stdin. Type 'help' at the prompt for the list of commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := state.SimConfigValidator(&simCfg)
		if err != nil {
			return err
		}
		if logPath != "" {
			err = state.PathValidator(logPath)
			if err != nil {
				return err
			}
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		return core.Simulate(core.SimOptions{
			TopologyPath: topologyPath,
			Sim:          simCfg,
			Level:        level,
			LogPath:      logPath,
			DebugAddr:    debugAddr,
		}, os.Stdin, os.Stdout)
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	simulateCmd.Flags().StringVar(&logPath, "log", "", "Also write logs to this file")
	simulateCmd.Flags().StringVar(&debugAddr, "debug", "", "Serve expvar metrics on this address, e.g. 127.0.0.1:6060")

	simulateCmd.Flags().DurationVar(&simCfg.TickInterval, "tick", simCfg.TickInterval, "Router tick interval")
	simulateCmd.Flags().DurationVar(&simCfg.HelloInterval, "hello", simCfg.HelloInterval, "Interval between hellos")
	simulateCmd.Flags().DurationVar(&simCfg.NeighbourTimeout, "timeout", simCfg.NeighbourTimeout, "Time without a hello after which a neighbour is removed")
	simulateCmd.Flags().DurationVar(&simCfg.SettleDelay, "settle", simCfg.SettleDelay, "Time to wait for the network to settle before accepting commands")
	simulateCmd.Flags().DurationVar(&simCfg.ProbeTimeout, "probe-timeout", simCfg.ProbeTimeout, "Time after which an unanswered probe is reported lost")
}
