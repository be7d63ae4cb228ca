package state

import "time"

// EngineSender marks a probe that was injected by the operator rather than a device.
const EngineSender = "ENGINE"

var (
	TickInterval     = time.Millisecond * 100
	HelloInterval    = time.Second * 2
	NeighbourTimeout = time.Second * 5
	// SettleDelay is how long the engine waits for the first hello exchange before accepting commands
	SettleDelay  = time.Second * 2
	ProbeTimeout = time.Second * 10

	TraceBufferLen = 1024
)

// SimCfg holds the timing of a single simulation run
type SimCfg struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	HelloInterval    time.Duration `yaml:"hello_interval"`
	NeighbourTimeout time.Duration `yaml:"neighbour_timeout"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
}

func DefaultSimCfg() SimCfg {
	return SimCfg{
		TickInterval:     TickInterval,
		HelloInterval:    HelloInterval,
		NeighbourTimeout: NeighbourTimeout,
		SettleDelay:      SettleDelay,
		ProbeTimeout:     ProbeTimeout,
	}
}

// LivenessCheckInterval is how often a router sweeps its neighbours for expiry
func (c SimCfg) LivenessCheckInterval() time.Duration {
	return c.NeighbourTimeout / 2
}
