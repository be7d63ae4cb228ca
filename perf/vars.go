package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	TickLatency      = metric.NewHistogram("1m1s")
	ProbeRtt         = metric.NewHistogram("10m10s")
	HellosSent       = metric.NewCounter("10s1s")
	PacketsProcessed = metric.NewCounter("10s1s")
	ProbesInjected   = metric.NewCounter("10m10s")
	ProbesForwarded  = metric.NewCounter("10m10s")
	ProbesAnswered   = metric.NewCounter("10m10s")
	ProbesDropped    = metric.NewCounter("10m10s")
	ProbesLost       = metric.NewCounter("10m10s")
	LinksTimedOut    = metric.NewCounter("10m10s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("routesim:TickLatency (µs)", TickLatency)
	expvar.Publish("routesim:ProbeRtt (ms)", ProbeRtt)
	expvar.Publish("routesim:Hellos/s", HellosSent)
	expvar.Publish("routesim:Packets/s", PacketsProcessed)
	expvar.Publish("routesim:ProbesInjected", ProbesInjected)
	expvar.Publish("routesim:ProbesForwarded", ProbesForwarded)
	expvar.Publish("routesim:ProbesAnswered", ProbesAnswered)
	expvar.Publish("routesim:ProbesDropped", ProbesDropped)
	expvar.Publish("routesim:ProbesLost", ProbesLost)
	expvar.Publish("routesim:LinksTimedOut", LinksTimedOut)
}
