package core

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/encodeous/routesim/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

var ErrShutdownSignal = errors.New("received shutdown signal")

func setupDebugging(addr string) {
	if addr == "" {
		return
	}
	go func() {
		log.Println(http.ListenAndServe(addr, nil))
	}()
}

// NewLogger builds the console logger, fanning out to logPath as well if it is set.
// The returned closer releases the log file.
func NewLogger(level slog.Level, logPath string) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: "sim",
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = nopCloser{}
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SimOptions configures a single run of Simulate
type SimOptions struct {
	TopologyPath string
	Sim          state.SimCfg
	Level        slog.Level
	LogPath      string
	DebugAddr    string
}

// Simulate runs a simulation of the topology at opts.TopologyPath, reading commands from in until the
// operator exits or the process receives SIGINT/SIGTERM.
func Simulate(opts SimOptions, in io.Reader, out io.Writer) error {
	setupDebugging(opts.DebugAddr)

	topo, err := state.LoadTopology(opts.TopologyPath)
	if err != nil {
		return err
	}
	logger, closer, err := NewLogger(opts.Level, opts.LogPath)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			cancel(ErrShutdownSignal)
		case <-ctx.Done():
			return
		}
	}()

	logger.Info("loaded topology", "path", opts.TopologyPath, "devices", len(topo.Devices), "links", len(topo.Edges()))
	e := NewEngine(topo, opts.Sim, logger)
	err = e.Run(ctx, in, out)
	if errors.Is(err, ErrShutdownSignal) {
		return nil
	}
	return err
}
