package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/encodeous/routesim/state"
	"github.com/olekukonko/tablewriter"
)

type CommandKind int

const (
	CmdEmpty CommandKind = iota
	CmdUnknown
	CmdPing
	CmdFailLink
	CmdPause
	CmdResume
	CmdHelp
	CmdExit
	CmdShow
	CmdDevices
)

// Command is one parsed line of operator input
type Command struct {
	Kind CommandKind
	Args []string
}

const helpText = `Commands:
  ping <src> <dst>        send a probe from src to dst
  fail link <d1> <d2>     cut the link between d1 and d2
  pause                   pause every device
  resume                  resume every device
  show <device>           print a device's routing table and links
  devices                 list every device
  help                    print this summary
  exit                    stop the simulation`

// ParseCommand parses a line of input. Commands are case-insensitive; a command with the wrong
// number of arguments is unknown.
func ParseCommand(line string) Command {
	f := strings.Fields(strings.ToLower(line))
	if len(f) == 0 {
		return Command{Kind: CmdEmpty}
	}
	switch {
	case f[0] == "ping" && len(f) == 3:
		return Command{Kind: CmdPing, Args: f[1:]}
	case f[0] == "fail" && len(f) == 4 && f[1] == "link":
		return Command{Kind: CmdFailLink, Args: f[2:]}
	case f[0] == "pause" && len(f) == 1:
		return Command{Kind: CmdPause}
	case f[0] == "resume" && len(f) == 1:
		return Command{Kind: CmdResume}
	case f[0] == "help" && len(f) == 1:
		return Command{Kind: CmdHelp}
	case f[0] == "exit" && len(f) == 1:
		return Command{Kind: CmdExit}
	case f[0] == "show" && len(f) == 2:
		return Command{Kind: CmdShow, Args: f[1:]}
	case f[0] == "devices" && len(f) == 1:
		return Command{Kind: CmdDevices}
	}
	return Command{Kind: CmdUnknown, Args: f}
}

// Exec runs a single command, writing its result to out. Returns true if the command loop should exit.
func (e *Engine) Exec(cmd Command, out io.Writer) bool {
	switch cmd.Kind {
	case CmdEmpty:
	case CmdPing:
		id, err := e.Ping(cmd.Args[0], cmd.Args[1])
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(out, "Sent probe %s\n", id.String()[:8])
	case CmdFailLink:
		err := e.FailLink(cmd.Args[0], cmd.Args[1])
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			break
		}
		fmt.Fprintln(out, "Link failed.")
	case CmdPause:
		if !e.Pause() {
			fmt.Fprintln(out, "Simulation is already paused.")
			break
		}
		fmt.Fprintln(out, "Simulation paused.")
	case CmdResume:
		if !e.Resume() {
			fmt.Fprintln(out, "Simulation is not paused.")
			break
		}
		fmt.Fprintln(out, "Simulation resumed.")
	case CmdHelp:
		fmt.Fprintln(out, helpText)
	case CmdExit:
		return true
	case CmdShow:
		snap, err := e.Snapshot(cmd.Args[0])
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			break
		}
		fmt.Fprint(out, snap.String())
	case CmdDevices:
		e.writeDevices(out)
	default:
		fmt.Fprintln(out, "Unknown command.")
	}
	return false
}

// Serve reads commands from in until exit, end of input or ctx is cancelled
func (e *Engine) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	fmt.Fprintln(out, "Simulation running. Type 'help' for commands.")
	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return context.Cause(ctx)
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			if e.Exec(ParseCommand(line), out) {
				return nil
			}
		}
	}
}

// Run starts the simulation, waits for it to settle, then serves commands until the operator exits.
// Every router has stopped by the time Run returns.
func (e *Engine) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	err := e.Start(ctx)
	if err != nil {
		return err
	}
	defer e.Stop()
	err = e.Settle(ctx)
	if err != nil {
		return err
	}
	return e.Serve(ctx, in, out)
}

func (e *Engine) writeDevices(w io.Writer) {
	e.Setup()
	rows := make([][]string, 0, len(e.routers))
	for _, id := range e.Topo.Ids() {
		r := e.routers[id]
		snap := r.Snapshot()
		rows = append(rows, []string{
			string(id),
			r.Status().String(),
			fmt.Sprintf("%d", len(snap.Routes)),
			joinIds(r.Links.Ids()),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"DEVICE", "STATUS", "ROUTES", "LINKS"})
	table.AppendBulk(rows)
	table.Render()
}

func joinIds(ids []state.DeviceId) string {
	if len(ids) == 0 {
		return "none"
	}
	s := make([]string, 0, len(ids))
	for _, id := range ids {
		s = append(s, string(id))
	}
	return strings.Join(s, ", ")
}
