// Package shell implements the thin REPL/dispatcher behind every CLI
// verb: show, info, asinfo, collectinfo, health, summary, pager, watch.
// The core (pkg/cluster, pkg/node, pkg/partition) never parses these —
// shell is the only place that turns a typed line into one or more core
// calls and renders the result.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aerocluster/asadm/pkg/cluster"
)

// Shell holds everything a dispatched command needs: the cluster handle,
// an output sink, and the pager toggle. It carries no other mutable
// state — unlike the teacher's interface/composite-mode fields, there is
// no navigable sub-context here, since every verb names its target
// explicitly (spec.md §6: "the core does not parse these").
type Shell struct {
	cluster *cluster.Cluster
	out     io.Writer
	reader  *bufio.Reader

	pagerOn bool

	// SSHUser/SSHPassword/SSHPort configure the optional remote
	// system-stats sidecar gathered by collect() alongside a snapshot.
	// Collection is skipped entirely when SSHUser is empty.
	SSHUser     string
	SSHPassword string
	SSHPort     int
}

// New builds a Shell bound to c, writing command output to out.
func New(c *cluster.Cluster, out io.Writer) *Shell {
	return &Shell{
		cluster: c,
		out:     out,
		reader:  bufio.NewReader(os.Stdin),
	}
}

// Run starts the interactive REPL loop, reading one line at a time until
// EOF or "exit"/"quit".
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Connected. Type 'help' for available commands.")

	for {
		fmt.Fprint(s.out, "asadm> ")

		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil // EOF, clean exit
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if args[0] == "help" || args[0] == "?" {
			s.printHelp()
			continue
		}

		if err := s.Dispatch(ctx, args); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Dispatch routes one already-tokenized command line to its verb
// handler. Every handler receives the verb's arguments with the verb
// itself stripped.
func (s *Shell) Dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}

	verb, rest := args[0], args[1:]
	writer := s.writer()
	if pw, ok := writer.(*pagedWriter); ok {
		defer func() {
			pw.stdin.Close()
			pw.cmd.Wait()
		}()
	}

	switch verb {
	case "show":
		return s.cmdShow(ctx, writer, rest)
	case "info":
		return s.cmdInfo(ctx, writer, rest)
	case "asinfo":
		return s.cmdAsinfo(ctx, writer, rest)
	case "collectinfo":
		return s.cmdCollectinfo(ctx, writer, rest)
	case "health":
		return s.cmdHealth(ctx, writer, rest)
	case "summary":
		return s.cmdSummary(ctx, writer, rest)
	case "pager":
		return s.cmdPager(rest)
	case "watch":
		return s.cmdWatch(ctx, rest)
	default:
		return fmt.Errorf("unknown command: %s", verb)
	}
}

// writer returns the sink this dispatch's output should go to: a piped
// `less` when paging is on, s.out otherwise. The pipe is short-lived —
// opened and closed around a single command, not held across the REPL
// loop, since each command's output is a complete, self-contained page.
func (s *Shell) writer() io.Writer {
	if !s.pagerOn {
		return s.out
	}
	less := exec.Command("less", "-R")
	less.Stdout = s.out
	stdin, err := less.StdinPipe()
	if err != nil {
		return s.out
	}
	if err := less.Start(); err != nil {
		return s.out
	}
	return &pagedWriter{stdin: stdin, cmd: less}
}

// pagedWriter feeds one command's output into a running less process.
// Dispatch closes the pipe and waits for less to exit once the command
// returns.
type pagedWriter struct {
	stdin io.WriteCloser
	cmd   *exec.Cmd
}

func (w *pagedWriter) Write(p []byte) (int, error) {
	return w.stdin.Write(p)
}

func (s *Shell) cmdPager(args []string) error {
	if len(args) == 0 {
		s.pagerOn = !s.pagerOn
	} else {
		switch args[0] {
		case "on":
			s.pagerOn = true
		case "off":
			s.pagerOn = false
		default:
			return fmt.Errorf("pager: unknown argument %q (want on/off)", args[0])
		}
	}
	state := "off"
	if s.pagerOn {
		state = "on"
	}
	fmt.Fprintf(s.out, "pager: %s\n", state)
	return nil
}

// cmdWatch repeats a command at a fixed interval until the context is
// cancelled (Ctrl+C from the caller's signal handling). args[0] is the
// interval in whole seconds; the remainder is the command to repeat.
func (s *Shell) cmdWatch(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("watch: usage: watch <interval-seconds> <command> [args...]")
	}
	interval, err := time.ParseDuration(args[0] + "s")
	if err != nil || interval <= 0 {
		return fmt.Errorf("watch: invalid interval %q", args[0])
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Dispatch(ctx, args[1:]); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Available commands:
  show <nodes|namespaces>      render current cluster/namespace tables
  info                         per-node service statistics summary
  asinfo -v <command>          raw passthrough to every node's info port
  collectinfo [-o <dir>]       assemble and write a full cluster snapshot
  health [<check>]             run health checks (all, or one by name)
  summary                      one-line cluster overview
  pager [on|off]               toggle paging show/info/health output
  watch <seconds> <command>    repeat a command on an interval
  exit, quit                   leave the shell`)
}
