// Package local provides the effectors this host can serve without a
// desktop session: process control and root-confined file access.
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/danmuck/rigctl/internal/rigs/proc"
)

// ProcEffector controls host processes through os/exec and signals.
type ProcEffector struct {
	log zerolog.Logger

	mu      sync.Mutex
	started map[int]*exec.Cmd
}

func NewProcEffector(logger zerolog.Logger) *ProcEffector {
	return &ProcEffector{log: logger, started: make(map[int]*exec.Cmd)}
}

// List reads procfs when present; hosts without it expose only the
// children this daemon started.
func (e *ProcEffector) List(ctx context.Context) ([]proc.Info, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return e.tracked(), nil
	}

	out := make([]proc.Info, 0, 128)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		info := proc.Info{PID: pid, Name: readComm(pid)}
		if cmdline := readCmdline(pid); cmdline != "" {
			info.Command = cmdline
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (e *ProcEffector) Info(ctx context.Context, pid int) (proc.Info, error) {
	e.mu.Lock()
	cmd, tracked := e.started[pid]
	e.mu.Unlock()
	if tracked {
		return proc.Info{PID: pid, Name: filepath.Base(cmd.Path), Command: strings.Join(cmd.Args, " ")}, nil
	}

	if name := readComm(pid); name != "" {
		return proc.Info{PID: pid, Name: name, Command: readCmdline(pid)}, nil
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return proc.Info{}, fmt.Errorf("local: process %d not found", pid)
	}
	if err := p.Signal(syscall.Signal(0)); err != nil {
		return proc.Info{}, fmt.Errorf("local: process %d not running", pid)
	}
	return proc.Info{PID: pid}, nil
}

// Start launches command detached from the request context and reaps it in
// the background.
func (e *ProcEffector) Start(ctx context.Context, command string, args []string) (proc.Info, error) {
	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return proc.Info{}, fmt.Errorf("local: start %s: %w", command, err)
	}
	pid := cmd.Process.Pid

	e.mu.Lock()
	e.started[pid] = cmd
	e.mu.Unlock()

	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		delete(e.started, pid)
		e.mu.Unlock()
		e.log.Debug().Int("pid", pid).Str("command", command).Err(err).Msg("process_exited")
	}()

	e.log.Info().Int("pid", pid).Str("command", command).Msg("process_started")
	return proc.Info{PID: pid, Name: filepath.Base(command), Command: strings.Join(cmd.Args, " ")}, nil
}

// Stop signals pid with SIGTERM, or SIGKILL when force is set.
func (e *ProcEffector) Stop(ctx context.Context, pid int, force bool) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("local: process %d not found", pid)
	}
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	if err := p.Signal(sig); err != nil {
		return fmt.Errorf("local: signal process %d: %w", pid, err)
	}
	e.log.Info().Int("pid", pid).Bool("force", force).Msg("process_signaled")
	return nil
}

func (e *ProcEffector) tracked() []proc.Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]proc.Info, 0, len(e.started))
	for pid, cmd := range e.started {
		out = append(out, proc.Info{PID: pid, Name: filepath.Base(cmd.Path), Command: strings.Join(cmd.Args, " ")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

func readComm(pid int) string {
	raw, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func readCmdline(pid int) string {
	raw, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "cmdline"))
	if err != nil || len(raw) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", " "))
}
