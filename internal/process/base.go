package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/giantswarm/kernfsenv/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called while a process is held.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when Start is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when Start is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// exitState is published by the wait goroutine. err is written before done
// is closed, so it may be read by anyone who has observed done closed.
type exitState struct {
	done chan struct{}
	err  error
}

// BaseProcess owns one external process started as a session leader.
//
// BaseProcess is not safe for concurrent use; the owning Service serializes
// all calls. The only internal goroutine is the one calling cmd.Wait.
type BaseProcess struct {
	cmd      *exec.Cmd
	exit     *exitState
	logFiles LogFiles
	name     string
	log      *slog.Logger
}

// NewBaseProcess returns an unstarted BaseProcess. A nil logger means
// slog.Default(). Panics if name is empty.
func NewBaseProcess(name string, logger *slog.Logger) BaseProcess {
	if name == "" {
		panic("kernfsenv: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return BaseProcess{name: name, log: logger}
}

// Start runs cmd in dir as the leader of a new session, so that a signal to
// its process group never reaches the supervisor. The cmd must already carry
// Path, Args, and Env.
//
// A single goroutine calling cmd.Wait is started here; it is the only place
// the child is reaped.
func (b *BaseProcess) Start(cmd *exec.Cmd, dir string, out Output) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if b.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd.Dir = dir
	configureSysProcAttr(cmd)

	stdout, stderr, logs, err := out.writers(b.name)
	if err != nil {
		return err
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		logs.Close()
		return fmt.Errorf("start %s process: %w", b.name, err)
	}

	st := &exitState{done: make(chan struct{})}
	go func() {
		st.err = cmd.Wait()
		close(st.done)
	}()

	b.cmd = cmd
	b.exit = st
	b.logFiles = logs
	b.log.Debug("process started", "process", b.name, "pid", cmd.Process.Pid)
	return nil
}

// Run executes cmd to completion as a session leader in dir. It is used for
// one-shot helpers such as the provisioning script and does not touch the
// held process.
func Run(cmd *exec.Cmd, dir string, out Output, name string) error {
	if cmd == nil {
		return ErrNilCmd
	}
	cmd.Dir = dir
	configureSysProcAttr(cmd)

	stdout, stderr, logs, err := out.writers(name)
	if err != nil {
		return err
	}
	defer logs.Close()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// IsStarted reports whether a process is held, whether or not it still runs.
func (b *BaseProcess) IsStarted() bool {
	return b.cmd != nil
}

// IsRunning reports whether a process is held and has not exited. It never
// blocks and may be called any number of times.
func (b *BaseProcess) IsRunning() bool {
	if b.exit == nil {
		return false
	}
	select {
	case <-b.exit.done:
		return false
	default:
		return true
	}
}

// PID returns the OS process id of the held process, or 0.
func (b *BaseProcess) PID() int {
	if b.cmd == nil || b.cmd.Process == nil {
		return 0
	}
	return b.cmd.Process.Pid
}

// Exited returns a channel closed when the held process exits, or nil when
// nothing is held.
func (b *BaseProcess) Exited() <-chan struct{} {
	if b.exit == nil {
		return nil
	}
	return b.exit.done
}

// ExitErr returns the cmd.Wait result once the process has exited. Before
// that, or when nothing is held, it returns nil.
func (b *BaseProcess) ExitErr() error {
	if b.IsRunning() || b.exit == nil {
		return nil
	}
	return b.exit.err
}

// Signal delivers sig to the held process only, not its group.
func (b *BaseProcess) Signal(sig os.Signal) error {
	if !b.IsRunning() {
		return fmt.Errorf("signal %s: process is not running", b.name)
	}
	if err := b.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal %s pid %d: %w", b.name, b.PID(), err)
	}
	return nil
}

// Release forgets the held process. It must only be called once the process
// has exited or the caller has given up on it; the wait goroutine keeps
// running until the child is reaped.
func (b *BaseProcess) Release() {
	if b.cmd != nil && b.IsRunning() {
		b.log.Warn("releasing process that is still running; it may be orphaned",
			"process", b.name, "pid", b.PID())
	}
	b.cmd = nil
	b.exit = nil
	b.logFiles.Close()
}
