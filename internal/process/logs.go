package process

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/kernfsenv/internal/fileutil"
)

// Output selects where the child's stdout and stderr go. LogDir wins over
// Verbose; with neither set the output is discarded.
type Output struct {
	Verbose bool   // inherit the supervisor's stdout/stderr
	LogDir  string // write <name>-stdout.log and <name>-stderr.log here
}

// LogFiles manages stdout/stderr file handles for a process.
type LogFiles struct {
	stdoutFile *os.File
	stderrFile *os.File
	dir        string
	stdoutName string
	stderrName string
}

// NewLogFiles creates (truncating) the log files for processName in dir.
func NewLogFiles(dir, processName string) (LogFiles, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return LogFiles{}, err
	}
	l := LogFiles{
		dir:        dir,
		stdoutName: processName + "-stdout.log",
		stderrName: processName + "-stderr.log",
	}
	stdoutFile, err := os.Create(l.StdoutPath())
	if err != nil {
		return LogFiles{}, fmt.Errorf("create stdout log: %w", err)
	}
	stderrFile, err := os.Create(l.StderrPath())
	if err != nil {
		_ = stdoutFile.Close()
		return LogFiles{}, fmt.Errorf("create stderr log: %w", err)
	}
	l.stdoutFile = stdoutFile
	l.stderrFile = stderrFile
	return l, nil
}

// Close closes both handles. Safe to call repeatedly.
func (l *LogFiles) Close() {
	if l.stdoutFile != nil {
		_ = l.stdoutFile.Close()
		l.stdoutFile = nil
	}
	if l.stderrFile != nil {
		_ = l.stderrFile.Close()
		l.stderrFile = nil
	}
}

// StdoutPath returns the path of the stdout log.
func (l *LogFiles) StdoutPath() string {
	return filepath.Join(l.dir, l.stdoutName)
}

// StderrPath returns the path of the stderr log.
func (l *LogFiles) StderrPath() string {
	return filepath.Join(l.dir, l.stderrName)
}

// writers resolves o into the writers handed to exec.Cmd. A nil writer makes
// exec connect the stream to the null device.
func (o Output) writers(name string) (stdout, stderr io.Writer, logs LogFiles, err error) {
	switch {
	case o.LogDir != "":
		logs, err = NewLogFiles(o.LogDir, name)
		if err != nil {
			return nil, nil, LogFiles{}, fmt.Errorf("create %s logs: %w", name, err)
		}
		return logs.stdoutFile, logs.stderrFile, logs, nil
	case o.Verbose:
		return os.Stdout, os.Stderr, LogFiles{}, nil
	default:
		return nil, nil, LogFiles{}, nil
	}
}
