// Package process manages the lifecycle of one external process that runs as
// the leader of its own session.
//
// BaseProcess starts the command in a new session, owns the single cmd.Wait
// call, and exposes a non-blocking liveness check. StopGroup delivers a
// signal to the whole process group and waits, with a bound, for the leader
// and every other member to go away. WaitReady polls a readiness condition
// until it holds, the deadline passes, or the process exits.
//
// The package relies on POSIX sessions and process groups; on Linux the
// group membership check reads /proc.
package process
