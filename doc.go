// Package kernfsenv supervises the lifecycle of a KernFS filesystem daemon
// for benchmark runs.
//
// A Service starts the daemon pinned to a CPU and NUMA node, waits until the
// daemon writes a readiness marker naming its own pid, and on Stop signals
// the daemon's whole process group, collects the last statistics record the
// daemon wrote, and removes the statistics files so the next run starts
// clean.
//
// Lifecycle:
//
//	svc, err := kernfsenv.NewService(repoRoot, kernfsenv.WithNUMANode(0), kernfsenv.WithGatherStats(true))
//	if err != nil { ... }
//	defer svc.Close()
//
//	if err := svc.Start(ctx); err != nil { ... }
//	// run the workload against the mounted filesystem
//	stats, err := svc.Stop(false)
//
// Provision reformats the storage devices and is only needed when the on-disk
// layout changes.
//
// Readiness markers and statistics files live in a shared directory (/tmp by
// default) under fixed names, so only one Service may run per directory. A
// Service enforces this with an advisory lock unless both artifact patterns
// contain the "{run}" placeholder, which is replaced by the run ID that the
// daemon also receives as KERNFS_RUN_ID.
package kernfsenv
