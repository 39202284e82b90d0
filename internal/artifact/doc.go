// Package artifact reads and removes the files the KernFS service leaves in
// its artifact directory: PID markers announcing readiness and JSON profiling
// dumps written on shutdown.
//
// Both kinds are found by glob. Patterns may contain the {run} placeholder,
// which Expand replaces with the run identifier so that concurrent runs can
// use disjoint names.
package artifact
