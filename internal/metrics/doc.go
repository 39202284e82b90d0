// Package metrics exposes Prometheus collectors for supervisor operations.
// A nil *Recorder is valid and records nothing.
package metrics
