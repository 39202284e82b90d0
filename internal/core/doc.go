// Package core implements the KernFS supervisor behind the public kernfsenv
// package: the Service (launch, readiness, termination, teardown), its
// configuration, and the package-level logger.
//
// A Service owns at most one service process at a time. The process is the
// leader of its own session, so every helper it forks shares its process
// group and is reached by a single group signal.
package core
