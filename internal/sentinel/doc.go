// Package sentinel provides a string-backed error type that can be declared
// as a const.
//
// kernfsenv reports every supervision failure through these constants so that
// callers can classify a run failure with errors.Is no matter how deeply the
// error was wrapped on its way out of Start, Stop, or Provision.
package sentinel
