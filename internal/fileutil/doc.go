// Package fileutil holds the small file helpers kernfsenv needs around the
// supervised service: creating log and archive directories, and copying
// statistics artifacts out of the shared temp directory before they are
// removed.
package fileutil
