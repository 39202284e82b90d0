// Package instancelock guards an artifact directory against a second
// supervisor. The service writes its markers and statistics files under fixed
// names, so two concurrent runs sharing a directory would read each other's
// artifacts.
package instancelock
