// Package daemon hosts the long-running scanflow process: one pipeline per
// workstation, guarded by a lock file.
package daemon
