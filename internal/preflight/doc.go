// Package preflight provides readiness checks for the directories,
// binaries, and network services the scan pipeline depends on.
//
// The daemon runs RunAll at startup and the CLI "scanflow status" command
// reuses the individual checks to display station health.
package preflight
