// Package stability detects when a directory has finished receiving files,
// by polling the matching-file count until it holds still for a configured
// quiet period.
package stability
