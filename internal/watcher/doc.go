// Package watcher turns inotify events on the scan root and stage
// directories into pipeline work.
package watcher
