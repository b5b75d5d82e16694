// Package pipeline composes the watcher, intake, verification, and upload
// stages into a single start/stoppable unit.
package pipeline
