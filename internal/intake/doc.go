// Package intake admits scanned documents from the drop folder into the
// staged pipeline, waiting out in-progress scanner writes first.
package intake
