// Package uploadqueue drains verified documents to the remote assessment
// service with exactly-once semantics per run: duplicate observations of
// the same file collapse into a single upload.
package uploadqueue
