// Package stage models the document lifecycle as a directory-backed state
// machine.
//
// There is no status field anywhere: the filesystem is the database. A crash
// mid-stage leaves every document in a consistent prior stage, which is what
// makes "stage complete" signals survive process restarts.
package stage
