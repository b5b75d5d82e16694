// Package services defines the shared error taxonomy for the external
// collaborators the pipeline depends on, plus the client packages beneath it
// (recognition, assessor, ghostscript).
package services
