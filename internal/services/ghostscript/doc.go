// Package ghostscript wraps the Ghostscript CLI for PDF compression.
package ghostscript
