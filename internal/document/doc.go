// Package document models a scanned document and reads its coarse PDF
// metadata (page count, title, author) for reporting.
package document
