// Package logging assembles the structured slog loggers shared by scanflow
// components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus a no-op logger for tests.
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
