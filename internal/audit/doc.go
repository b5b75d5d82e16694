// Package audit maintains the append-only audit trail: one quoted,
// delimited record per stage transition, outcome, or error, with fixed
// columns (Timestamp, Scanner, PC, Folder, File, Status, Action, Message).
package audit
