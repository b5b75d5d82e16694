// Package ipc carries daemon control traffic between the scanflow CLI and
// scanflowd over a Unix domain socket using JSON-RPC.
package ipc
