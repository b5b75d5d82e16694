// Command scanflow is the operator CLI for the scanflow daemon: it starts
// and stops processing, renders station status, and inspects the upload
// queue over the daemon's Unix socket.
package main
