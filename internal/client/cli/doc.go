// Package cli provides the interactive chatkeeper command-line client.
//
// It wires configuration, local storage, the platform backends (notification
// scheduler and calendar) and the record store, then runs a chat-style REPL:
// every line that does not start with "/" is submitted as a new message and
// classified into a todo, reminder or note. Lines starting with "/" are
// commands, see runREPL.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
