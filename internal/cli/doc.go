// Package cli provides the interactive cardkeep command-line client.
//
// It wires configuration, the local SQLite database and the auth service
// into a small REPL. Typical flow: resume a saved session if the token still
// validates, start a background session watcher, and execute user commands.
//
// Key features:
//   - signup / login / logout
//   - whoami: a protected action that validates (and touches) the session
//   - rotate: swap the session token, keeping its absolute expiry
//   - status: idle and absolute time left
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
