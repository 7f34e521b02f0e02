// Package cli provides the interactive VibedTracker command-line client.
//
// It wires configuration, the local SQLite store, the HTTP API client and
// the services into a REPL. Typical flow: unlock with a passkey or the
// passphrase, start tracking, pause and resume, stop, and list past entries.
//
// Key features:
//   - Setup / Unlock / Lock (passkey first, passphrase fallback)
//   - Live tracking: start, pause, resume, mode, stop, status
//   - Work entries and vacation absences: list, add, delete
//   - Passkey registration, key backup, listing and removal
//   - Recovery codes: status, regeneration and passphrase reset
//   - Encrypted backup export to a directory or S3
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
