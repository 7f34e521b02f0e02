// Package client talks to the VibedTracker server and bootstraps local
// client state.
//
// # Overview
//
//  1. Client and PasskeyClient describe the remote API: the per-type blob
//     store under /data, /entry and /vacation, the key-info endpoint and the
//     passkey begin/finish endpoints.
//  2. HTTPClient implements both over JSON with an optional bearer token.
//     Binary fields travel as standard base64.
//  3. InitDatabase and RunMigrations open the local SQLite state database
//     and apply the embedded goose migrations.
//
// # Errors
//
// Non-2xx answers become *common.RemoteError, which matches
// common.ErrRemoteRejected and, depending on status, common.ErrNotFound,
// common.ErrUnauthorized or common.ErrVersionConflict. Transport failures
// match common.ErrUnavailable. Nothing is retried.
package client
