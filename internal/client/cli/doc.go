// Package cli provides the interactive moodkeeper command-line client.
//
// It wires configuration, the local metadata store, the HTTP API client,
// the inference stack and the three entry sessions behind a REPL. Typical
// flow: restore a saved login or prompt for credentials, resolve the
// capability flag once, start a background connectivity watcher, and run
// user commands.
//
// Commands:
//   - register, login, logout, whoami
//   - journal: write, browse, search, edit, re-predict, correct and delete
//     journal entries
//   - selfie: capture a face from the camera feed, browse by number, edit,
//     re-predict, correct and delete
//   - rating: rate the day once, browse, edit and delete
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
