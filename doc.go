// Package qafizz is the composition root for the Qafizz notebook.
//
// It wires the session store and the note store (pkg/store) to a storage
// adapter chosen at runtime, and returns the notebook service
// (pkg/notebook) that applies the dashboard rules on top of them.
//
// Storage is a plain key/value port (core.Storage). Three keys hold all
// state: qafizz_auth, qafizz_user and qafizz_notes. Adapters:
//
//   - fs: one file per key in a directory, atomic writes, fsnotify watcher.
//   - memory: process-local, shared namespaces model browser tabs.
//   - sqlite / postgres: a key/value table, atomic updates in a transaction.
//   - mongo: one document per key, optimistic versioned updates.
//   - none: always unavailable, for non-interactive contexts.
//
// Usage:
//
//	nb, err := qafizz.New(ctx, "./.qafizz",
//		qafizz.WithAdapter("fs"),
//		qafizz.WithLogger(logger),
//	)
//
//	err = nb.Login(ctx, qafizz.User{ID: "u1", FirstName: "Ana"})
//	note, err := nb.CreateNote(ctx, qafizz.Draft{Title: "Hi", Content: "..."})
package qafizz
