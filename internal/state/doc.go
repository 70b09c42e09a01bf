// Package state holds the synchronization state shared by the sync engine
// and the UI.
//
// # Overview
//
// The state is one immutable value, Snapshot: the ordered records, the
// selected id, a coarse Status and the user-facing message and error text.
// The sync engine is the only writer; the UI reads snapshots and subscribes
// to change notifications.
//
// # Architecture
//
//	Writer (syncer.Engine):          Reader (ui.Model):
//	┌────────────────────────┐      ┌──────────────────────────┐
//	│ store.Apply(fn)        │      │ ch, cancel := Subscribe()│
//	│   fn(old) -> new, ok   │─────→│ <-ch  (latest snapshot)  │
//	│   (mutex held)         │      │ render                   │
//	└────────────────────────┘      └──────────────────────────┘
//
// Apply runs a pure update function under the store mutex. If the function
// reports no change the store is untouched and nobody is notified, which is
// how stale refresh results are dropped without a separate lock.
//
// # Pure Functions
//
//   - Reconcile: re-derives a valid selection after the record list changes
//   - Filter: the client-side search view (case-insensitive substring over
//     name, type and description)
//
// Both take and return plain values and never touch the Store, so the UI and
// tests can call them freely.
//
// # Update Semantics
//
// Every load replaces Records, SelectedID and Status in one Apply call, so a
// reader never observes a new list paired with an old selection. Snapshots
// handed out by Snapshot and Subscribe are deep copies.
//
// # Subscriptions
//
// Subscribers get a channel with a buffer of one. When a subscriber is slow
// the pending snapshot is replaced by the newer one: readers only ever care
// about the latest state, never the history.
//
// # Testing Considerations
//
// The zero Store is ready to use and starts in StatusLoading:
//
//	store := &state.Store{}
//	snap := store.Snapshot() // Status == StatusLoading, no records
package state
