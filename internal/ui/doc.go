// Package ui is the terminal front end for the character archive, built on
// Bubble Tea.
//
// # Views
//
//   - List: characters on the left, the selected record's details on the
//     right. "/" filters by name, type and description as you type.
//   - Edit: name, description and image URL of the selected record.
//   - Logs: the tail of the client log file, optionally filtered by level.
//
// # Data flow
//
// The Model never mutates records itself. It subscribes to the engine's
// state.Store and re-renders from each snapshot; user actions become engine
// calls run as tea.Cmds (initialize, refresh, select, submit edit). The
// status line shows the snapshot's LastError or Message, so offline and
// save failures surface without extra plumbing.
//
// # Key bindings
//
//   - j/k, g/G: move the selection
//   - /: search, esc: clear search
//   - e or enter: edit selected, ctrl+s: save
//   - r: refresh
//   - l: client log, space: follow, v: level filter
//   - T: cycle theme, ?: help, q: quit
package ui
