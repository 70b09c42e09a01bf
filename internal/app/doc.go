// Package app is the composition root for the dungeon binary.
//
// # Overview
//
// RunTUI wires configuration, preferences, the cache, the characters client,
// the image uploader and the sync engine together, then hands the engine to
// the Bubble Tea UI. RunProxy serves the Remote Data Gateway with its own
// Prometheus registry.
//
// # TUI startup
//
//  1. Load config (TOML file, then DUNGEON_* environment overrides)
//  2. Load prefs (theme, last selected record)
//  3. Open the slog file logger at <log_dir>/dungeon.log
//  4. Open the SQLite cache, or an in-memory one with --no-cache
//  5. Build the engine with the configured fallback policy
//  6. Start the connectivity watcher
//  7. Run the UI (blocks), then remember the final selection
//
// # Data Flow
//
//	┌──────────────┐
//	│  RunTUI()    │
//	└──────┬───────┘
//	       ├─────> cache.Open()          last known-good list
//	       ├─────> characters.NewClient  GET/PATCH /api/characters
//	       ├─────> syncer.New()          owns state.Store
//	       ├─────> StartWatcher()        TCP probe -> engine.SetOnline
//	       └─────> ui.Run()              Initialize, Refresh, SubmitEdit
//
// # Connectivity
//
// The watcher dials the API host every few seconds. A failed probe marks the
// snapshot disconnected and backs off exponentially up to 30 seconds. It
// never touches records or the cache; only fetches do that.
//
// # Error Handling
//
// Fatal (returned from RunTUI): invalid config, unknown fallback policy,
// unusable log or cache path. Everything after the UI starts is reported
// through the snapshot and the log file instead.
package app
