// Package logtail reads and parses the client's own log file.
//
// # Overview
//
// The terminal client cannot print logs to the screen it is drawing on, so
// it writes them to <log_dir>/dungeon.log and shows them in a log view. This
// package provides the two pieces that view needs:
//
//  1. Read: extract the last N lines from a log file
//  2. ParseLine/ParseLines: split slog text-handler lines into fields
//
// # Reading Log Files
//
// Read uses a ring buffer of size maxLines, so memory stays at
// O(maxLines) regardless of file size, and lines come back oldest first.
// A missing file yields nil, nil.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// # Parsing
//
// Lines written by slog's text handler look like:
//
//	time=2026-10-19T12:00:00.000Z level=INFO msg="characters refreshed" count=12
//
// ParseLine pulls out time, level and msg and keeps the remaining pairs in
// order. Quoted values are unquoted. Anything that is not a key=value record
// (a panic trace, for instance) is returned with only Raw and Message set,
// never an error.
//
// AtLeast filters parsed entries by minimum level for the log view's level
// toggle.
package logtail
