// Package syncer keeps the character list, the local cache and the remote
// archive in step.
//
// # Overview
//
// The Engine is the only writer of the shared state.Store. The UI calls its
// operations from Bubble Tea commands and renders whatever snapshot the
// store publishes.
//
//   - Initialize: publish the cached list (status loading), then Refresh
//   - Refresh: fetch, persist non-empty results, revalidate the selection
//   - Select: move the selection to a record present in the list
//   - SubmitEdit: validate, upload the image if needed, PATCH, refetch
//   - SetOnline: record connectivity transitions reported by the watcher
//
// # Fallback
//
// A failed Refresh never clears the screen when a cache exists: the cached
// list is shown with status offline. Without a cache the FallbackPolicy
// decides between an empty list (CacheOnly) and the built-in sample set
// (CacheThenSample). The policy is fixed at construction.
//
// # Ordering
//
// Each Refresh takes a generation number. A response that arrives after a
// newer Refresh has started is discarded, so the store always reflects the
// latest request. Cache writes follow the same rule.
//
// # Edits
//
// Only one SubmitEdit runs at a time; a call made while another is in
// flight returns (false, nil) and does nothing. Edits never touch local
// records: the list changes only through the refetch that follows a
// successful PATCH.
package syncer
