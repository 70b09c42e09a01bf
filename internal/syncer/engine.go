package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/etd-wiki/dungeon/internal/cache"
	"github.com/etd-wiki/dungeon/internal/characters"
	"github.com/etd-wiki/dungeon/internal/imagehost"
	"github.com/etd-wiki/dungeon/internal/state"
)

// User-facing messages.
const (
	MsgOfflineCache  = "Could not reach the API. Showing cached data."
	MsgOfflineSample = "Could not reach the API. Showing sample data."
	MsgNoCache       = "Could not connect to the dungeon and no cache is available."
	MsgValidation    = "Please fill name, description, and image before continuing."
	MsgNoSelection   = "Select a character to update it."
	MsgStaleEdit     = "The selected character changed. Review the form and save again."
	MsgSaveFailed    = "Could not save changes. Verify the endpoint allows PATCH or try again later."
	MsgSaved         = "Character updated successfully."
)

// FallbackPolicy decides what a failed refresh shows when no cache exists.
type FallbackPolicy int

const (
	// CacheOnly shows an empty list with StatusError.
	CacheOnly FallbackPolicy = iota
	// CacheThenSample shows and caches the built-in sample set.
	CacheThenSample
)

func (p FallbackPolicy) String() string {
	switch p {
	case CacheThenSample:
		return "sample"
	default:
		return "cache"
	}
}

// ParseFallbackPolicy accepts "cache" or "sample" (and their long forms).
func ParseFallbackPolicy(value string) (FallbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "cache", "cache-only", "cacheonly":
		return CacheOnly, nil
	case "sample", "cache-then-sample", "cachethensample":
		return CacheThenSample, nil
	default:
		return CacheOnly, fmt.Errorf("unknown fallback policy %q", value)
	}
}

// ImageUploader normalizes edited image URLs. *imagehost.Uploader implements it.
type ImageUploader interface {
	Enabled() bool
	Upload(ctx context.Context, source string) (string, error)
}

var _ ImageUploader = (*imagehost.Uploader)(nil)

// Options configure an Engine.
type Options struct {
	Gateway characters.Gateway
	Cache   cache.Store
	// Store defaults to a fresh store.
	Store *state.Store
	// Uploader may be nil, which disables uploads.
	Uploader ImageUploader
	Fallback FallbackPolicy
	// Sample defaults to SampleRecords.
	Sample []characters.Record
	Logger *slog.Logger
	// PreferredID is selected when nothing else is, e.g. the last selection
	// restored from preferences.
	PreferredID string
}

// Engine orchestrates the cache, the remote gateway and the shared state.
type Engine struct {
	gateway   characters.Gateway
	cache     cache.Store
	store     *state.Store
	uploader  ImageUploader
	fallback  FallbackPolicy
	sample    []characters.Record
	logger    *slog.Logger
	preferred string

	generation atomic.Uint64
	saving     atomic.Bool

	mu        sync.Mutex
	lastTerm  string
	cachedGen uint64
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("cache store is required")
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	sample := opts.Sample
	if sample == nil {
		sample = SampleRecords()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gateway:   opts.Gateway,
		cache:     opts.Cache,
		store:     store,
		uploader:  opts.Uploader,
		fallback:  opts.Fallback,
		sample:    characters.CloneRecords(sample),
		logger:    logger.With("component", "syncer"),
		preferred: strings.TrimSpace(opts.PreferredID),
	}, nil
}

// Store returns the state store the engine publishes to.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Initialize publishes the cached list as a placeholder, then refreshes.
func (e *Engine) Initialize(ctx context.Context) state.Snapshot {
	if cached, ok := e.cache.Get(ctx); ok {
		e.logger.Debug("showing cached characters while fetching", "count", len(cached))
		e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
			s.Records = cached
			s.SelectedID = state.Reconcile(cached, e.selectionHint(s.SelectedID))
			s.Status = state.StatusLoading
			return s, true
		})
	}
	return e.Refresh(ctx, "")
}

// Refresh fetches the list and replaces the state, falling back to the cache
// (or the sample set, per policy) on failure. Results of a refresh that was
// overtaken by a newer one are discarded.
func (e *Engine) Refresh(ctx context.Context, term string) state.Snapshot {
	term = strings.TrimSpace(term)
	e.mu.Lock()
	e.lastTerm = term
	e.mu.Unlock()

	gen := e.generation.Add(1)
	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		s.Status = state.StatusLoading
		s.LastError = ""
		s.Generation = gen
		return s, true
	})

	records, err := e.gateway.ListCharacters(ctx, term)
	if err == nil {
		return e.applyFetched(ctx, gen, records)
	}
	e.logger.Warn("character fetch failed", "generation", gen, "error", err)
	return e.applyFallback(ctx, gen)
}

func (e *Engine) applyFetched(ctx context.Context, gen uint64, records []characters.Record) state.Snapshot {
	snap, applied := e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		if s.Generation != gen {
			return s, false
		}
		s.Records = records
		s.SelectedID = state.Reconcile(records, e.selectionHint(s.SelectedID))
		s.Status = state.StatusReady
		s.LastError = ""
		return s, true
	})
	if !applied {
		e.logger.Debug("discarding stale refresh result", "generation", gen, "latest", snap.Generation)
		return snap
	}
	if len(records) > 0 {
		e.persist(ctx, gen, records)
	}
	e.logger.Info("characters refreshed", "generation", gen, "count", len(records))
	return snap
}

func (e *Engine) applyFallback(ctx context.Context, gen uint64) state.Snapshot {
	cached, ok := e.cache.Get(ctx)
	var fallback []characters.Record
	status := state.StatusOffline
	message := MsgOfflineCache
	useSample := false

	switch {
	case ok:
		fallback = cached
		e.logCacheAge(ctx)
	case e.fallback == CacheThenSample:
		fallback = characters.CloneRecords(e.sample)
		message = MsgOfflineSample
		useSample = true
	default:
		fallback = []characters.Record{}
		status = state.StatusError
		message = MsgNoCache
	}

	snap, applied := e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		if s.Generation != gen {
			return s, false
		}
		s.Records = fallback
		s.SelectedID = state.Reconcile(fallback, e.selectionHint(s.SelectedID))
		s.Status = status
		s.LastError = message
		return s, true
	})
	if !applied {
		e.logger.Debug("discarding stale fallback", "generation", gen, "latest", snap.Generation)
		return snap
	}
	if useSample && len(fallback) > 0 {
		e.persist(ctx, gen, fallback)
	}
	e.logger.Info("showing fallback characters", "generation", gen, "status", status, "count", len(fallback))
	return snap
}

// logCacheAge records when the fallback list was written, for caches that
// track it.
func (e *Engine) logCacheAge(ctx context.Context) {
	aged, ok := e.cache.(interface {
		UpdatedAt(ctx context.Context) (time.Time, error)
	})
	if !ok {
		return
	}
	ts, err := aged.UpdatedAt(ctx)
	if err != nil {
		e.logger.Debug("cache timestamp unavailable", "error", err)
		return
	}
	if ts.IsZero() {
		return
	}
	e.logger.Info("falling back to cached characters", "cached_at", ts, "age", time.Since(ts).Round(time.Second))
}

// persist writes records to the cache unless a newer generation already did.
func (e *Engine) persist(ctx context.Context, gen uint64, records []characters.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen < e.cachedGen {
		return
	}
	if err := e.cache.Set(ctx, records); err != nil {
		e.logger.Warn("cache write failed", "error", err)
		return
	}
	e.cachedGen = gen
}

func (e *Engine) selectionHint(current string) string {
	if current != "" {
		return current
	}
	return e.preferred
}

// Select sets the selection when id is present. It clears the message and
// error text and reports whether the selection was applied.
func (e *Engine) Select(id string) bool {
	_, applied := e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		if characters.IndexOf(s.Records, id) < 0 {
			return s, false
		}
		s.SelectedID = id
		s.Message = ""
		s.LastError = ""
		return s, true
	})
	return applied
}

// SetOnline records a connectivity transition. It never touches records.
func (e *Engine) SetOnline(online bool) {
	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		if s.Disconnected == !online {
			return s, false
		}
		s.Disconnected = !online
		return s, true
	})
}

// ClearMessages drops the transient message and error text.
func (e *Engine) ClearMessages() {
	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		if s.Message == "" && s.LastError == "" {
			return s, false
		}
		s.Message = ""
		s.LastError = ""
		return s, true
	})
}

// SubmitEdit validates fields, optionally uploads the image, PATCHes record
// id and refetches the list. id must still be the selected record; the form
// was filled from it. It reports false with a nil error when another edit is
// already in flight.
func (e *Engine) SubmitEdit(ctx context.Context, id string, fields characters.Fields) (bool, error) {
	if e.saving.Load() {
		e.logger.Debug("edit ignored, save in progress")
		return false, nil
	}

	f := fields.Trimmed()
	if missing := missingFields(f); len(missing) > 0 {
		e.setError(MsgValidation)
		return false, &ValidationError{Missing: missing}
	}

	rec, ok := e.store.Snapshot().Selected()
	if !ok {
		e.setError(MsgNoSelection)
		return false, &NoSelectionError{}
	}
	if rec.ID != id {
		e.logger.Warn("edit refused, selection changed", "form_id", id, "selected_id", rec.ID)
		e.setError(MsgStaleEdit)
		return false, &StaleSelectionError{FormID: id, SelectedID: rec.ID}
	}

	if !e.saving.CompareAndSwap(false, true) {
		e.logger.Debug("edit ignored, save in progress")
		return false, nil
	}
	defer e.saving.Store(false)

	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		s.Saving = true
		s.Message = ""
		s.LastError = ""
		return s, true
	})

	if err := e.submit(ctx, rec.ID, f); err != nil {
		e.logger.Warn("character update failed", "id", rec.ID, "error", err)
		e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
			s.Saving = false
			s.LastError = MsgSaveFailed
			return s, true
		})
		return false, err
	}

	e.mu.Lock()
	term := e.lastTerm
	e.mu.Unlock()
	e.Refresh(ctx, term)

	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		s.Saving = false
		s.Message = MsgSaved
		return s, true
	})
	e.logger.Info("character updated", "id", rec.ID)
	return true, nil
}

func (e *Engine) submit(ctx context.Context, id string, f characters.Fields) error {
	image, err := e.prepareImage(ctx, f.Image)
	if err != nil {
		return &ImagePrepError{Err: err}
	}
	f.Image = image

	if err := e.gateway.UpdateCharacter(ctx, id, f); err != nil {
		var httpErr *characters.HTTPError
		if errors.As(err, &httpErr) {
			return &RemoteUpdateError{Status: httpErr.Status, Body: httpErr.Detail(), Err: err}
		}
		return &RemoteUpdateError{Err: err}
	}
	return nil
}

// prepareImage returns the URL to send: trusted CDN URLs and unconfigured
// uploads pass through, anything else is uploaded first.
func (e *Engine) prepareImage(ctx context.Context, image string) (string, error) {
	if imagehost.IsTrusted(image) {
		return image, nil
	}
	if e.uploader == nil || !e.uploader.Enabled() {
		return image, nil
	}
	hosted, err := e.uploader.Upload(ctx, image)
	if err != nil {
		return "", err
	}
	e.logger.Debug("image uploaded", "source", image, "hosted", hosted)
	return hosted, nil
}

func (e *Engine) setError(msg string) {
	e.store.Apply(func(s state.Snapshot) (state.Snapshot, bool) {
		s.Message = ""
		s.LastError = msg
		return s, true
	})
}

func missingFields(f characters.Fields) []string {
	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.Description == "" {
		missing = append(missing, "description")
	}
	if f.Image == "" {
		missing = append(missing, "image")
	}
	return missing
}
