package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etd-wiki/dungeon/internal/cache"
	"github.com/etd-wiki/dungeon/internal/characters"
	"github.com/etd-wiki/dungeon/internal/state"
)

type updateCall struct {
	id     string
	fields characters.Fields
}

type fakeGateway struct {
	mu        sync.Mutex
	records   []characters.Record
	listErr   error
	updateErr error
	onList    func(term string)
	onUpdate  func()
	terms     []string
	updates   []updateCall
}

func (g *fakeGateway) ListCharacters(ctx context.Context, term string) ([]characters.Record, error) {
	g.mu.Lock()
	g.terms = append(g.terms, term)
	hook := g.onList
	records := characters.CloneRecords(g.records)
	err := g.listErr
	g.mu.Unlock()
	if hook != nil {
		hook(term)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (g *fakeGateway) UpdateCharacter(ctx context.Context, id string, fields characters.Fields) error {
	g.mu.Lock()
	g.updates = append(g.updates, updateCall{id: id, fields: fields})
	hook := g.onUpdate
	err := g.updateErr
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

type fakeUploader struct {
	enabled bool
	url     string
	err     error
	calls   []string
}

func (u *fakeUploader) Enabled() bool { return u.enabled }

func (u *fakeUploader) Upload(ctx context.Context, source string) (string, error) {
	u.calls = append(u.calls, source)
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, gw characters.Gateway, store cache.Store, opts Options) *Engine {
	t.Helper()
	opts.Gateway = gw
	opts.Cache = store
	opts.Logger = quietLogger()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func seededCache(t *testing.T, records ...characters.Record) *cache.Memory {
	t.Helper()
	m := &cache.Memory{}
	require.NoError(t, m.Set(context.Background(), records))
	return m
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Cache: &cache.Memory{}})
	require.Error(t, err)
	_, err = New(Options{Gateway: &fakeGateway{}})
	require.Error(t, err)
}

func TestParseFallbackPolicy(t *testing.T) {
	p, err := ParseFallbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CacheOnly, p)

	p, err = ParseFallbackPolicy(" Sample ")
	require.NoError(t, err)
	assert.Equal(t, CacheThenSample, p)
	assert.Equal(t, "sample", p.String())

	_, err = ParseFallbackPolicy("bogus")
	require.Error(t, err)
}

func TestInitialize_ShowsCacheThenFreshData(t *testing.T) {
	ctx := context.Background()
	mem := seededCache(t, characters.Record{ID: "a", Name: "Old"})
	store := state.NewStore(state.Snapshot{SelectedID: "a"})

	var duringFetch state.Snapshot
	gw := &fakeGateway{records: []characters.Record{{ID: "a", Name: "New"}, {ID: "x", Name: "X"}}}
	gw.onList = func(string) { duringFetch = store.Snapshot() }

	e := newEngine(t, gw, mem, Options{Store: store})
	snap := e.Initialize(ctx)

	require.Len(t, duringFetch.Records, 1)
	assert.Equal(t, "Old", duringFetch.Records[0].Name)
	assert.Equal(t, state.StatusLoading, duringFetch.Status)

	require.Len(t, snap.Records, 2)
	assert.Equal(t, "New", snap.Records[0].Name)
	assert.Equal(t, "a", snap.SelectedID)
	assert.Equal(t, state.StatusReady, snap.Status)

	cached, ok := mem.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "x"}, ids(cached))
}

func TestRefresh_FailureFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	mem := seededCache(t, characters.Record{ID: "1", Name: "Goblin"})
	gw := &fakeGateway{listErr: &characters.NetworkError{Op: "list characters", Err: errors.New("dial tcp: refused")}}

	e := newEngine(t, gw, mem, Options{})
	snap := e.Refresh(ctx, "")

	assert.Equal(t, state.StatusOffline, snap.Status)
	assert.True(t, snap.IsOffline())
	assert.Equal(t, MsgOfflineCache, snap.LastError)
	assert.Equal(t, []string{"1"}, ids(snap.Records))
	assert.Equal(t, "1", snap.SelectedID)
}

func TestRefresh_FailureWithoutCache(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{listErr: &characters.HTTPError{Op: "list characters", Status: 500}}

	e := newEngine(t, gw, &cache.Memory{}, Options{})
	snap := e.Refresh(ctx, "")

	assert.Equal(t, state.StatusError, snap.Status)
	assert.Equal(t, MsgNoCache, snap.LastError)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.SelectedID)
}

func TestRefresh_FailureWithCorruptCacheUsesSamplePolicy(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory([]byte("{not json"))
	gw := &fakeGateway{listErr: errors.New("boom")}

	e := newEngine(t, gw, mem, Options{Fallback: CacheThenSample})
	snap := e.Refresh(ctx, "")

	assert.Equal(t, state.StatusOffline, snap.Status)
	assert.Equal(t, MsgOfflineSample, snap.LastError)
	assert.Equal(t, ids(SampleRecords()), ids(snap.Records))
	assert.Equal(t, SampleRecords()[0].ID, snap.SelectedID)

	cached, ok := mem.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, ids(SampleRecords()), ids(cached))
}

func TestRefresh_EmptyResultKeepsCache(t *testing.T) {
	ctx := context.Background()
	mem := seededCache(t, characters.Record{ID: "keep"})
	gw := &fakeGateway{records: []characters.Record{}}

	e := newEngine(t, gw, mem, Options{})
	snap := e.Refresh(ctx, "")

	assert.Equal(t, state.StatusReady, snap.Status)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.SelectedID)

	cached, ok := mem.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"keep"}, ids(cached))
}

func TestRefresh_ReconcilesSelection(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(state.Snapshot{
		Records:    []characters.Record{{ID: "gone"}},
		SelectedID: "gone",
	})
	gw := &fakeGateway{records: []characters.Record{{ID: "p"}, {ID: "q"}}}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})
	snap := e.Refresh(ctx, "")
	assert.Equal(t, "p", snap.SelectedID)

	require.True(t, e.Select("q"))
	snap = e.Refresh(ctx, "")
	assert.Equal(t, "q", snap.SelectedID)
}

func TestRefresh_PreferredSelection(t *testing.T) {
	gw := &fakeGateway{records: []characters.Record{{ID: "p"}, {ID: "q"}}}
	e := newEngine(t, gw, &cache.Memory{}, Options{PreferredID: "q"})

	snap := e.Initialize(context.Background())
	assert.Equal(t, "q", snap.SelectedID)
}

func TestRefresh_PassesSearchTerm(t *testing.T) {
	gw := &fakeGateway{records: []characters.Record{{ID: "a"}}}
	e := newEngine(t, gw, &cache.Memory{}, Options{})

	e.Refresh(context.Background(), "  drag ")
	assert.Equal(t, []string{"drag"}, gw.terms)
}

func TestRefresh_Idempotent(t *testing.T) {
	ctx := context.Background()
	mem := &cache.Memory{}
	gw := &fakeGateway{records: []characters.Record{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}}
	e := newEngine(t, gw, mem, Options{})

	for i := 0; i < 2; i++ {
		snap := e.Refresh(ctx, "")
		assert.Equal(t, []string{"a", "b"}, ids(snap.Records), "refresh %d", i+1)
		assert.Equal(t, "a", snap.SelectedID, "refresh %d", i+1)
		assert.Equal(t, state.StatusReady, snap.Status, "refresh %d", i+1)

		cached, ok := mem.Get(ctx)
		require.True(t, ok, "refresh %d", i+1)
		assert.Equal(t, []string{"a", "b"}, ids(cached), "refresh %d", i+1)
	}
}

func TestRefresh_FallbackLogsCacheAge(t *testing.T) {
	ctx := context.Background()
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Set(ctx, []characters.Record{{ID: "1", Name: "Goblin"}}))

	var logs bytes.Buffer
	e, err := New(Options{
		Gateway: &fakeGateway{listErr: errors.New("dial tcp: refused")},
		Cache:   db,
		Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)

	snap := e.Refresh(ctx, "")
	assert.Equal(t, MsgOfflineCache, snap.LastError)
	assert.Contains(t, logs.String(), "falling back to cached characters")
	assert.Contains(t, logs.String(), "cached_at=")
}

func TestSubmitEdit_RefetchUsesLastTerm(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{records: []characters.Record{{ID: "a", Name: "Alpha"}}}
	e := newEngine(t, gw, &cache.Memory{}, Options{})

	e.Refresh(ctx, " alp ")
	ok, err := e.SubmitEdit(ctx, "a", characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"alp", "alp"}, gw.terms)

	e.Refresh(ctx, "")
	_, err = e.SubmitEdit(ctx, "a", characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alp", "alp", "", ""}, gw.terms)
}

func TestRefresh_DiscardsStaleResult(t *testing.T) {
	ctx := context.Background()
	mem := &cache.Memory{}
	release := make(chan struct{})
	started := make(chan struct{})

	gw := &fakeGateway{records: []characters.Record{{ID: "old"}}}
	var once sync.Once
	gw.onList = func(string) {
		once.Do(func() {
			close(started)
			<-release
		})
	}

	e := newEngine(t, gw, mem, Options{})

	done := make(chan state.Snapshot, 1)
	go func() { done <- e.Refresh(ctx, "") }()
	<-started

	gw.mu.Lock()
	gw.records = []characters.Record{{ID: "new"}}
	gw.mu.Unlock()
	latest := e.Refresh(ctx, "")
	require.Equal(t, []string{"new"}, ids(latest.Records))

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale refresh did not return")
	}

	snap := e.Store().Snapshot()
	assert.Equal(t, []string{"new"}, ids(snap.Records))
	cached, ok := mem.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, ids(cached))
}

func TestSelect(t *testing.T) {
	store := state.NewStore(state.Snapshot{
		Records:    []characters.Record{{ID: "a"}, {ID: "b"}},
		SelectedID: "a",
		Message:    "saved",
		LastError:  "oops",
	})
	e := newEngine(t, &fakeGateway{}, &cache.Memory{}, Options{Store: store})

	assert.False(t, e.Select("zzz"))
	snap := store.Snapshot()
	assert.Equal(t, "a", snap.SelectedID)
	assert.Equal(t, "saved", snap.Message)

	assert.True(t, e.Select("b"))
	snap = store.Snapshot()
	assert.Equal(t, "b", snap.SelectedID)
	assert.Empty(t, snap.Message)
	assert.Empty(t, snap.LastError)
}

func TestSetOnline(t *testing.T) {
	store := state.NewStore(state.Snapshot{Status: state.StatusReady, Records: []characters.Record{{ID: "a"}}})
	e := newEngine(t, &fakeGateway{}, &cache.Memory{}, Options{Store: store})

	e.SetOnline(false)
	snap := store.Snapshot()
	assert.True(t, snap.Disconnected)
	assert.True(t, snap.IsOffline())
	assert.Equal(t, []string{"a"}, ids(snap.Records))

	e.SetOnline(true)
	assert.False(t, store.Snapshot().Disconnected)
}

func selectedStore(records ...characters.Record) *state.Store {
	return state.NewStore(state.Snapshot{
		Status:     state.StatusReady,
		Records:    records,
		SelectedID: records[0].ID,
	})
}

func TestSubmitEdit_Success(t *testing.T) {
	ctx := context.Background()
	store := selectedStore(characters.Record{ID: "a", Name: "Old", Description: "d", Image: "http://x/old.jpg"})
	gw := &fakeGateway{records: []characters.Record{{ID: "a", Name: "N", Description: "D", Image: "http://x/y.jpg"}}}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})
	ok, err := e.SubmitEdit(ctx, "a", characters.Fields{Name: " N ", Description: "D", Image: "http://x/y.jpg"})
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, gw.updates, 1)
	assert.Equal(t, "a", gw.updates[0].id)
	assert.Equal(t, characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"}, gw.updates[0].fields)

	snap := store.Snapshot()
	assert.Equal(t, MsgSaved, snap.Message)
	assert.False(t, snap.Saving)
	assert.Equal(t, "N", snap.Records[0].Name)
	assert.False(t, e.saving.Load())
}

func TestSubmitEdit_ValidationError(t *testing.T) {
	store := selectedStore(characters.Record{ID: "a"})
	gw := &fakeGateway{}
	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})

	ok, err := e.SubmitEdit(context.Background(), "a", characters.Fields{Name: "N", Description: "  ", Image: ""})
	assert.False(t, ok)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"description", "image"}, vErr.Missing)
	assert.Empty(t, gw.updates)
	assert.Equal(t, MsgValidation, store.Snapshot().LastError)
}

func TestSubmitEdit_NoSelection(t *testing.T) {
	gw := &fakeGateway{}
	e := newEngine(t, gw, &cache.Memory{}, Options{})

	ok, err := e.SubmitEdit(context.Background(), "a", characters.Fields{Name: "N", Description: "D", Image: "I"})
	assert.False(t, ok)
	var nsErr *NoSelectionError
	require.ErrorAs(t, err, &nsErr)
	assert.Empty(t, gw.updates)
	assert.Equal(t, MsgNoSelection, e.Store().Snapshot().LastError)
}

func TestSubmitEdit_SelectionMovedSinceFormLoaded(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(state.Snapshot{
		Status:     state.StatusReady,
		Records:    []characters.Record{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}},
		SelectedID: "a",
	})
	gw := &fakeGateway{records: []characters.Record{{ID: "b", Name: "Beta"}}}
	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})

	// The form is filled from a; a refresh then drops a and selects b.
	snap := e.Refresh(ctx, "")
	require.Equal(t, "b", snap.SelectedID)

	ok, err := e.SubmitEdit(ctx, "a", characters.Fields{Name: "Alpha", Description: "D", Image: "http://x/a.jpg"})
	assert.False(t, ok)
	var staleErr *StaleSelectionError
	require.ErrorAs(t, err, &staleErr)
	assert.Equal(t, "a", staleErr.FormID)
	assert.Equal(t, "b", staleErr.SelectedID)
	assert.Empty(t, gw.updates, "no record may be patched")
	assert.Equal(t, MsgStaleEdit, store.Snapshot().LastError)
	assert.False(t, store.Snapshot().Saving)
}

func TestSubmitEdit_RemoteRejected(t *testing.T) {
	ctx := context.Background()
	store := selectedStore(characters.Record{ID: "a", Name: "Old"})
	gw := &fakeGateway{
		records:   []characters.Record{{ID: "a", Name: "Old"}},
		updateErr: &characters.HTTPError{Op: "update character", Status: 405, Body: "Method Not Allowed"},
	}
	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})

	ok, err := e.SubmitEdit(ctx, "a", characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"})
	assert.False(t, ok)
	var rErr *RemoteUpdateError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, 405, rErr.Status)
	assert.Equal(t, "Method Not Allowed", rErr.Body)

	snap := store.Snapshot()
	assert.Equal(t, MsgSaveFailed, snap.LastError)
	assert.Equal(t, "Old", snap.Records[0].Name)
	assert.False(t, snap.Saving)
	assert.Empty(t, gw.terms, "failed edit must not refetch")
}

func TestSubmitEdit_UploadsUntrustedImage(t *testing.T) {
	ctx := context.Background()
	store := selectedStore(characters.Record{ID: "a"})
	gw := &fakeGateway{records: []characters.Record{{ID: "a"}}}
	up := &fakeUploader{enabled: true, url: "https://res.cloudinary.com/demo/image/upload/v1/x.jpg"}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store, Uploader: up})
	ok, err := e.SubmitEdit(ctx, "a", characters.Fields{Name: "N", Description: "D", Image: "https://imgur.com/x.jpg"})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"https://imgur.com/x.jpg"}, up.calls)
	require.Len(t, gw.updates, 1)
	assert.Equal(t, up.url, gw.updates[0].fields.Image)
}

func TestSubmitEdit_TrustedImageSkipsUpload(t *testing.T) {
	store := selectedStore(characters.Record{ID: "a"})
	gw := &fakeGateway{records: []characters.Record{{ID: "a"}}}
	up := &fakeUploader{enabled: true, url: "unused"}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store, Uploader: up})
	trusted := "https://res.cloudinary.com/demo/image/upload/a.jpg"
	_, err := e.SubmitEdit(context.Background(), "a", characters.Fields{Name: "N", Description: "D", Image: trusted})
	require.NoError(t, err)

	assert.Empty(t, up.calls)
	assert.Equal(t, trusted, gw.updates[0].fields.Image)
}

func TestSubmitEdit_UploadFailure(t *testing.T) {
	store := selectedStore(characters.Record{ID: "a"})
	gw := &fakeGateway{}
	up := &fakeUploader{enabled: true, err: errors.New("upload returned status 400")}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store, Uploader: up})
	ok, err := e.SubmitEdit(context.Background(), "a", characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"})
	assert.False(t, ok)
	var iErr *ImagePrepError
	require.ErrorAs(t, err, &iErr)
	assert.Empty(t, gw.updates)
	assert.Equal(t, MsgSaveFailed, store.Snapshot().LastError)
}

func TestSubmitEdit_ConcurrentCallIgnored(t *testing.T) {
	ctx := context.Background()
	store := selectedStore(characters.Record{ID: "a"})
	release := make(chan struct{})
	entered := make(chan struct{})
	gw := &fakeGateway{records: []characters.Record{{ID: "a"}}}
	gw.onUpdate = func() {
		close(entered)
		<-release
	}

	e := newEngine(t, gw, &cache.Memory{}, Options{Store: store})
	fields := characters.Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"}

	done := make(chan error, 1)
	go func() {
		_, err := e.SubmitEdit(ctx, "a", fields)
		done <- err
	}()
	<-entered

	assert.True(t, e.saving.Load())
	assert.True(t, store.Snapshot().Saving)
	ok, err := e.SubmitEdit(ctx, "a", fields)
	assert.False(t, ok)
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Len(t, gw.updates, 1)
}

func ids(records []characters.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
