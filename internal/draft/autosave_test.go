package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/homestead/internal/debounce"
	"github.com/debemdeboas/homestead/internal/kv"
)

// newTestAutosaver uses a delay long enough that only explicit flushes write.
func newTestAutosaver(t *testing.T, store kv.Store) *Autosaver {
	t.Helper()
	a := NewAutosaver(NewStore(store, DefaultForms()), debounce.New(time.Hour))
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAutosaver_QueueCoalesces(t *testing.T) {
	mem := kv.NewMemoryStore(0)
	a := newTestAutosaver(t, mem)
	ctx := context.Background()

	for _, title := range []string{"S", "Su", "Sun", "Sunny"} {
		if err := a.Queue(testUser, FormQuick, Snapshot{FormData: map[string]any{"title": title}}); err != nil {
			t.Fatalf("Queue() error = %v", err)
		}
	}

	if _, err := mem.Get(ctx, Key(FormQuick, testUser)); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("draft written before the quiet period: %v", err)
	}
	if !a.Pending(testUser, FormQuick) {
		t.Fatal("Pending() = false after Queue")
	}

	flushed, err := a.Flush(testUser, FormQuick)
	if err != nil || !flushed {
		t.Fatalf("Flush() = %v, %v", flushed, err)
	}

	d, err := a.Store().Load(ctx, testUser, FormQuick)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.FormData["title"] != "Sunny" {
		t.Errorf("title = %v, want the last queued value", d.FormData["title"])
	}

	if flushed, _ := a.Flush(testUser, FormQuick); flushed {
		t.Error("second Flush() ran a save")
	}
}

func TestAutosaver_SaveNowCancelsPending(t *testing.T) {
	mem := kv.NewMemoryStore(0)
	a := newTestAutosaver(t, mem)
	ctx := context.Background()

	a.Queue(testUser, FormFull, Snapshot{FormData: map[string]any{"title": "queued"}})
	if _, err := a.SaveNow(ctx, testUser, FormFull, Snapshot{FormData: map[string]any{"title": "now"}}); err != nil {
		t.Fatalf("SaveNow() error = %v", err)
	}
	if a.Pending(testUser, FormFull) {
		t.Error("pending save survived SaveNow")
	}

	d, _ := a.Store().Load(ctx, testUser, FormFull)
	if d == nil || d.FormData["title"] != "now" {
		t.Errorf("draft = %+v, want title now", d)
	}
}

func TestAutosaver_Discard(t *testing.T) {
	mem := kv.NewMemoryStore(0)
	a := newTestAutosaver(t, mem)
	ctx := context.Background()

	a.SaveNow(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "saved"}})
	a.Queue(testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "queued"}})

	if err := a.Discard(ctx, testUser, FormQuick); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if a.Pending(testUser, FormQuick) {
		t.Error("pending save survived Discard")
	}
	if _, err := a.Store().LoadAny(ctx, testUser, FormQuick); !errors.Is(err, ErrNoDraft) {
		t.Errorf("LoadAny() error = %v, want ErrNoDraft", err)
	}
}

func TestAutosaver_LastErrorOnQuota(t *testing.T) {
	mem := kv.NewMemoryStore(32)
	a := newTestAutosaver(t, mem)

	big := Snapshot{FormData: map[string]any{"title": "a title that will not fit in thirty-two bytes"}}
	a.Queue(testUser, FormQuick, big)

	flushed, err := a.Flush(testUser, FormQuick)
	if !flushed {
		t.Fatal("Flush() found nothing pending")
	}
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("Flush() error = %v, want ErrQuotaExceeded", err)
	}
	if !errors.Is(a.LastError(testUser, FormQuick), kv.ErrQuotaExceeded) {
		t.Errorf("LastError() = %v", a.LastError(testUser, FormQuick))
	}

	// A later successful write clears the error.
	mem2 := kv.NewMemoryStore(0)
	a2 := newTestAutosaver(t, mem2)
	a2.record(Key(FormQuick, testUser), kv.ErrQuotaExceeded)
	if _, err := a2.SaveNow(context.Background(), testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "ok"}}); err != nil {
		t.Fatalf("SaveNow() error = %v", err)
	}
	if err := a2.LastError(testUser, FormQuick); err != nil {
		t.Errorf("LastError() = %v after success", err)
	}
}

func TestAutosaver_CloseWritesPending(t *testing.T) {
	mem := kv.NewMemoryStore(0)
	a := NewAutosaver(NewStore(mem, DefaultForms()), debounce.New(time.Hour))

	a.Queue("alice", FormQuick, Snapshot{FormData: map[string]any{"title": "a"}})
	a.Queue("bob", FormFull, Snapshot{FormData: map[string]any{"title": "b"}})

	if n := a.Close(); n != 2 {
		t.Errorf("Close() = %d, want 2", n)
	}
	for _, k := range []string{Key(FormQuick, "alice"), Key(FormFull, "bob")} {
		if _, err := mem.Get(context.Background(), k); err != nil {
			t.Errorf("%s not written on Close: %v", k, err)
		}
	}

	// After Close, Queue writes through.
	if err := a.Queue("carol", FormQuick, Snapshot{FormData: map[string]any{"title": "c"}}); err != nil {
		t.Fatalf("Queue() after Close error = %v", err)
	}
	if _, err := mem.Get(context.Background(), Key(FormQuick, "carol")); err != nil {
		t.Errorf("Queue() after Close did not write: %v", err)
	}
}

func TestAutosaver_RealDelay(t *testing.T) {
	mem := kv.NewMemoryStore(0)
	a := NewAutosaver(NewStore(mem, DefaultForms()), debounce.New(10*time.Millisecond))
	defer a.Close()

	a.Queue(testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "later"}})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := mem.Get(context.Background(), Key(FormQuick, testUser)); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("debounced save never ran")
}

// blockingStore holds the first Set until release is closed.
type blockingStore struct {
	kv.Store

	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		Store:   kv.NewMemoryStore(0),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *blockingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.started)
		<-s.release
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func TestAutosaver_SlowAutosaveDoesNotOverwriteNewerWrite(t *testing.T) {
	ctx := context.Background()
	title := func(t *testing.T, a *Autosaver) any {
		t.Helper()
		d, err := a.Store().LoadAny(ctx, testUser, FormQuick)
		if err != nil {
			t.Fatalf("LoadAny() error = %v", err)
		}
		return d.FormData["title"]
	}

	tests := []struct {
		name  string
		after func(t *testing.T, a *Autosaver) error
		check func(t *testing.T, a *Autosaver)
	}{
		{
			name: "save now",
			after: func(t *testing.T, a *Autosaver) error {
				_, err := a.SaveNow(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "new"}})
				return err
			},
			check: func(t *testing.T, a *Autosaver) {
				if got := title(t, a); got != "new" {
					t.Errorf("title = %v, want new", got)
				}
			},
		},
		{
			name: "discard",
			after: func(t *testing.T, a *Autosaver) error {
				return a.Discard(ctx, testUser, FormQuick)
			},
			check: func(t *testing.T, a *Autosaver) {
				_, err := a.Store().LoadAny(ctx, testUser, FormQuick)
				if !errors.Is(err, ErrNoDraft) {
					t.Errorf("LoadAny() error = %v, want ErrNoDraft", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newBlockingStore()
			a := NewAutosaver(NewStore(store, DefaultForms()), debounce.New(time.Millisecond))
			defer a.Close()

			if err := a.Queue(testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "old"}}); err != nil {
				t.Fatalf("Queue() error = %v", err)
			}
			select {
			case <-store.started:
			case <-time.After(2 * time.Second):
				t.Fatal("debounced save never started")
			}

			done := make(chan error, 1)
			go func() { done <- tt.after(t, a) }()

			// Let the newer write queue up behind the running autosave.
			time.Sleep(20 * time.Millisecond)
			close(store.release)

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("newer write error = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("newer write never finished")
			}
			tt.check(t, a)
		})
	}
}

func TestAutosaver_CloseWaitsForRunningSave(t *testing.T) {
	store := newBlockingStore()
	a := NewAutosaver(NewStore(store, DefaultForms()), debounce.New(time.Millisecond))

	a.Queue(testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "slow"}})
	<-store.started

	closed := make(chan struct{})
	go func() {
		a.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close() returned while a save was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(store.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() never returned")
	}
	if _, err := store.Get(context.Background(), Key(FormQuick, testUser)); err != nil {
		t.Errorf("save lost on Close: %v", err)
	}
}
