package draft

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/homestead/internal/cache"
	"github.com/debemdeboas/homestead/internal/debounce"
	"github.com/debemdeboas/homestead/internal/model"
)

const autosaveTimeout = 5 * time.Second

// Autosaver coalesces bursts of draft changes into one write per (owner, form) after a quiet period.
type Autosaver struct {
	store     *Store
	debouncer *debounce.Debouncer

	lastErr *cache.Cache[string, error]

	statesMu sync.Mutex
	states   map[string]*writeState
}

// writeState orders writes for one draft key. A write holding an older ticket than the last
// applied one is skipped, so a slow debounced save never overwrites a newer SaveNow or Discard.
type writeState struct {
	mu      sync.Mutex
	issued  uint64
	written uint64
}

func NewAutosaver(store *Store, debouncer *debounce.Debouncer) *Autosaver {
	return &Autosaver{
		store:     store,
		debouncer: debouncer,
		lastErr:   cache.NewCache[string, error](),
		states:    make(map[string]*writeState),
	}
}

func (a *Autosaver) Store() *Store {
	return a.store
}

func (a *Autosaver) Delay() time.Duration {
	return a.debouncer.Delay()
}

// Queue replaces any pending save for the owner's draft with snap and restarts the delay.
func (a *Autosaver) Queue(owner model.UserID, formType FormType, snap Snapshot) error {
	form, err := a.store.forms.Lookup(string(formType))
	if err != nil {
		return err
	}

	key := Key(form.Type, owner)
	st, seq := a.ticket(key)
	write := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
		defer cancel()
		applied, err := a.ordered(st, seq, func() error {
			return a.save(ctx, owner, form.Type, snap)
		})
		if applied {
			a.record(key, err)
		}
		return err
	}
	if !a.debouncer.Schedule(key, func() { _ = write() }) {
		// Shutting down: write through instead of dropping the change.
		return write()
	}
	return nil
}

// SaveNow drops any pending save and writes snap immediately.
func (a *Autosaver) SaveNow(ctx context.Context, owner model.UserID, formType FormType, snap Snapshot) (*Draft, error) {
	form, err := a.store.forms.Lookup(string(formType))
	if err != nil {
		return nil, err
	}

	key := Key(form.Type, owner)
	a.debouncer.Cancel(key)
	st, seq := a.ticket(key)

	var d *Draft
	applied, err := a.ordered(st, seq, func() error {
		var err error
		d, err = a.store.Save(ctx, owner, form.Type, snap)
		return err
	})
	if !applied {
		// A later write already landed.
		return a.store.LoadAny(ctx, owner, form.Type)
	}
	a.record(key, err)
	return d, err
}

// Flush runs the pending save for the owner's draft, if any, and returns its error.
func (a *Autosaver) Flush(owner model.UserID, formType FormType) (bool, error) {
	form, err := a.store.forms.Lookup(string(formType))
	if err != nil {
		return false, err
	}

	key := Key(form.Type, owner)
	if !a.debouncer.Flush(key) {
		return false, nil
	}
	return true, a.LastError(owner, form.Type)
}

// Discard cancels any pending save and clears the stored draft.
func (a *Autosaver) Discard(ctx context.Context, owner model.UserID, formType FormType) error {
	form, err := a.store.forms.Lookup(string(formType))
	if err != nil {
		return err
	}

	key := Key(form.Type, owner)
	a.debouncer.Cancel(key)
	st, seq := a.ticket(key)
	_, err = a.ordered(st, seq, func() error {
		return a.store.Clear(ctx, owner, form.Type)
	})
	a.lastErr.Delete(key)
	return err
}

func (a *Autosaver) Pending(owner model.UserID, formType FormType) bool {
	return a.debouncer.Pending(Key(formType, owner))
}

// LastError is the result of the most recent write for the owner's draft.
func (a *Autosaver) LastError(owner model.UserID, formType FormType) error {
	err, _ := a.lastErr.Get(Key(formType, owner))
	return err
}

// Close writes every pending save, waits for saves already running and refuses to schedule new ones.
func (a *Autosaver) Close() int {
	n := a.debouncer.Stop()
	if n > 0 {
		draftLogger.Info().Int("count", n).Msg("Flushed pending drafts")
	}
	return n
}

func (a *Autosaver) save(ctx context.Context, owner model.UserID, formType FormType, snap Snapshot) error {
	_, err := a.store.Save(ctx, owner, formType, snap)
	if err != nil {
		draftLogger.Error().Err(err).Str("user_id", string(owner)).Str("form", string(formType)).Msg("Autosave failed")
	}
	return err
}

// ticket reserves the next write slot for key.
func (a *Autosaver) ticket(key string) (*writeState, uint64) {
	a.statesMu.Lock()
	defer a.statesMu.Unlock()

	st, ok := a.states[key]
	if !ok {
		st = &writeState{}
		a.states[key] = st
	}
	st.issued++
	return st, st.issued
}

// ordered runs fn unless a write with a newer ticket has already been applied.
func (a *Autosaver) ordered(st *writeState, seq uint64, fn func() error) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if seq < st.written {
		return false, nil
	}
	err := fn()
	if err == nil {
		st.written = seq
	}
	return true, err
}

func (a *Autosaver) record(key string, err error) {
	if err != nil {
		a.lastErr.Set(key, err)
		return
	}
	a.lastErr.Delete(key)
}
