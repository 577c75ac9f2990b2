package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/debemdeboas/homestead/internal/kv"
	"github.com/debemdeboas/homestead/internal/model"
)

// Store saves, restores and clears drafts on top of a key-value store.
type Store struct {
	kv    kv.Store
	forms Forms

	now func() time.Time
}

func NewStore(store kv.Store, forms Forms) *Store {
	return &Store{
		kv:    store,
		forms: forms,
		now:   time.Now,
	}
}

func (s *Store) Forms() Forms {
	return s.forms
}

// Save overwrites the owner's draft with snap and a fresh timestamp. Storage failures,
// including kv.ErrQuotaExceeded, are returned to the caller.
func (s *Store) Save(ctx context.Context, owner model.UserID, formType FormType, snap Snapshot) (*Draft, error) {
	form, err := s.forms.Lookup(string(formType))
	if err != nil {
		return nil, err
	}

	step := snap.CurrentStep
	if !form.Flow.Has(step) {
		step = form.Flow.First().ID
	}

	now := s.now()
	rec := record{
		FormData:    snap.FormData,
		Features:    snap.Features,
		CurrentStep: step,
		Timestamp:   now.UnixMilli(),
	}
	if rec.FormData == nil {
		rec.FormData = map[string]any{}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("error encoding draft: %w", err)
	}

	key := Key(form.Type, owner)
	if err := s.kv.Set(ctx, key, data, form.Retention); err != nil {
		return nil, fmt.Errorf("error saving draft %s: %w", key, err)
	}

	draftLogger.Debug().Str("key", key).Str("step", step).Int("bytes", len(data)).Msg("Draft saved")

	return &Draft{
		Owner:       owner,
		Form:        form.Type,
		FormData:    rec.FormData,
		Features:    rec.Features,
		CurrentStep: step,
		SavedAt:     time.UnixMilli(rec.Timestamp),
	}, nil
}

// Load restores the owner's draft. It returns ErrNoDraft when the draft is missing,
// unparsable or expired (the last two are deleted), or when its anchor field is empty.
func (s *Store) Load(ctx context.Context, owner model.UserID, formType FormType) (*Draft, error) {
	return s.load(ctx, owner, formType, true)
}

// LoadAny is Load without the anchor check, for callers that act on partially filled forms.
func (s *Store) LoadAny(ctx context.Context, owner model.UserID, formType FormType) (*Draft, error) {
	return s.load(ctx, owner, formType, false)
}

func (s *Store) load(ctx context.Context, owner model.UserID, formType FormType, requireAnchor bool) (*Draft, error) {
	form, err := s.forms.Lookup(string(formType))
	if err != nil {
		return nil, err
	}

	key := Key(form.Type, owner)
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("error reading draft %s: %w", key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Timestamp <= 0 {
		draftLogger.Warn().Err(err).Str("key", key).Msg("Discarding unreadable draft")
		s.discard(ctx, key)
		return nil, ErrNoDraft
	}

	savedAt := time.UnixMilli(rec.Timestamp)
	if s.now().Sub(savedAt) > form.Retention {
		draftLogger.Info().Str("key", key).Time("saved_at", savedAt).Msg("Discarding expired draft")
		s.discard(ctx, key)
		return nil, ErrNoDraft
	}

	if requireAnchor && !filled(rec.FormData[form.Anchor]) {
		draftLogger.Debug().Str("key", key).Str("anchor", form.Anchor).Msg("Draft has no anchor, not restoring")
		return nil, ErrNoDraft
	}

	step := rec.CurrentStep
	if step == "" {
		step = rec.CurrentTab
	}
	if !form.Flow.Has(step) {
		step = form.Flow.First().ID
	}

	if rec.FormData == nil {
		rec.FormData = map[string]any{}
	}

	return &Draft{
		Owner:       owner,
		Form:        form.Type,
		FormData:    rec.FormData,
		Features:    rec.Features,
		CurrentStep: step,
		SavedAt:     savedAt,
	}, nil
}

// Clear deletes the owner's draft unconditionally.
func (s *Store) Clear(ctx context.Context, owner model.UserID, formType FormType) error {
	form, err := s.forms.Lookup(string(formType))
	if err != nil {
		return err
	}

	key := Key(form.Type, owner)
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("error clearing draft %s: %w", key, err)
	}
	draftLogger.Debug().Str("key", key).Msg("Draft cleared")
	return nil
}

func (s *Store) discard(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		draftLogger.Error().Err(err).Str("key", key).Msg("Failed to delete stale draft")
	}
}

func filled(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}
