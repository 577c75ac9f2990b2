package draft

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/debemdeboas/homestead/internal/kv"
	"github.com/debemdeboas/homestead/internal/model"
)

const testUser model.UserID = "user_42"

func newTestStore(t *testing.T) (*Store, *kv.MemoryStore, *time.Time) {
	t.Helper()
	mem := kv.NewMemoryStore(0)
	s := NewStore(mem, DefaultForms())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, mem, &now
}

func TestKey(t *testing.T) {
	if got := Key(FormQuick, "abc"); got != "quick_draft_abc" {
		t.Errorf("Key() = %q, want quick_draft_abc", got)
	}
	if got := Key(FormFull, "abc"); got != "full_draft_abc" {
		t.Errorf("Key() = %q, want full_draft_abc", got)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, _, now := newTestStore(t)
	ctx := context.Background()

	snap := Snapshot{
		FormData:    map[string]any{"title": "Sunny loft", "price": 250000.0},
		Features:    []string{"balcony", "parking"},
		CurrentStep: "location",
	}
	if _, err := s.Save(ctx, testUser, FormFull, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	d, err := s.Load(ctx, testUser, FormFull)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.FormData["title"] != "Sunny loft" || d.FormData["price"] != 250000.0 {
		t.Errorf("FormData = %v", d.FormData)
	}
	if len(d.Features) != 2 || d.Features[1] != "parking" {
		t.Errorf("Features = %v", d.Features)
	}
	if d.CurrentStep != "location" {
		t.Errorf("CurrentStep = %q, want location", d.CurrentStep)
	}
	if !d.SavedAt.Equal(*now) {
		t.Errorf("SavedAt = %v, want %v", d.SavedAt, *now)
	}
}

func TestStore_RecordFormat(t *testing.T) {
	s, mem, now := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "x"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := mem.Get(ctx, "quick_draft_user_42")
	if err != nil {
		t.Fatalf("raw Get() error = %v", err)
	}

	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if rec["timestamp"] != float64(now.UnixMilli()) {
		t.Errorf("timestamp = %v, want %d", rec["timestamp"], now.UnixMilli())
	}
	if rec["currentStep"] != "basic" {
		t.Errorf("currentStep = %v, want basic (unset step defaults to first)", rec["currentStep"])
	}
	if _, ok := rec["formData"].(map[string]any); !ok {
		t.Errorf("formData missing: %v", rec)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	s, _, now := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "first"}})
	*now = now.Add(time.Minute)
	s.Save(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "second"}})

	d, err := s.Load(ctx, testUser, FormQuick)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.FormData["title"] != "second" {
		t.Errorf("title = %v, want second", d.FormData["title"])
	}
	if !d.SavedAt.Equal(*now) {
		t.Errorf("SavedAt = %v, want %v", d.SavedAt, *now)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s, _, _ := newTestStore(t)
	if _, err := s.Load(context.Background(), testUser, FormFull); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Load() error = %v, want ErrNoDraft", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		form    FormType
		age     time.Duration
		wantHit bool
	}{
		{"quick fresh", FormQuick, 23 * time.Hour, true},
		{"quick at limit", FormQuick, 24 * time.Hour, true},
		{"quick expired", FormQuick, 25 * time.Hour, false},
		{"full after two days", FormFull, 48 * time.Hour, true},
		{"full six days", FormFull, 6 * 24 * time.Hour, true},
		{"full expired", FormFull, 8 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem, now := newTestStore(t)
			ctx := context.Background()

			if _, err := s.Save(ctx, testUser, tt.form, Snapshot{FormData: map[string]any{"title": "Villa"}}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			*now = now.Add(tt.age)

			_, err := s.Load(ctx, testUser, tt.form)
			if tt.wantHit {
				if err != nil {
					t.Fatalf("Load() error = %v, want draft", err)
				}
				return
			}

			if !errors.Is(err, ErrNoDraft) {
				t.Fatalf("Load() error = %v, want ErrNoDraft", err)
			}
			if _, err := mem.Get(ctx, Key(tt.form, testUser)); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("expired draft still stored: %v", err)
			}
		})
	}
}

func TestStore_UnparsableIsDeleted(t *testing.T) {
	s, mem, _ := newTestStore(t)
	ctx := context.Background()
	key := Key(FormFull, testUser)

	for _, raw := range []string{"{not json", `{"formData":{"title":"x"}}`} {
		mem.Set(ctx, key, []byte(raw), 0)

		if _, err := s.Load(ctx, testUser, FormFull); !errors.Is(err, ErrNoDraft) {
			t.Errorf("Load(%q) error = %v, want ErrNoDraft", raw, err)
		}
		if _, err := mem.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("unparsable draft %q was not deleted", raw)
		}
	}
}

func TestStore_AnchorRequired(t *testing.T) {
	s, mem, _ := newTestStore(t)
	ctx := context.Background()

	for _, title := range []any{nil, "", "   "} {
		data := map[string]any{"propertyType": "house"}
		if title != nil {
			data["title"] = title
		}
		if _, err := s.Save(ctx, testUser, FormQuick, Snapshot{FormData: data}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if _, err := s.Load(ctx, testUser, FormQuick); !errors.Is(err, ErrNoDraft) {
			t.Errorf("Load() with title %q error = %v, want ErrNoDraft", title, err)
		}

		// Anchor-less drafts are not restored but stay stored.
		if _, err := mem.Get(ctx, Key(FormQuick, testUser)); err != nil {
			t.Errorf("anchor-less draft was deleted: %v", err)
		}

		d, err := s.LoadAny(ctx, testUser, FormQuick)
		if err != nil {
			t.Fatalf("LoadAny() error = %v", err)
		}
		if d.FormData["propertyType"] != "house" {
			t.Errorf("LoadAny() FormData = %v", d.FormData)
		}
	}
}

func TestStore_CurrentTabAlias(t *testing.T) {
	s, mem, now := newTestStore(t)
	ctx := context.Background()

	raw := `{"formData":{"title":"Old"},"currentTab":"details","timestamp":` +
		jsonInt(now.Add(-time.Hour).UnixMilli()) + `}`
	mem.Set(ctx, Key(FormFull, testUser), []byte(raw), 0)

	d, err := s.Load(ctx, testUser, FormFull)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.CurrentStep != "details" {
		t.Errorf("CurrentStep = %q, want details", d.CurrentStep)
	}
}

func TestStore_UnknownStepFallsBackToFirst(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	// details is not a step of the quick form.
	d, err := s.Save(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "x"}, CurrentStep: "details"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if d.CurrentStep != "basic" {
		t.Errorf("CurrentStep = %q, want basic", d.CurrentStep)
	}
}

func TestStore_Clear(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, testUser, FormQuick, Snapshot{FormData: map[string]any{"title": "x"}})
	s.Save(ctx, testUser, FormFull, Snapshot{FormData: map[string]any{"title": "y"}})

	if err := s.Clear(ctx, testUser, FormQuick); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := s.Load(ctx, testUser, FormQuick); !errors.Is(err, ErrNoDraft) {
		t.Errorf("quick draft survived Clear: %v", err)
	}
	if _, err := s.Load(ctx, testUser, FormFull); err != nil {
		t.Errorf("full draft affected by clearing quick: %v", err)
	}

	// Clearing again is not an error.
	if err := s.Clear(ctx, testUser, FormQuick); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestStore_OwnersAreIsolated(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, "alice", FormFull, Snapshot{FormData: map[string]any{"title": "Alice's"}})

	if _, err := s.Load(ctx, "bob", FormFull); !errors.Is(err, ErrNoDraft) {
		t.Errorf("bob sees alice's draft: %v", err)
	}
}

func TestStore_QuotaSurfaced(t *testing.T) {
	mem := kv.NewMemoryStore(64)
	s := NewStore(mem, DefaultForms())

	big := map[string]any{"title": "x", "description": string(make([]byte, 256))}
	_, err := s.Save(context.Background(), testUser, FormFull, Snapshot{FormData: big})
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("Save() error = %v, want ErrQuotaExceeded", err)
	}
}

func TestStore_UnknownForm(t *testing.T) {
	s, _, _ := newTestStore(t)
	if _, err := s.Save(context.Background(), testUser, "wizard", Snapshot{}); !errors.Is(err, ErrUnknownForm) {
		t.Errorf("Save() error = %v, want ErrUnknownForm", err)
	}
	if _, err := s.Load(context.Background(), testUser, "wizard"); !errors.Is(err, ErrUnknownForm) {
		t.Errorf("Load() error = %v, want ErrUnknownForm", err)
	}
}

func TestDraft_Payload(t *testing.T) {
	d := &Draft{FormData: map[string]any{"title": "x"}, Features: []string{"pool"}}
	p := d.Payload()
	if p["title"] != "x" {
		t.Errorf("title = %v", p["title"])
	}
	if f, ok := p["features"].([]string); !ok || f[0] != "pool" {
		t.Errorf("features = %v", p["features"])
	}
	if _, ok := d.FormData["features"]; ok {
		t.Error("Payload() mutated FormData")
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
