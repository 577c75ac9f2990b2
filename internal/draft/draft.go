// Package draft keeps in-progress listing forms out of the primary datastore.
//
// One draft exists per (owner, form type) under the key "{formType}_draft_{userId}". A draft
// older than its form's retention window is treated as absent and deleted when read, and a
// draft whose anchor field (the title) was never filled is not worth restoring.
package draft

import (
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/wizard"
	"github.com/rs/zerolog"
)

var (
	ErrNoDraft     = errors.New("no draft")
	ErrUnknownForm = errors.New("unknown form type")
)

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

type FormType string

const (
	FormQuick FormType = "quick"
	FormFull  FormType = "full"
)

const (
	DefaultQuickRetention = 24 * time.Hour
	DefaultFullRetention  = 7 * 24 * time.Hour

	anchorField = "title"
)

// Form describes how drafts of one form type are kept and navigated.
type Form struct {
	Type      FormType
	Retention time.Duration
	Anchor    string
	Flow      *wizard.Flow
}

// Forms is the set of known form types.
type Forms map[FormType]Form

func NewForms(quickRetention, fullRetention time.Duration) Forms {
	return Forms{
		FormQuick: {Type: FormQuick, Retention: quickRetention, Anchor: anchorField, Flow: wizard.QuickFlow()},
		FormFull:  {Type: FormFull, Retention: fullRetention, Anchor: anchorField, Flow: wizard.FullFlow()},
	}
}

func DefaultForms() Forms {
	return NewForms(DefaultQuickRetention, DefaultFullRetention)
}

func (f Forms) Lookup(name string) (Form, error) {
	form, ok := f[FormType(name)]
	if !ok {
		return Form{}, fmt.Errorf("%w: %q", ErrUnknownForm, name)
	}
	return form, nil
}

// Key is the storage key of the draft for owner and form.
func Key(form FormType, owner model.UserID) string {
	return string(form) + "_draft_" + string(owner)
}

// Snapshot is the form state a caller wants saved.
type Snapshot struct {
	FormData    map[string]any `json:"formData"`
	Features    []string       `json:"features,omitempty"`
	CurrentStep string         `json:"currentStep,omitempty"`
}

type Draft struct {
	Owner       model.UserID
	Form        FormType
	FormData    map[string]any
	Features    []string
	CurrentStep string
	SavedAt     time.Time
}

// Snapshot returns the saveable part of the draft.
func (d *Draft) Snapshot() Snapshot {
	return Snapshot{FormData: d.FormData, Features: d.Features, CurrentStep: d.CurrentStep}
}

// Payload merges features into the form data the way the step predicates expect it.
func (d *Draft) Payload() wizard.Payload {
	p := make(wizard.Payload, len(d.FormData)+1)
	for k, v := range d.FormData {
		p[k] = v
	}
	if _, ok := p["features"]; !ok && len(d.Features) > 0 {
		p["features"] = d.Features
	}
	return p
}

// record is the stored JSON shape. currentTab is read as an alias of currentStep.
type record struct {
	FormData    map[string]any `json:"formData"`
	Features    []string       `json:"features,omitempty"`
	CurrentStep string         `json:"currentStep,omitempty"`
	CurrentTab  string         `json:"currentTab,omitempty"`
	Timestamp   int64          `json:"timestamp"`
}
