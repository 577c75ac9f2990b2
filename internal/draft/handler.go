package draft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/debemdeboas/homestead/internal/auth"
	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/kv"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/routes"
	"github.com/debemdeboas/homestead/internal/wizard"
)

const maxDraftBody = 1 << 20

type Handler struct {
	autosaver *Autosaver
	users     auth.UserEnforcer
}

func NewHandler(autosaver *Autosaver, users auth.UserEnforcer) *Handler {
	return &Handler{
		autosaver: autosaver,
		users:     users,
	}
}

// Register mounts the draft routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routes.APIDraft, h.ServeDraft)
	mux.HandleFunc("PUT "+routes.APIDraft, h.SaveDraft)
	mux.HandleFunc("DELETE "+routes.APIDraft, h.DiscardDraft)
	mux.HandleFunc("POST "+routes.APIDraftFlush, h.FlushDraft)
	mux.HandleFunc("POST "+routes.APIDraftNavigate, h.NavigateDraft)
}

type StepView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type View struct {
	FormType    FormType       `json:"formType"`
	FormData    map[string]any `json:"formData"`
	Features    []string       `json:"features,omitempty"`
	CurrentStep string         `json:"currentStep"`
	SavedAt     time.Time      `json:"savedAt"`
	Steps       []StepView     `json:"steps"`
	CanSubmit   bool           `json:"canSubmit"`
	Pending     bool           `json:"pending"`
}

type queuedResponse struct {
	Status  string `json:"status"`
	DelayMS int64  `json:"delayMs"`
}

type flushResponse struct {
	Flushed bool   `json:"flushed"`
	Error   string `json:"error,omitempty"`
}

type incompleteResponse struct {
	Error   string   `json:"error"`
	Step    string   `json:"step"`
	Missing []string `json:"missing"`
}

func (h *Handler) ServeDraft(w http.ResponseWriter, r *http.Request) {
	owner, form, ok := h.begin(w, r)
	if !ok {
		return
	}

	d, err := h.autosaver.Store().Load(r.Context(), owner, form.Type)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(form, d))
}

// SaveDraft queues a debounced save, or writes through when ?now=true.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	owner, form, ok := h.begin(w, r)
	if !ok {
		return
	}

	var snap Snapshot
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBody)).Decode(&snap); err != nil {
		draftLogger.Debug().Err(err).Msg("Invalid draft payload")
		http.Error(w, config.ErrInvalidPayload, http.StatusBadRequest)
		return
	}

	if now, _ := strconv.ParseBool(r.URL.Query().Get(config.QuerySaveNow)); now {
		d, err := h.autosaver.SaveNow(r.Context(), owner, form.Type, snap)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.view(form, d))
		return
	}

	if err := h.autosaver.Queue(owner, form.Type, snap); err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, queuedResponse{
		Status:  "queued",
		DelayMS: h.autosaver.Delay().Milliseconds(),
	})
}

func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	owner, form, ok := h.begin(w, r)
	if !ok {
		return
	}

	if err := h.autosaver.Discard(r.Context(), owner, form.Type); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FlushDraft(w http.ResponseWriter, r *http.Request) {
	owner, form, ok := h.begin(w, r)
	if !ok {
		return
	}

	flushed, err := h.autosaver.Flush(owner, form.Type)
	resp := flushResponse{Flushed: flushed}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NavigateDraft moves the draft's current step. Pending changes are written first so
// validation sees what the user last typed.
func (h *Handler) NavigateDraft(w http.ResponseWriter, r *http.Request) {
	owner, form, ok := h.begin(w, r)
	if !ok {
		return
	}

	if _, err := h.autosaver.Flush(owner, form.Type); err != nil {
		h.fail(w, err)
		return
	}

	d, err := h.autosaver.Store().LoadAny(r.Context(), owner, form.Type)
	if errors.Is(err, ErrNoDraft) {
		d = &Draft{Owner: owner, Form: form.Type, FormData: map[string]any{}, CurrentStep: form.Flow.First().ID}
	} else if err != nil {
		h.fail(w, err)
		return
	}

	nav := form.Flow.Resume(d.CurrentStep, d.Payload())
	switch action := r.PathValue("action"); action {
	case "next":
		err = nav.Next()
		if errors.Is(err, wizard.ErrNoNextStep) {
			err = nil
		}
	case "previous":
		nav.Previous()
	case "jump":
		to := r.URL.Query().Get("to")
		if to == "" {
			http.Error(w, config.ErrMissingJumpStep, http.StatusBadRequest)
			return
		}
		err = nav.JumpTo(to)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	snap := d.Snapshot()
	snap.CurrentStep = nav.Current().ID
	saved, err := h.autosaver.SaveNow(r.Context(), owner, form.Type, snap)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(form, saved))
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (model.UserID, Form, bool) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return "", Form{}, false
	}

	form, err := h.autosaver.Store().Forms().Lookup(r.PathValue("form"))
	if err != nil {
		http.Error(w, config.ErrUnknownForm, http.StatusNotFound)
		return "", Form{}, false
	}
	return owner, form, true
}

func (h *Handler) view(form Form, d *Draft) View {
	nav := form.Flow.Resume(d.CurrentStep, d.Payload())
	steps := make([]StepView, 0, len(form.Flow.Steps()))
	for _, s := range form.Flow.Steps() {
		steps = append(steps, StepView{ID: s.ID, Title: s.Title, Completed: nav.Completed(s.ID)})
	}
	return View{
		FormType:    d.Form,
		FormData:    d.FormData,
		Features:    d.Features,
		CurrentStep: nav.Current().ID,
		SavedAt:     d.SavedAt,
		Steps:       steps,
		CanSubmit:   nav.CanSubmit() == nil,
		Pending:     h.autosaver.Pending(d.Owner, d.Form),
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var incomplete *wizard.IncompleteError
	if errors.As(err, &incomplete) {
		writeJSON(w, http.StatusUnprocessableEntity, incompleteResponse{
			Error:   config.ErrStepIncomplete,
			Step:    incomplete.Step,
			Missing: incomplete.Missing,
		})
		return
	}

	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		http.Error(w, config.ErrDraftNotFound, status)
	case http.StatusBadRequest:
		http.Error(w, config.ErrUnknownStep, status)
	case http.StatusInsufficientStorage:
		http.Error(w, config.ErrStorageQuota, status)
	default:
		draftLogger.Error().Err(err).Msg("Draft request failed")
		http.Error(w, config.ErrInternalServerError, status)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoDraft):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrUnknownStep):
		return http.StatusBadRequest
	case errors.Is(err, kv.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		draftLogger.Error().Err(err).Msg("Failed to encode response")
	}
}
