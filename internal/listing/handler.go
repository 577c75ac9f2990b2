package listing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/debemdeboas/homestead/internal/auth"
	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/draft"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/render"
	"github.com/debemdeboas/homestead/internal/repository"
	"github.com/debemdeboas/homestead/internal/routes"
	"github.com/debemdeboas/homestead/internal/wizard"
)

const (
	maxListingBody = 1 << 20
	excerptLength  = 160
)

type Handler struct {
	service *Service
	forms   draft.Forms
	users   auth.UserEnforcer
}

func NewHandler(service *Service, forms draft.Forms, users auth.UserEnforcer) *Handler {
	return &Handler{
		service: service,
		forms:   forms,
		users:   users,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+routes.APIListingSubmit, h.Submit)
	mux.HandleFunc("GET "+routes.APIListings, h.List)
	mux.HandleFunc("GET "+routes.APIListing, h.Get)
	mux.HandleFunc("PUT "+routes.APIListing, h.Update)
	mux.HandleFunc("DELETE "+routes.APIListing, h.Delete)
	mux.HandleFunc("GET "+routes.APIListingPreview, h.Preview)
}

type Summary struct {
	ID           model.ListingID     `json:"id"`
	Title        string              `json:"title"`
	Excerpt      string              `json:"excerpt"`
	PropertyType model.PropertyType  `json:"propertyType"`
	ListingType  model.ListingType   `json:"listingType"`
	Price        float64             `json:"price"`
	Currency     string              `json:"currency"`
	City         string              `json:"city"`
	Cover        string              `json:"cover,omitempty"`
	Status       model.ListingStatus `json:"status"`
	ModifiedDate time.Time           `json:"modifiedAt"`
}

func summarize(l *model.Listing) Summary {
	s := Summary{
		ID:           l.ID,
		Title:        l.Title,
		Excerpt:      render.Excerpt([]byte(l.Description), excerptLength),
		PropertyType: l.PropertyType,
		ListingType:  l.ListingType,
		Price:        l.Price,
		Currency:     l.Currency,
		City:         l.City,
		Status:       l.Status,
		ModifiedDate: l.ModifiedDate,
	}
	if len(l.Images) > 0 {
		s.Cover = l.Images[0]
	}
	return s
}

type incompleteResponse struct {
	Error   string   `json:"error"`
	Step    string   `json:"step"`
	Missing []string `json:"missing"`
}

// Submit is the explicit action of the review step. With an empty body it submits the stored draft;
// otherwise the body is the form snapshot to submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	form, err := h.forms.Lookup(r.PathValue("form"))
	if err != nil {
		http.Error(w, config.ErrUnknownForm, http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxListingBody))
	if err != nil {
		http.Error(w, config.ErrInvalidPayload, http.StatusBadRequest)
		return
	}

	var listing *model.Listing
	if len(body) == 0 {
		listing, err = h.service.SubmitDraft(r.Context(), owner, form)
	} else {
		var snap draft.Snapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			http.Error(w, config.ErrInvalidPayload, http.StatusBadRequest)
			return
		}
		listing, err = h.service.SubmitForm(r.Context(), owner, form, snap)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	listings, err := h.service.Repository().ListByOwner(r.Context(), owner)
	if err != nil {
		h.fail(w, err)
		return
	}

	summaries := make([]Summary, 0, len(listings))
	for i := range listings {
		summaries = append(summaries, summarize(&listings[i]))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	listing, err := h.service.Visible(r.Context(), viewer, model.ListingID(r.PathValue("id")))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	var payload wizard.Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxListingBody)).Decode(&payload); err != nil {
		http.Error(w, config.ErrInvalidPayload, http.StatusBadRequest)
		return
	}

	listing, err := h.service.Update(r.Context(), owner, model.ListingID(r.PathValue("id")), payload)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	if err := h.service.Delete(r.Context(), owner, model.ListingID(r.PathValue("id"))); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview serves the rendered description, keyed by its content hash.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	listing, err := h.service.Visible(r.Context(), viewer, model.ListingID(r.PathValue("id")))
	if err != nil {
		h.fail(w, err)
		return
	}

	etag := `"` + listing.DescriptionHash + `"`
	if listing.DescriptionHash != "" && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	html := render.DescriptionCached([]byte(listing.Description), listing.DescriptionHash)

	w.Header().Set(config.HCType, config.CTypeHTML)
	if listing.DescriptionHash != "" {
		w.Header().Set(config.HETag, etag)
	}
	w.Write(html)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var incomplete *wizard.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusUnprocessableEntity, incompleteResponse{
			Error:   config.ErrStepIncomplete,
			Step:    incomplete.Step,
			Missing: incomplete.Missing,
		})
	case errors.Is(err, draft.ErrNoDraft):
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
	case errors.Is(err, repository.ErrListingNotFound):
		http.Error(w, config.ErrListingNotFound, http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, config.ErrNotListingOwner, http.StatusForbidden)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, config.ErrInvalidPayload, http.StatusBadRequest)
	default:
		listingLogger.Error().Err(err).Msg("Listing request failed")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		listingLogger.Error().Err(err).Msg("Failed to encode response")
	}
}
