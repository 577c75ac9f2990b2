package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/debemdeboas/homestead/internal/auth"
	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/routes"
	"github.com/rs/zerolog"
)

var userLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	userLogger = l
}

type Handler struct {
	users     auth.UserEnforcer
	directory Directory
}

func NewHandler(users auth.UserEnforcer, directory Directory) *Handler {
	return &Handler{users: users, directory: directory}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routes.APIMe, h.ServeMe)
}

// ServeMe returns the caller's profile. Users without a stored profile still get their ID back.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	id, err := h.users.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	profile, err := h.directory.Get(r.Context(), id)
	if errors.Is(err, ErrUserNotFound) {
		profile = &Profile{ID: id}
	} else if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("user_id", string(id)).Msg("Profile lookup failed")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeJSON)
	json.NewEncoder(w).Encode(profile)
}
