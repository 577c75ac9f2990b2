package auth

import (
	"net/http"

	"github.com/debemdeboas/homestead/internal/model"
)

// UserEnforcer resolves the caller of a request, writing the failure response itself when there is none.
type UserEnforcer interface {
	EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error)
}

type AuthProvider interface {
	UserEnforcer

	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserIDFromSession(r *http.Request) (model.UserID, error)

	HandleWebhookUser(w http.ResponseWriter, r *http.Request)
}
