package auth

import (
	"net/http"

	"github.com/debemdeboas/homestead/internal/model"
)

// StaticAuthProvider treats every request as the same configured user. It backs local development
// when authentication is disabled.
type StaticAuthProvider struct {
	userID model.UserID
}

func NewStaticAuthProvider(userID model.UserID) *StaticAuthProvider {
	if userID == "" {
		userID = "local"
	}
	return &StaticAuthProvider{userID: userID}
}

func (p *StaticAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), p.userID)))
		})
	}
}

func (p *StaticAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	return p.userID, nil
}

func (p *StaticAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (p *StaticAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return p.userID, nil
}
