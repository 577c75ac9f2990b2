package auth

import (
	"net/http"

	"github.com/debemdeboas/homestead/internal/routes"
)

// RegisterEd25519AuthRoutes registers all the routes needed for Ed25519 authentication
func RegisterEd25519AuthRoutes(mux *http.ServeMux, provider *Ed25519AuthProvider) {
	mux.HandleFunc(routes.AuthChallenge, Ed25519ChallengeHandler(provider))
	mux.HandleFunc(routes.AuthVerify, Ed25519VerifyHandler(provider))
	mux.HandleFunc("POST "+routes.AuthLogout, LogoutHandler())
}
