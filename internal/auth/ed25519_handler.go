package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/rs/zerolog"
)

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

func writeChallenge(w http.ResponseWriter, challenge []byte) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	json.NewEncoder(w).Encode(challengeResponse{
		Challenge: base64.StdEncoding.EncodeToString(challenge),
	})
}

// Ed25519ChallengeHandler serves the current challenge on GET and issues a new one on POST
func Ed25519ChallengeHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		switch r.Method {
		case http.MethodGet:
			writeChallenge(w, provider.GetChallenge())

		case http.MethodPost:
			if err := provider.RefreshChallenge(); err != nil {
				l.Error().Err(err).Msg("Failed to refresh challenge")
				http.Error(w, config.ErrRefreshChallengeFmt, http.StatusInternalServerError)
				return
			}
			writeChallenge(w, provider.GetChallenge())

		default:
			http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		}
	}
}

// Ed25519VerifyHandler checks the signature in the auth header and stores it in the auth cookie
func Ed25519VerifyHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		if r.Header.Get(provider.headerName) == "" {
			http.Error(w, config.ErrAuthHeaderRequired, http.StatusUnauthorized)
			return
		}

		signature := provider.signatureFromRequest(r)
		if len(signature) == 0 {
			http.Error(w, config.ErrInvalidSignatureFormat, http.StatusUnauthorized)
			return
		}

		if !provider.Verify(signature) {
			authLogger.Warn().Int("signature_len", len(signature)).Msg("Signature verification failed")
			http.Error(w, config.ErrInvalidSignature, http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     config.CookieAuthToken,
			Value:    base64.StdEncoding.EncodeToString(signature),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   r.TLS != nil,
			MaxAge:   3600 * 24, // 24 hours
		})

		w.WriteHeader(http.StatusOK)
	}
}

// LogoutHandler drops the auth cookie.
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     config.CookieAuthToken,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   -1,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
