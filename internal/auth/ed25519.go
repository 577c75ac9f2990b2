package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/rs/zerolog"
)

// Ed25519AuthProvider implements AuthProvider for a single operator who proves possession of a private key
// by signing the current challenge.
type Ed25519AuthProvider struct {
	publicKey  ed25519.PublicKey
	headerName string
	cookieName string
	userID     model.UserID

	mu        sync.RWMutex
	challenge []byte
}

// ParseEd25519PublicKey decodes a PEM encoded PKIX Ed25519 public key.
func ParseEd25519PublicKey(publicKeyPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	publicKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("key is not an Ed25519 public key")
	}
	return publicKey, nil
}

// NewEd25519AuthProvider creates a new Ed25519-based auth provider
func NewEd25519AuthProvider(publicKeyPEM string, headerName string, userID model.UserID) (*Ed25519AuthProvider, error) {
	publicKey, err := ParseEd25519PublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	challenge, err := newChallenge()
	if err != nil {
		return nil, err
	}

	if headerName == "" {
		headerName = "Authorization"
	}

	return &Ed25519AuthProvider{
		publicKey:  publicKey,
		headerName: headerName,
		cookieName: config.CookieAuthToken,
		userID:     userID,
		challenge:  challenge,
	}, nil
}

func newChallenge() ([]byte, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}
	return challenge, nil
}

// Verify reports whether signature signs the current challenge.
func (p *Ed25519AuthProvider) Verify(signature []byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(signature) == ed25519.SignatureSize && ed25519.Verify(p.publicKey, p.challenge, signature)
}

// signatureFromRequest reads a base64 signature from the auth header, falling back to the auth cookie.
func (p *Ed25519AuthProvider) signatureFromRequest(r *http.Request) []byte {
	l := zerolog.Ctx(r.Context())

	if authHeader := strings.TrimSpace(r.Header.Get(p.headerName)); authHeader != "" {
		authHeader = strings.TrimSpace(strings.TrimPrefix(authHeader, "Signature "))
		signature, err := base64.StdEncoding.DecodeString(authHeader)
		if err == nil {
			return signature
		}
		l.Debug().Err(err).Msg("Failed to decode signature from header")
	}

	if cookie, err := r.Cookie(p.cookieName); err == nil && cookie.Value != "" {
		signature, err := base64.StdEncoding.DecodeString(cookie.Value)
		if err == nil {
			return signature
		}
		l.Debug().Err(err).Msg("Failed to decode signature from cookie")
	}
	return nil
}

// WithHeaderAuthorization returns middleware that puts the user ID in the request context when the
// request carries a valid signature. Requests without one pass through anonymously.
func (p *Ed25519AuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signature := p.signatureFromRequest(r); len(signature) > 0 && p.Verify(signature) {
				r = r.WithContext(ContextWithUserID(r.Context(), p.userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromSession extracts the user ID from the request
func (p *Ed25519AuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return "", ErrNoUser
	}
	return userID, nil
}

// HandleWebhookUser is a no-op for this simple provider
func (p *Ed25519AuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetChallenge returns a copy of the challenge that needs to be signed
func (p *Ed25519AuthProvider) GetChallenge() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]byte(nil), p.challenge...)
}

// RefreshChallenge replaces the challenge, invalidating every issued signature.
func (p *Ed25519AuthProvider) RefreshChallenge() error {
	challenge, err := newChallenge()
	if err != nil {
		authLogger.Error().Err(err).Msg("Failed to generate challenge")
		return err
	}

	p.mu.Lock()
	p.challenge = challenge
	p.mu.Unlock()
	return nil
}

// EnforceUserAndGetID writes a 401 and returns an error when the request has no user.
func (p *Ed25519AuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(p, w, r)
}

func enforce(p AuthProvider, w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	userID, err := p.GetUserIDFromSession(r)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Unauthorized access attempt")
		http.Error(w, config.ErrUnauthorized, http.StatusUnauthorized)
		return "", err
	}
	return userID, nil
}
