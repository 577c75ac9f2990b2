package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/model"
)

const clerkSessionCookie = "__session"

// UserDeletedFunc runs after a user row is removed, so owned state such as drafts can be dropped.
type UserDeletedFunc func(ctx context.Context, id model.UserID) error

// ClerkAuthProvider resolves users from Clerk session tokens and mirrors Clerk users into the users table.
type ClerkAuthProvider struct {
	db db.DB

	cookieExtractor clerkhttp.AuthorizationOption
	onDeleted       UserDeletedFunc
}

func NewClerkAuthProvider(clerkKey string, database db.DB) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		db: database,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie(clerkSessionCookie)
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

// OnUserDeleted registers fn to run after a user.deleted webhook.
func (c *ClerkAuthProvider) OnUserDeleted(fn UserDeletedFunc) {
	c.onDeleted = fn
}

func (c *ClerkAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return clerkhttp.WithHeaderAuthorization(c.cookieExtractor)
}

// GetUserIDFromSession reads the subject of verified session claims. Claims are only present after
// WithHeaderAuthorization has verified the token, so no extra API call is made here.
func (c *ClerkAuthProvider) GetUserIDFromSession(r *http.Request) (model.UserID, error) {
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		if userID, ok := UserIDFromContext(r.Context()); ok {
			return userID, nil
		}
		return "", errors.New("failed to get session claims from context")
	}
	return model.UserID(claims.Subject), nil
}

func (c *ClerkAuthProvider) EnforceUserAndGetID(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(c, w, r)
}

type clerkEvent struct {
	Data clerk.User `json:"data"`
	Type string     `json:"type"`
}

// usernameOf prefers the Clerk username, then the primary email, then any email.
func usernameOf(usr *clerk.User) (username, email string) {
	for _, addr := range usr.EmailAddresses {
		if addr == nil {
			continue
		}
		if email == "" {
			email = addr.EmailAddress
		}
		if usr.PrimaryEmailAddressID != nil && addr.ID == *usr.PrimaryEmailAddressID {
			email = addr.EmailAddress
		}
	}

	if usr.Username != nil && *usr.Username != "" {
		return *usr.Username, email
	}
	return email, email
}

func (c *ClerkAuthProvider) HandleWebhookUser(w http.ResponseWriter, r *http.Request) {
	var payload clerkEvent
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		authLogger.Warn().Err(err).Msg("Error decoding webhook payload")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	usr := payload.Data
	l := authLogger.With().Str("event", payload.Type).Str("user_id", usr.ID).Logger()
	if usr.ID == "" && payload.Type != "" {
		http.Error(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case "user.created", "user.updated":
		username, email := usernameOf(&usr)
		if username == "" {
			l.Warn().Msg("User has neither username nor email")
			http.Error(w, "No username or email", http.StatusBadRequest)
			return
		}

		_, err := c.db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, email) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET username = excluded.username, email = excluded.email`,
			usr.ID, username, email)
		if err != nil {
			l.Error().Err(err).Msg("Error saving user")
			http.Error(w, "Error saving user", http.StatusInternalServerError)
			return
		}

		l.Info().Str("username", username).Msg("User saved")
		if payload.Type == "user.created" {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusNoContent)
		}

	case "user.deleted":
		if _, err := c.db.ExecContext(r.Context(), "DELETE FROM users WHERE id = ?", usr.ID); err != nil {
			l.Error().Err(err).Msg("Error deleting user")
			http.Error(w, "Error deleting user", http.StatusInternalServerError)
			return
		}

		if c.onDeleted != nil {
			if err := c.onDeleted(r.Context(), model.UserID(usr.ID)); err != nil {
				l.Error().Err(err).Msg("Error cleaning up user data")
			}
		}

		l.Info().Msg("User deleted")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Invalid event type", http.StatusBadRequest)
	}
}
