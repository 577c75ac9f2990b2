package user

import (
	"context"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/debemdeboas/homestead/internal/model"
)

// ClerkDirectory asks the Clerk API for the profile and falls back to the local copy when the call fails.
type ClerkDirectory struct {
	fallback Directory
	fetch    func(ctx context.Context, id string) (*clerk.User, error)
}

func NewClerkDirectory(fallback Directory) *ClerkDirectory {
	return &ClerkDirectory{fallback: fallback, fetch: clerkuser.Get}
}

func (c *ClerkDirectory) Get(ctx context.Context, id model.UserID) (*Profile, error) {
	usr, err := c.fetch(ctx, string(id))
	if err != nil {
		userLogger.Warn().Err(err).Str("user_id", string(id)).Msg("Clerk lookup failed, using local profile")
		return c.fallback.Get(ctx, id)
	}

	p := &Profile{ID: id}
	if usr.Username != nil {
		p.Username = *usr.Username
	}
	for _, addr := range usr.EmailAddresses {
		if addr == nil {
			continue
		}
		if p.Email == "" || (usr.PrimaryEmailAddressID != nil && addr.ID == *usr.PrimaryEmailAddressID) {
			p.Email = addr.EmailAddress
		}
	}
	if p.Username == "" {
		p.Username = p.Email
	}
	return p, nil
}
