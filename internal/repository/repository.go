// Package repository persists submitted listings.
package repository

import (
	"context"
	"errors"

	"github.com/debemdeboas/homestead/internal/model"
	"github.com/rs/zerolog"
)

var ErrListingNotFound = errors.New("listing not found")

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type ListingRepository interface {
	// NewListing returns an unsaved listing with a fresh id, owned by owner and pending review.
	NewListing(owner model.UserID) *model.Listing

	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error
	ReadListing(ctx context.Context, id model.ListingID) (*model.Listing, error)
	ListByOwner(ctx context.Context, owner model.UserID) ([]model.Listing, error)
	DeleteListing(ctx context.Context, id model.ListingID) error
}
