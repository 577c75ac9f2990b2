// Package listing turns a completed draft into a stored listing and serves listings back to their owners.
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/debemdeboas/homestead/internal/draft"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/repository"
	"github.com/debemdeboas/homestead/internal/wizard"
	"github.com/rs/zerolog"
)

var (
	ErrNotOwner     = errors.New("listing belongs to another user")
	ErrInvalidInput = errors.New("invalid listing input")
)

var listingLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	listingLogger = l
}

// Service holds the submission rules shared by the HTTP handler and the import tool.
type Service struct {
	repo      repository.ListingRepository
	autosaver *draft.Autosaver
}

func NewService(repo repository.ListingRepository, autosaver *draft.Autosaver) *Service {
	return &Service{
		repo:      repo,
		autosaver: autosaver,
	}
}

func (s *Service) Repository() repository.ListingRepository {
	return s.repo
}

// Submit creates a pending listing from snap if every step of flow validates.
func (s *Service) Submit(ctx context.Context, owner model.UserID, flow *wizard.Flow, snap draft.Snapshot) (*model.Listing, error) {
	d := &draft.Draft{FormData: snap.FormData, Features: snap.Features}
	payload := d.Payload()

	if err := flow.Validate(payload); err != nil {
		return nil, err
	}

	in, err := model.DecodeListingInput(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	listing := s.repo.NewListing(owner)
	listing.Apply(in)
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, err
	}

	listingLogger.Info().
		Str("listing_id", string(listing.ID)).
		Str("user_id", string(owner)).
		Str("flow", flow.Name()).
		Msg("Listing submitted")
	return listing, nil
}

// SubmitDraft submits the owner's stored draft of form and clears it. Pending autosaves are written first.
func (s *Service) SubmitDraft(ctx context.Context, owner model.UserID, form draft.Form) (*model.Listing, error) {
	if _, err := s.autosaver.Flush(owner, form.Type); err != nil {
		return nil, err
	}

	d, err := s.autosaver.Store().LoadAny(ctx, owner, form.Type)
	if err != nil {
		return nil, err
	}

	return s.SubmitForm(ctx, owner, form, d.Snapshot())
}

// SubmitForm submits snap with the rules of form and clears the owner's draft of that form.
func (s *Service) SubmitForm(ctx context.Context, owner model.UserID, form draft.Form, snap draft.Snapshot) (*model.Listing, error) {
	listing, err := s.Submit(ctx, owner, form.Flow, snap)
	if err != nil {
		return nil, err
	}

	if err := s.autosaver.Discard(ctx, owner, form.Type); err != nil {
		// The listing exists; a stale draft only costs storage until it expires.
		listingLogger.Error().Err(err).Str("user_id", string(owner)).Msg("Failed to clear submitted draft")
	}
	return listing, nil
}

// Update replaces the editable fields of an owned listing. Edits use the full form's rules.
func (s *Service) Update(ctx context.Context, owner model.UserID, id model.ListingID, payload wizard.Payload) (*model.Listing, error) {
	listing, err := s.Owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := wizard.FullFlow().Validate(payload); err != nil {
		return nil, err
	}

	in, err := model.DecodeListingInput(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	listing.Apply(in)
	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Owned reads a listing and checks that owner may change it.
func (s *Service) Owned(ctx context.Context, owner model.UserID, id model.ListingID) (*model.Listing, error) {
	listing, err := s.repo.ReadListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Owner != owner {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, id)
	}
	return listing, nil
}

// Visible reads a listing that viewer may see: any published listing, or one of their own.
func (s *Service) Visible(ctx context.Context, viewer model.UserID, id model.ListingID) (*model.Listing, error) {
	listing, err := s.repo.ReadListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Owner != viewer && listing.Status != model.StatusPublished {
		return nil, fmt.Errorf("%w: %s", repository.ErrListingNotFound, id)
	}
	return listing, nil
}

func (s *Service) Delete(ctx context.Context, owner model.UserID, id model.ListingID) error {
	if _, err := s.Owned(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.DeleteListing(ctx, id)
}
