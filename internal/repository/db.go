package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/homestead/internal/cache"
	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/model"
	"github.com/debemdeboas/homestead/internal/util"
	"github.com/debemdeboas/homestead/internal/util/compression"
	"github.com/google/uuid"
)

const listingColumns = `id, user_id, title, description, description_hash, property_type, listing_type,
	price, currency, address, city, state, country, postal_code, latitude, longitude,
	bedrooms, bathrooms, area, year_built, furnished, features, images, status, created_at, modified_at`

type DBListingRepository struct { // implements ListingRepository
	listingsCache *cache.Cache[model.ListingID, *model.Listing]

	db         db.DB
	compressor compression.Compressor

	now func() time.Time
}

func NewDBListingRepository(database db.DB) *DBListingRepository {
	return &DBListingRepository{
		listingsCache: cache.NewCache[model.ListingID, *model.Listing](),

		db: database,

		compressor: compression.NewZstdCompressor(),

		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBListingRepository) NewListing(owner model.UserID) *model.Listing {
	now := r.now()

	return &model.Listing{
		ID:    model.ListingID(uuid.New().String()),
		Owner: owner,

		Status:       model.StatusPending,
		CreatedDate:  now,
		ModifiedDate: now,

		Features: []string{},
		Images:   []string{},
	}
}

// encode prepares the stored form of the columns that are not plain scalars.
func (r *DBListingRepository) encode(listing *model.Listing) (description []byte, features, images string, err error) {
	description, err = r.compressor.Compress([]byte(listing.Description))
	if err != nil {
		return nil, "", "", fmt.Errorf("error compressing description: %w", err)
	}

	// The hash is of the markdown itself so rendered output can be cached across listings.
	listing.DescriptionHash = util.ContentHashString(listing.Description)

	f, err := json.Marshal(nonNil(listing.Features))
	if err != nil {
		return nil, "", "", fmt.Errorf("error encoding features: %w", err)
	}
	i, err := json.Marshal(nonNil(listing.Images))
	if err != nil {
		return nil, "", "", fmt.Errorf("error encoding images: %w", err)
	}
	return description, string(f), string(i), nil
}

func (r *DBListingRepository) CreateListing(ctx context.Context, listing *model.Listing) error {
	description, features, images, err := r.encode(listing)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID, listing.Owner, listing.Title, description, listing.DescriptionHash,
		listing.PropertyType, listing.ListingType, listing.Price, listing.Currency,
		listing.Address, listing.City, listing.State, listing.Country, listing.PostalCode,
		listing.Latitude, listing.Longitude, listing.Bedrooms, listing.Bathrooms, listing.Area,
		listing.YearBuilt, listing.Furnished, features, images, listing.Status,
		listing.CreatedDate, listing.ModifiedDate,
	)
	if err != nil {
		return fmt.Errorf("error saving listing: %w", err)
	}

	repoLogger.Debug().Interface("result", res).Str("listing_id", string(listing.ID)).Msg("Listing saved")

	r.listingsCache.Set(listing.ID, clone(listing))
	return nil
}

func (r *DBListingRepository) UpdateListing(ctx context.Context, listing *model.Listing) error {
	description, features, images, err := r.encode(listing)
	if err != nil {
		return err
	}
	listing.ModifiedDate = r.now()

	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, description_hash = ?, property_type = ?, listing_type = ?,
			price = ?, currency = ?, address = ?, city = ?, state = ?, country = ?, postal_code = ?,
			latitude = ?, longitude = ?, bedrooms = ?, bathrooms = ?, area = ?, year_built = ?, furnished = ?,
			features = ?, images = ?, status = ?, modified_at = ?
		WHERE id = ?`,
		listing.Title, description, listing.DescriptionHash, listing.PropertyType, listing.ListingType,
		listing.Price, listing.Currency, listing.Address, listing.City, listing.State, listing.Country, listing.PostalCode,
		listing.Latitude, listing.Longitude, listing.Bedrooms, listing.Bathrooms, listing.Area, listing.YearBuilt, listing.Furnished,
		features, images, listing.Status, listing.ModifiedDate,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating listing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating listing: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrListingNotFound, listing.ID)
	}

	repoLogger.Debug().Str("listing_id", string(listing.ID)).Msg("Listing updated")

	r.listingsCache.Set(listing.ID, clone(listing))
	return nil
}

func (r *DBListingRepository) ReadListing(ctx context.Context, id model.ListingID) (*model.Listing, error) {
	if listing, ok := r.listingsCache.Get(id); ok {
		return clone(listing), nil
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	listing, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrListingNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	r.listingsCache.Set(id, clone(listing))
	return listing, nil
}

func (r *DBListingRepository) ListByOwner(ctx context.Context, owner model.UserID) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE user_id = ? ORDER BY modified_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("error querying listings: %w", err)
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		listing, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}

func (r *DBListingRepository) DeleteListing(ctx context.Context, id model.ListingID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting listing: %w", err)
	}
	r.listingsCache.Delete(id)

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrListingNotFound, id)
	}
	repoLogger.Debug().Str("listing_id", string(id)).Msg("Listing deleted")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBListingRepository) scan(row scanner) (*model.Listing, error) {
	var (
		listing     model.Listing
		compressed  []byte
		hash        sql.NullString
		currency    sql.NullString
		address     sql.NullString
		state       sql.NullString
		country     sql.NullString
		postalCode  sql.NullString
		features    sql.NullString
		images      sql.NullString
		description []byte
	)

	err := row.Scan(
		&listing.ID, &listing.Owner, &listing.Title, &compressed, &hash,
		&listing.PropertyType, &listing.ListingType, &listing.Price, &currency,
		&address, &listing.City, &state, &country, &postalCode,
		&listing.Latitude, &listing.Longitude, &listing.Bedrooms, &listing.Bathrooms, &listing.Area,
		&listing.YearBuilt, &listing.Furnished, &features, &images, &listing.Status,
		&listing.CreatedDate, &listing.ModifiedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning listing: %w", err)
	}

	if len(compressed) > 0 {
		description, err = r.compressor.Decompress(compressed)
		if err != nil {
			return nil, fmt.Errorf("error decompressing description: %w", err)
		}
	}
	listing.Description = string(description)
	listing.DescriptionHash = hash.String
	listing.Currency = currency.String
	listing.Address = address.String
	listing.State = state.String
	listing.Country = country.String
	listing.PostalCode = postalCode.String

	listing.Features = []string{}
	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &listing.Features); err != nil {
			return nil, fmt.Errorf("error decoding features: %w", err)
		}
	}
	listing.Images = []string{}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &listing.Images); err != nil {
			return nil, fmt.Errorf("error decoding images: %w", err)
		}
	}

	return &listing, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clone(l *model.Listing) *model.Listing {
	c := *l
	c.Features = append([]string{}, l.Features...)
	c.Images = append([]string{}, l.Images...)
	return &c
}
