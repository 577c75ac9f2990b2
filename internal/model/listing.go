// Package model defines the listing types shared by drafts, the step navigator and the repository.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type ListingID string

type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyOffice     PropertyType = "office"
)

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyVilla, PropertyLand, PropertyCommercial, PropertyOffice:
		return true
	}
	return false
}

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

func (l ListingType) Valid() bool {
	return l == ListingSale || l == ListingRent
}

type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusPublished ListingStatus = "published"
	StatusArchived  ListingStatus = "archived"
)

// Number accepts JSON numbers and numeric strings, since form inputs post both. An empty string is zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		data = []byte(s)
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", data, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %q: not finite", data)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

func (n Number) Int() int {
	return int(n)
}

// ListingInput is the form payload as the listing forms post it.
type ListingInput struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PropertyType PropertyType `json:"propertyType"`
	ListingType  ListingType  `json:"listingType"`
	Price        Number       `json:"price"`
	Currency     string       `json:"currency"`

	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Latitude   Number `json:"latitude"`
	Longitude  Number `json:"longitude"`

	Bedrooms  Number `json:"bedrooms"`
	Bathrooms Number `json:"bathrooms"`
	Area      Number `json:"area"`
	YearBuilt Number `json:"yearBuilt"`
	Furnished bool   `json:"furnished"`

	Features []string `json:"features"`
	Images   []string `json:"images"`
}

// DecodeListingInput reads an arbitrary form payload into a ListingInput. Unknown keys are ignored.
func DecodeListingInput(payload map[string]any) (*ListingInput, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding payload: %w", err)
	}

	var in ListingInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("error decoding payload: %w", err)
	}
	return &in, nil
}

type Listing struct {
	ID    ListingID `json:"id"`
	Owner UserID    `json:"owner"`

	Title           string `json:"title"`
	Description     string `json:"description"`
	DescriptionHash string `json:"descriptionHash"`

	PropertyType PropertyType `json:"propertyType"`
	ListingType  ListingType  `json:"listingType"`
	Price        float64      `json:"price"`
	Currency     string       `json:"currency"`

	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postalCode"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`

	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	Area      float64 `json:"area"`
	YearBuilt int     `json:"yearBuilt"`
	Furnished bool    `json:"furnished"`

	Features []string `json:"features"`
	Images   []string `json:"images"`

	Status       ListingStatus `json:"status"`
	CreatedDate  time.Time     `json:"createdAt"`
	ModifiedDate time.Time     `json:"modifiedAt"`
}

// Apply copies the form input onto the listing, leaving identity, status and timestamps alone.
func (l *Listing) Apply(in *ListingInput) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.PropertyType = in.PropertyType
	l.ListingType = in.ListingType
	l.Price = in.Price.Float()
	l.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	l.Address = strings.TrimSpace(in.Address)
	l.City = strings.TrimSpace(in.City)
	l.State = strings.TrimSpace(in.State)
	l.Country = strings.TrimSpace(in.Country)
	l.PostalCode = strings.TrimSpace(in.PostalCode)
	l.Latitude = in.Latitude.Float()
	l.Longitude = in.Longitude.Float()
	l.Bedrooms = in.Bedrooms.Int()
	l.Bathrooms = in.Bathrooms.Int()
	l.Area = in.Area.Float()
	l.YearBuilt = in.YearBuilt.Int()
	l.Furnished = in.Furnished
	l.Features = append([]string(nil), in.Features...)
	l.Images = append([]string(nil), in.Images...)
}
