package model

import (
	"encoding/json"
	"testing"
)

func TestNumberUnmarshal(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Number
		expectError bool
	}{
		{name: "number", input: `250000`, expected: 250000},
		{name: "float", input: `99.5`, expected: 99.5},
		{name: "numeric string", input: `"1200"`, expected: 1200},
		{name: "padded string", input: `" 3 "`, expected: 3},
		{name: "empty string", input: `""`, expected: 0},
		{name: "null", input: `null`, expected: 0},
		{name: "garbage string", input: `"three"`, expectError: true},
		{name: "nan string", input: `"NaN"`, expectError: true},
		{name: "infinite string", input: `"+Inf"`, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var n Number
			err := json.Unmarshal([]byte(tc.input), &n)
			if tc.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if n != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, n)
			}
		})
	}
}

func TestDecodeListingInput(t *testing.T) {
	payload := map[string]any{
		"title":        "Harbour loft",
		"propertyType": "apartment",
		"listingType":  "rent",
		"price":        "1850",
		"bedrooms":     2.0,
		"city":         "Lisbon",
		"images":       []any{"https://cdn.example/a.jpg"},
		"unknownField": true,
	}

	in, err := DecodeListingInput(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if in.Title != "Harbour loft" {
		t.Errorf("Expected title 'Harbour loft', got %q", in.Title)
	}
	if in.PropertyType != PropertyApartment || in.ListingType != ListingRent {
		t.Errorf("Unexpected types %q/%q", in.PropertyType, in.ListingType)
	}
	if in.Price != 1850 {
		t.Errorf("Expected price 1850 from string, got %v", in.Price)
	}
	if in.Bedrooms.Int() != 2 {
		t.Errorf("Expected 2 bedrooms, got %d", in.Bedrooms.Int())
	}
	if len(in.Images) != 1 {
		t.Errorf("Expected one image, got %v", in.Images)
	}

	if _, err := DecodeListingInput(map[string]any{"price": "lots"}); err == nil {
		t.Error("Expected error for non-numeric price")
	}
}

func TestEnumsValid(t *testing.T) {
	if !PropertyVilla.Valid() || PropertyType("castle").Valid() {
		t.Error("PropertyType.Valid misclassified a value")
	}
	if !ListingSale.Valid() || ListingType("lease").Valid() {
		t.Error("ListingType.Valid misclassified a value")
	}
}

func TestListingApply(t *testing.T) {
	l := &Listing{ID: "id-1", Owner: "u1", Status: StatusPublished}
	in := &ListingInput{
		Title:    "  Villa Sol  ",
		Currency: "eur",
		Price:    900000,
		Features: []string{"pool"},
		Images:   []string{"a.jpg", "b.jpg"},
	}

	l.Apply(in)

	if l.Title != "Villa Sol" {
		t.Errorf("Expected trimmed title, got %q", l.Title)
	}
	if l.Currency != "EUR" {
		t.Errorf("Expected upper-cased currency, got %q", l.Currency)
	}
	if l.ID != "id-1" || l.Owner != "u1" || l.Status != StatusPublished {
		t.Error("Expected identity and status to be untouched")
	}

	in.Images[0] = "changed.jpg"
	if l.Images[0] != "a.jpg" {
		t.Error("Expected images to be copied, not aliased")
	}
}
