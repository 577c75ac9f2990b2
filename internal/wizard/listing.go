package wizard

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/debemdeboas/homestead/internal/model"
)

const (
	StepBasic    = "basic"
	StepLocation = "location"
	StepDetails  = "details"
	StepMedia    = "media"
	StepReview   = "review"
)

func text(p Payload, key string) string {
	v, _ := p[key].(string)
	return strings.TrimSpace(v)
}

// number reads a numeric field. Missing, unparsable and non-finite values read as zero.
func number(p Payload, key string) float64 {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func count(p Payload, key string) int {
	switch v := p[key].(type) {
	case []any:
		n := 0
		for _, item := range v {
			if s, ok := item.(string); !ok || strings.TrimSpace(s) != "" {
				n++
			}
		}
		return n
	case []string:
		n := 0
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				n++
			}
		}
		return n
	}
	return 0
}

func basicFields(p Payload) []string {
	var missing []string
	if text(p, "title") == "" {
		missing = append(missing, "title")
	}
	if !model.PropertyType(text(p, "propertyType")).Valid() {
		missing = append(missing, "propertyType")
	}
	if !model.ListingType(text(p, "listingType")).Valid() {
		missing = append(missing, "listingType")
	}
	return missing
}

func priceField(p Payload) []string {
	if number(p, "price") <= 0 {
		return []string{"price"}
	}
	return nil
}

func validateBasic(p Payload) []string {
	return basicFields(p)
}

func validateQuickBasic(p Payload) []string {
	return append(basicFields(p), priceField(p)...)
}

func validateLocation(p Payload) []string {
	var missing []string
	if text(p, "address") == "" {
		missing = append(missing, "address")
	}
	if text(p, "city") == "" {
		missing = append(missing, "city")
	}
	return missing
}

func validateQuickLocation(p Payload) []string {
	if text(p, "city") == "" {
		return []string{"city"}
	}
	return nil
}

func validateDetails(p Payload) []string {
	missing := priceField(p)
	if number(p, "area") < 0 {
		missing = append(missing, "area")
	}
	if number(p, "bedrooms") < 0 {
		missing = append(missing, "bedrooms")
	}
	if number(p, "bathrooms") < 0 {
		missing = append(missing, "bathrooms")
	}
	return missing
}

func validateMedia(p Payload) []string {
	if count(p, "images") < 1 {
		return []string{"images"}
	}
	return nil
}

// QuickFlow is the short listing form: basic (with price), city, then photos.
func QuickFlow() *Flow {
	return MustFlow("quick",
		Step{ID: StepBasic, Title: "Basic information", Validate: validateQuickBasic},
		Step{ID: StepLocation, Title: "Location", Validate: validateQuickLocation},
		Step{ID: StepMedia, Title: "Photos", Validate: validateMedia},
	)
}

// FullFlow is the complete listing form ending in a review step.
func FullFlow() *Flow {
	return MustFlow("full",
		Step{ID: StepBasic, Title: "Basic information", Validate: validateBasic},
		Step{ID: StepLocation, Title: "Location", Validate: validateLocation},
		Step{ID: StepDetails, Title: "Property details", Validate: validateDetails},
		Step{ID: StepMedia, Title: "Photos", Validate: validateMedia},
		Step{ID: StepReview, Title: "Review and submit"},
	)
}
