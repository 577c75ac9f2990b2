// Package routes defines HTTP route constants for the application.
package routes

// API Routes
const (
	// Health
	HealthPath = "/healthz"

	// Drafts
	APIDraft         = "/api/drafts/{form}"
	APIDraftFlush    = "/api/drafts/{form}/flush"
	APIDraftNavigate = "/api/drafts/{form}/steps/{action}"

	// Listings
	APIListings       = "/api/listings"
	APIListingSubmit  = "/api/listings/{form}"
	APIListing        = "/api/listings/{id}"
	APIListingPreview = "/api/listings/{id}/preview"

	// Images
	APIImages       = "/api/images"
	APIImagesEvents = "/api/images/events"

	// Current user
	APIMe = "/api/me"

	// Uploaded files served by the filesystem object store
	Uploads = "/uploads/"

	// Auth routes
	AuthChallenge = "/auth/challenge"
	AuthVerify    = "/auth/verify"
	AuthLogout    = "/auth/logout"
	WebhookUser   = "/webhook/user"
)
