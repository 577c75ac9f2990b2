package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrCreateProviderFmt      = "Failed to create provider: %v"
	ErrAuthHeaderRequired     = "Authorization header required"
	ErrInvalidSignatureFormat = "Invalid signature format"
	ErrInvalidSignature       = "Invalid signature"
	ErrInternalServerError    = "Internal server error"
	ErrUnauthorized           = "Unauthorized"

	// Draft errors
	ErrDraftNotFound   = "Draft not found"
	ErrUnknownForm     = "Unknown form type"
	ErrInvalidPayload  = "Invalid draft payload"
	ErrStorageQuota    = "Draft storage quota exceeded"
	ErrStepIncomplete  = "Current step is incomplete"
	ErrUnknownStep     = "Unknown step"
	ErrMissingJumpStep = "Query parameter 'to' is required"

	// Listing errors
	ErrListingNotFound = "Listing not found"
	ErrNotListingOwner = "Listing belongs to another user"

	// Image errors
	ErrNoFilesFmt      = "No files in multipart field %q"
	ErrTooManyFilesFmt = "At most %d files per batch"
	ErrParseMultipart  = "Failed to parse multipart form"
	ErrBatchRequired   = "Batch parameter required"
	ErrStreamingUnsupp = "Streaming unsupported"

	// Challenge errors
	ErrRefreshChallengeFmt = "Failed to refresh challenge"
)
