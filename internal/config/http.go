package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeHTML        = "text/html"
	CTypeJSON        = "application/json"
	CTypeEventStream = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieAuthToken = "auth_token"
)

const (
	// QuerySaveNow bypasses the autosave debounce.
	QuerySaveNow = "now"

	// FormFieldFiles is the multipart field carrying image uploads.
	FormFieldFiles = "files"
)
