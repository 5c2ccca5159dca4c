// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
const (
	// MaxJSONBody bounds any JSON request body read by the handlers.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxRecordBody bounds record create and edit payloads.
	MaxRecordBody = 256 << 10 // 256 KB
)
