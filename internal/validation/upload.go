// Package validation checks uploads against the MIME allow-list and size limit
// before anything is written to storage.
package validation

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	// ErrMissingPayload is returned when an upload carries no file.
	ErrMissingPayload = errors.New("file is required")
	// ErrUnsupportedType is returned when the declared MIME type is not allow-listed.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrPayloadTooLarge is returned when the upload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("file too large")
)

// allowedMimeTypes is fixed; it is deliberately not configurable.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// Upload describes the parts of an incoming file that are checked before any
// storage side effect.
type Upload struct {
	Present  bool
	MimeType string
	Size     int64
}

// IsAllowedMimeType reports whether the declared content type is accepted.
// Parameters such as "; charset=binary" are ignored and matching is case-insensitive;
// callers persist NormalizeMimeType(contentType), which is always an allow-list entry.
func IsAllowedMimeType(contentType string) bool {
	return allowedMimeTypes[NormalizeMimeType(contentType)]
}

// NormalizeMimeType lowercases contentType and strips any parameters.
func NormalizeMimeType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// ValidateUpload checks u against the allow-list and, when maxBytes is
// positive, the size limit. The returned error wraps one of the package
// sentinels.
func ValidateUpload(u Upload, maxBytes int64) error {
	if !u.Present {
		return ErrMissingPayload
	}
	if !IsAllowedMimeType(u.MimeType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, u.MimeType)
	}
	if maxBytes > 0 && u.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, u.Size, maxBytes)
	}
	return nil
}
