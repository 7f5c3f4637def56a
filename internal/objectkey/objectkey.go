// Package objectkey derives object-storage keys for uploaded documents.
//
// Keys have the shape
//
//	{userID}/{timestamp}-{token}-{base}{ext}
//
// The user prefix allows per-owner prefix listing, the timestamp keeps keys
// sortable for humans and the token carries uniqueness. The filename part is
// sanitised so that a key never contains path separators or other characters a
// filesystem-backed store could misinterpret.
package objectkey

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderBase replaces a base name that sanitises to nothing.
const PlaceholderBase = "upload"

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// SanitizeFilename returns the sanitised base name and extension of name joined
// together, the filename part of every key.
func SanitizeFilename(name string) string {
	base, ext := Split(name)
	return base + ext
}

// Split returns the sanitised base name and extension of the last path element
// of name. Trailing separators are ignored, so "docs/" yields "docs".
// Every base rune outside [A-Za-z0-9_-] becomes '-', an empty base becomes
// PlaceholderBase. The extension keeps its leading dot; its remaining runes go
// through the same filter, so ".PDF" is preserved as-is.
func Split(name string) (base, ext string) {
	name = strings.TrimRight(name, `/\`)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	// A leading dot marks a hidden file, not an extension.
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		ext = "." + sanitize(name[i+1:])
		name = name[:i]
	}

	base = sanitize(name)
	if base == "" {
		base = PlaceholderBase
	}
	return base, ext
}

// Timestamp renders t in UTC as an ISO-8601 instant with millisecond precision
// and with ':' and '.' replaced by '-', e.g. 2024-05-01T10-20-30-123Z.
func Timestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000")) + "Z"
}

// Build composes a storage key from its parts. It is pure; callers supply the
// time and the random token.
func Build(userID, originalName string, now time.Time, token string) string {
	filename := SanitizeFilename(originalName)
	var b strings.Builder
	b.Grow(len(userID) + len(token) + len(filename) + 32)
	b.WriteString(userID)
	b.WriteByte('/')
	b.WriteString(Timestamp(now))
	b.WriteByte('-')
	b.WriteString(token)
	b.WriteByte('-')
	b.WriteString(filename)
	return b.String()
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

// Builder derives keys using a clock and a random token source.
// The zero value is not usable; construct with NewBuilder.
type Builder struct {
	now   func() time.Time
	token func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithTokenSource overrides the unique token generator.
func WithTokenSource(token func() string) Option {
	return func(b *Builder) {
		b.token = token
	}
}

// NewBuilder returns a Builder using time.Now and random (version 4) UUIDs,
// which carry 122 bits of crypto/rand entropy.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:   time.Now,
		token: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Key derives a fresh storage key for originalName under userID.
func (b *Builder) Key(userID, originalName string) string {
	return Build(userID, originalName, b.now(), b.token())
}
