package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/config"
)

// Package storage contains the S3-compatible object storage client used for
// document bytes. Keys are chosen by the caller; the store never generates them.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes an object after a successful Put.
// URL is a direct object URL derived from configuration; it does not grant access.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	URL         string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Implementations are safe for concurrent use and perform no internal retries.
type Storage interface {
	// Put uploads an object under exactly the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// PresignGet returns a URL that grants unauthenticated read access to key for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Bucket returns the name of the backing container.
	Bucket() string
}

// Location identifies where objects live; it is enough to derive direct object URLs.
type Location struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// ObjectURL returns the direct URL of key.
//
//   - no endpoint: https://{bucket}.s3.{region}.amazonaws.com/{key}
//   - endpoint with path style: {endpoint}/{bucket}/{key}
//   - endpoint without path style: {endpoint}/{key}
func ObjectURL(loc Location, key string) string {
	if loc.Endpoint != "" {
		base := strings.TrimSuffix(loc.Endpoint, "/")
		if loc.ForcePathStyle {
			return fmt.Sprintf("%s/%s/%s", base, loc.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", base, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", loc.Bucket, loc.Region, key)
}

// LocationFromConfig extracts the URL-relevant settings from cfg.
func LocationFromConfig(cfg config.StorageConfig) Location {
	return Location{
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		ForcePathStyle: cfg.ForcePathStyle,
	}
}

// New constructs the Storage selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMinIO, "":
		return NewMinIO(ctx, cfg)
	case config.DriverS3:
		return NewS3(ctx, cfg)
	case config.DriverMemory:
		return NewMemory(cfg.Bucket, cfg.PublicBaseURL, []byte(cfg.SigningSecret)), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// tracedTransport wraps the default transport so object-store calls show up as client spans.
func tracedTransport() http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport)
}
