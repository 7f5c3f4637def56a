package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BlobPathPrefix is the URL path under which the memory store's objects are served.
const BlobPathPrefix = "/blobs/"

var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrURLExpired       = errors.New("signed url expired")
)

// Object is a stored blob returned by MemoryStorage.Open.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStorage keeps objects in process memory and issues HMAC-SHA256 signed
// URLs of the form {baseURL}/blobs/{key}?expires={unix}&signature={hex}.
// It backs local development and tests; the HTTP layer serves the URLs.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object

	bucket  string
	baseURL string
	secret  []byte
	now     func() time.Time
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithMemoryClock overrides the clock used for signing and verification.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStorage) {
		m.now = now
	}
}

// NewMemory creates an empty store. An empty secret is replaced with random bytes,
// which invalidates issued URLs on restart.
func NewMemory(bucket, baseURL string, secret []byte, opts ...MemoryOption) *MemoryStorage {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	m := &MemoryStorage{
		objects: make(map[string]Object),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStorage) Bucket() string {
	return m.bucket
}

// Put reads r fully and stores it under key. Like S3 PutObject, an existing object is overwritten.
func (m *MemoryStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("read object body: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = Object{Data: data, ContentType: opt.ContentType}
	m.mu.Unlock()

	sum := sha256.Sum256(data)
	return ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:16]),
		ContentType: opt.ContentType,
		URL:         m.baseURL + BlobPathPrefix + escapeKey(key),
	}, nil
}

// PresignGet signs key with an absolute expiry of now+expiry.
func (m *MemoryStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	expiresAt := m.now().Add(expiry).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expiresAt, 10))
	q.Set("signature", m.sign(key, expiresAt))
	return m.baseURL + BlobPathPrefix + escapeKey(key) + "?" + q.Encode(), nil
}

// Open verifies a signed request and returns a copy of the object.
// A URL is valid up to and including its expiry second.
func (m *MemoryStorage) Open(key string, expiresAt int64, signature string) (Object, error) {
	if !hmac.Equal([]byte(signature), []byte(m.sign(key, expiresAt))) {
		return Object{}, ErrInvalidSignature
	}
	if m.now().Unix() > expiresAt {
		return Object{}, ErrURLExpired
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return Object{Data: bytes.Clone(obj.Data), ContentType: obj.ContentType}, nil
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStorage) sign(key string, expiresAt int64) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte("GET\n"))
	mac.Write([]byte(key))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(expiresAt, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// UnescapeKey reverses the per-segment escaping applied to keys in memory URLs.
func UnescapeKey(escaped string) (string, error) {
	parts := strings.Split(escaped, "/")
	for i, p := range parts {
		s, err := url.PathUnescape(p)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, "/"), nil
}
