package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func signedParts(t *testing.T, raw string) (key string, expires int64, signature string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.EscapedPath(), BlobPathPrefix))

	key, err = UnescapeKey(strings.TrimPrefix(u.EscapedPath(), BlobPathPrefix))
	require.NoError(t, err)
	expires, err = strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	return key, expires, u.Query().Get("signature")
}

func TestMemoryStorage_PutAndOpen(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	st := NewMemory("local", "http://localhost:8080/", []byte("secret"), WithMemoryClock(clock.Now))
	ctx := context.Background()

	info, err := st.Put(ctx, "u1/report final.pdf", strings.NewReader("%PDF-1.4"), PutObjectOptions{Size: 8, ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "http://localhost:8080/blobs/u1/report%20final.pdf", info.URL)
	assert.Equal(t, 1, st.Len())

	raw, err := st.PresignGet(ctx, "u1/report final.pdf", 120*time.Second)
	require.NoError(t, err)
	key, expires, sig := signedParts(t, raw)
	assert.Equal(t, "u1/report final.pdf", key)
	assert.Equal(t, clock.now.Add(120*time.Second).Unix(), expires)

	obj, err := st.Open(key, expires, sig)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(obj.Data))
	assert.Equal(t, "application/pdf", obj.ContentType)
}

func TestMemoryStorage_Expiry(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	st := NewMemory("local", "http://localhost:8080", []byte("secret"), WithMemoryClock(clock.Now))
	ctx := context.Background()

	_, err := st.Put(ctx, "u1/a.png", strings.NewReader("png"), PutObjectOptions{Size: 3, ContentType: "image/png"})
	require.NoError(t, err)
	raw, err := st.PresignGet(ctx, "u1/a.png", 120*time.Second)
	require.NoError(t, err)
	key, expires, sig := signedParts(t, raw)

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "at 119s", elapsed: 119 * time.Second},
		{name: "at 120s", elapsed: 120 * time.Second},
		{name: "at 121s", elapsed: 121 * time.Second, wantErr: ErrURLExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = start.Add(tt.elapsed)
			_, err := st.Open(key, expires, sig)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStorage_Tampering(t *testing.T) {
	st := NewMemory("local", "http://localhost:8080", []byte("secret"))
	ctx := context.Background()

	_, err := st.Put(ctx, "u1/a.png", strings.NewReader("png"), PutObjectOptions{Size: 3})
	require.NoError(t, err)
	raw, err := st.PresignGet(ctx, "u1/a.png", time.Minute)
	require.NoError(t, err)
	key, expires, sig := signedParts(t, raw)

	_, err = st.Open("u2/a.png", expires, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = st.Open(key, expires+3600, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	flipped := []byte(sig)
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}
	_, err = st.Open(key, expires, string(flipped))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	other := NewMemory("local", "http://localhost:8080", []byte("other"))
	_, err = other.Open(key, expires, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMemoryStorage_OpenMissing(t *testing.T) {
	st := NewMemory("local", "http://localhost:8080", []byte("secret"))
	raw, err := st.PresignGet(context.Background(), "u1/never-written", time.Minute)
	require.NoError(t, err)
	key, expires, sig := signedParts(t, raw)

	_, err = st.Open(key, expires, sig)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStorage_CanceledContext(t *testing.T) {
	st := NewMemory("local", "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Put(ctx, "k", strings.NewReader("x"), PutObjectOptions{Size: 1})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = st.PresignGet(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Len())
}

func TestMemoryStorage_PutOverwrites(t *testing.T) {
	st := NewMemory("local", "http://localhost:8080", []byte("secret"))
	ctx := context.Background()

	_, err := st.Put(ctx, "u1/a.png", strings.NewReader("old"), PutObjectOptions{Size: 3, ContentType: "image/png"})
	require.NoError(t, err)
	_, err = st.Put(ctx, "u1/a.png", strings.NewReader("newer"), PutObjectOptions{Size: 5, ContentType: "image/gif"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())

	raw, err := st.PresignGet(ctx, "u1/a.png", time.Minute)
	require.NoError(t, err)
	obj, err := st.Open(signedParts(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "newer", string(obj.Data))
	assert.Equal(t, "image/gif", obj.ContentType)
}
