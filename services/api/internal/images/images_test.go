package images

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func TestUploadBase64(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	u := &Uploader{Store: store, PublicURL: "https://cdn.example.com/"}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	url, err := u.UploadBase64(context.Background(), payload, "PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/reports/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	key := strings.TrimPrefix(url, "https://cdn.example.com/")
	assert.Equal(t, []byte("png-bytes"), store.objects[key])
	assert.Equal(t, "image/png", store.types[key])
}

func TestUploadBase64_Failures(t *testing.T) {
	t.Parallel()

	u := &Uploader{Store: &memStore{}, PublicURL: "http://x"}
	_, err := u.UploadBase64(context.Background(), "   ", "jpg")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = u.UploadBase64(context.Background(), "!!not base64!!", "jpg")
	assert.Error(t, err)

	boom := errors.New("bucket gone")
	u = &Uploader{Store: &memStore{err: boom}, PublicURL: "http://x"}
	_, err = u.UploadBase64(context.Background(), base64.StdEncoding.EncodeToString([]byte("x")), "jpg")
	assert.ErrorIs(t, err, boom)
}

func TestExtensionAndContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jpg", Extension(""))
	assert.Equal(t, "jpg", Extension("../etc"))
	assert.Equal(t, "webp", Extension(".WEBP"))
	assert.Equal(t, "image/jpeg", ContentType("jpeg"))
	assert.Equal(t, "image/svg+xml", ContentType("svg"))
	assert.Equal(t, "image/tiff", ContentType("tiff"))
	assert.Equal(t, "https://minio:9000/reports", DefaultPublicURL("minio:9000", "reports", true))
}

func TestDecodeBase64_Unpadded(t *testing.T) {
	t.Parallel()

	raw := base64.RawStdEncoding.EncodeToString([]byte("ab"))
	got, err := DecodeBase64(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), got)
}

func TestMinioStore_Put(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT is not set")
	}
	ctx := context.Background()
	store, err := NewMinioStore(ctx, endpoint, os.Getenv("MINIO_TEST_ACCESS_KEY"), os.Getenv("MINIO_TEST_SECRET_KEY"), "civic-test", false)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "reports/test.txt", []byte("hi"), "text/plain"))
}
