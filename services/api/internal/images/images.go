package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const folder = "reports"

var ErrEmptyImage = errors.New("decoded image is empty")

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Uploader turns a base64 payload into a stored object and returns its public URL.
type Uploader struct {
	Store     ObjectStore
	PublicURL string
}

// DefaultPublicURL is the path-style URL of a bucket on the given endpoint.
func DefaultPublicURL(endpoint, bucket string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(endpoint, "/"), bucket)
}

func (u *Uploader) UploadBase64(ctx context.Context, payload, ext string) (string, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return "", err
	}
	ext = Extension(ext)
	key := fmt.Sprintf("%s/%s.%s", folder, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)

	if err := u.Store.Put(ctx, key, data, ContentType(ext)); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return strings.TrimRight(u.PublicURL, "/") + "/" + key, nil
}

// DecodeBase64 accepts raw base64 or a data URL.
func DecodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if _, after, ok := strings.Cut(payload, "base64,"); ok {
		payload = after
	}
	if payload == "" {
		return nil, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decode base64 image: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// Extension normalizes a client supplied image type; unknown or unsafe
// values fall back to jpg.
func Extension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || len(ext) > 10 {
		return "jpg"
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "jpg"
		}
	}
	return ext
}

func ContentType(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "image/" + ext
}
