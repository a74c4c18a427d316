package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/bookstore/backend/config"
)

// DefaultFolder is used when an upload names no folder.
const DefaultFolder = "general"

var ErrStorageDisabled = errors.New("object storage is not configured")

// ObjectStorage is a bucket of publicly readable objects.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Uploader names objects and turns keys into public URLs.
type Uploader struct {
	Storage ObjectStorage
	BaseURL string
	Now     func() time.Time
	NewID   func() string
}

func NewUploader(s ObjectStorage, baseURL string) *Uploader {
	return &Uploader{
		Storage: s,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Now:     time.Now,
		NewID:   func() string { return uuid.New().String() },
	}
}

// ObjectKey builds "<folder>/<unix-millis>-<id>_<name>". Path elements in folder and name are flattened so a
// client cannot write outside its folder.
func ObjectKey(folder, filename string, now time.Time, id string) string {
	folder = strings.Trim(path.Clean("/"+strings.TrimSpace(folder)), "/")
	if folder == "" || folder == "." {
		folder = DefaultFolder
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return fmt.Sprintf("%s/%d-%s_%s", folder, now.UnixMilli(), id, name)
}

// Upload stores body and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, folder, filename string, body io.Reader, size int64, contentType string) (string, error) {
	if u == nil || u.Storage == nil {
		return "", ErrStorageDisabled
	}
	key := ObjectKey(folder, filename, u.Now(), u.NewID())
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := u.Storage.Put(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return u.URL(key), nil
}

func (u *Uploader) URL(key string) string {
	return u.BaseURL + "/" + key
}

// KeyFromURL returns the object key behind a URL this uploader produced. ok is false for foreign URLs, such as
// banner links pasted by hand.
func (u *Uploader) KeyFromURL(url string) (string, bool) {
	if u == nil || u.BaseURL == "" {
		return "", false
	}
	key, found := strings.CutPrefix(url, u.BaseURL+"/")
	if !found || key == "" {
		return "", false
	}
	return key, true
}

// Remove deletes the object behind url when it lives in this bucket and is a no-op otherwise.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	if u == nil || u.Storage == nil {
		return nil
	}
	key, ok := u.KeyFromURL(url)
	if !ok {
		return nil
	}
	return u.Storage.Delete(ctx, key)
}

// PublicBaseURL resolves the URL prefix for stored objects: the explicit setting, else the path-style
// "<endpoint>/<bucket>", else the virtual-hosted AWS form.
func PublicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			scheme := "http"
			if cfg.UseSSL {
				scheme = "https"
			}
			endpoint = scheme + "://" + endpoint
		}
		return strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// NewStorage builds the configured driver. It returns a nil storage without error when no bucket is set.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	switch cfg.Driver {
	case config.DriverMinio:
		return NewMinioStorage(ctx, cfg)
	case config.DriverS3, "":
		return NewS3Storage(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
