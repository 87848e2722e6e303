package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

var ErrRequestFailed = errors.New("storage request failed")

// Bucket talks to one public bucket of the object store.
type Bucket struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *http.Client
}

func NewBucket(baseURL, key, bucket string) *Bucket {
	return &Bucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (b *Bucket) objectURL(path string) string {
	return fmt.Sprintf("%s/object/%s/%s", b.baseURL, b.bucket, escapePath(path))
}

// PublicURL is the unauthenticated address of path.
func (b *Bucket) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.baseURL, b.bucket, escapePath(path))
}

// PathFromURL reverses PublicURL. URLs from another bucket or host report false.
func (b *Bucket) PathFromURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/object/public/%s/", b.baseURL, b.bucket)
	if publicURL == "" || !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	path, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

func (b *Bucket) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.key)
	req.Header.Set("apikey", b.key)
}

// Upload writes body at path and returns its public URL. An existing object
// is not overwritten.
func (b *Bucket) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "storage"),
		zap.String("method", "Upload"),
		zap.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.objectURL(path), body)
	if err != nil {
		return "", err
	}
	b.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	if err := b.do(req); err != nil {
		log.Error("upload failed", zap.Error(err))
		return "", err
	}

	log.Info("object uploaded")
	return b.PublicURL(path), nil
}

func (b *Bucket) Remove(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.objectURL(path), nil)
	if err != nil {
		return err
	}
	b.authorize(req)

	if err := b.do(req); err != nil {
		logger.FromCtx(ctx).Warn("remove failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func (b *Bucket) do(req *http.Request) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
