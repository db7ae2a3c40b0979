// Package blob stores listing images in Cloud Storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pauljones0/rentacos/internal/util"
)

const publicHost = "https://storage.googleapis.com"

type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCS opens a Cloud Storage client for bucket. A non-empty endpoint points
// the client at an emulator and disables authentication.
func NewGCS(ctx context.Context, bucket, endpoint string) (*GCS, error) {
	var opts []option.ClientOption
	baseURL := publicHost
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
		baseURL = strings.TrimSuffix(endpoint, "/")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCS{client: client, bucket: bucket, baseURL: baseURL}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// Put writes data to path and returns its public URL.
func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", classify(fmt.Errorf("failed to write object %s: %w", path, err))
	}
	if err := w.Close(); err != nil {
		return "", classify(fmt.Errorf("failed to finalize object %s: %w", path, err))
	}
	return PublicURL(g.baseURL, g.bucket, path), nil
}

// classify marks client errors other than rate limiting as permanent so
// callers stop retrying them.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != http.StatusTooManyRequests {
		return util.Permanent(err)
	}
	return err
}

// PublicURL builds the public address of an object.
func PublicURL(base, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), bucket, strings.Join(segments, "/"))
}
