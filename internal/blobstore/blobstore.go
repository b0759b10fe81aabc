// Package blobstore is the avatar storage boundary: bytes in, a
// downloadable URL out.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Uploader stores a blob and returns its download URL.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// GCS uploads blobs to a Google Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCS struct {
	bucket string
	opts   []option.ClientOption
}

// NewGCS creates an uploader for the given bucket.
func NewGCS(bucket string, opts ...option.ClientOption) *GCS {
	return &GCS{bucket: bucket, opts: opts}
}

// Upload implements Uploader. The object is written under the given name
// and its public download URL returned.
func (g *GCS) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if g.bucket == "" {
		return "", fmt.Errorf("upload: no bucket configured")
	}

	client, err := storage.NewClient(ctx, g.opts...)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy blob to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName), nil
}
