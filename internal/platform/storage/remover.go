package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"

	"github.com/raman-prints/api/internal/services"
)

// Remover deletes uploaded order files from Cloud Storage by their public URL.
type Remover struct {
	client        *gcs.Client
	defaultBucket string
}

// NewRemover constructs a Remover backed by the provided Cloud Storage client.
// defaultBucket is used for bare object paths that carry no bucket information.
func NewRemover(client *gcs.Client, defaultBucket string) (*Remover, error) {
	if client == nil {
		return nil, errors.New("storage remover: client is required")
	}
	return &Remover{client: client, defaultBucket: strings.TrimSpace(defaultBucket)}, nil
}

// Remove deletes the object referenced by fileURL. Deleting an object that no
// longer exists is treated as success so retries stay idempotent.
func (r *Remover) Remove(ctx context.Context, fileURL string) error {
	if r == nil || r.client == nil {
		return errors.New("storage remover: client is not initialised")
	}

	bucket, object, err := parseObjectURL(fileURL, r.defaultBucket)
	if err != nil {
		return err
	}

	if err := r.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("storage remover: delete %s/%s: %w", bucket, object, err)
	}
	return nil
}

// parseObjectURL extracts bucket and object names from gs:// URLs,
// storage.googleapis.com URLs, or bare object paths.
func parseObjectURL(raw, defaultBucket string) (string, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", errors.New("storage remover: file url is empty")
	}

	if strings.HasPrefix(trimmed, "gs://") {
		rest := strings.TrimPrefix(trimmed, "gs://")
		bucket, object, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || object == "" {
			return "", "", fmt.Errorf("storage remover: malformed gs url %q", raw)
		}
		return bucket, object, nil
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", "", fmt.Errorf("storage remover: parse url %q: %w", raw, err)
		}
		path := strings.TrimPrefix(parsed.Path, "/")
		switch parsed.Host {
		case "storage.googleapis.com":
			bucket, object, ok := strings.Cut(path, "/")
			if !ok || bucket == "" || object == "" {
				return "", "", fmt.Errorf("storage remover: malformed storage url %q", raw)
			}
			return bucket, object, nil
		default:
			// Bucket-as-subdomain form, e.g. my-bucket.storage.googleapis.com/object.
			if bucket := strings.TrimSuffix(parsed.Host, ".storage.googleapis.com"); bucket != parsed.Host && bucket != "" && path != "" {
				return bucket, path, nil
			}
			return "", "", fmt.Errorf("storage remover: unsupported host %q", parsed.Host)
		}
	}

	if defaultBucket == "" {
		return "", "", fmt.Errorf("storage remover: no bucket for object path %q", raw)
	}
	return defaultBucket, strings.TrimPrefix(trimmed, "/"), nil
}

// Ensure interface compliance.
var _ services.StoredFileRemover = (*Remover)(nil)
