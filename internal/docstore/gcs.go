package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/datakeep/apiserver/config"
	"github.com/datakeep/apiserver/internal/store"
	"github.com/datakeep/apiserver/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSBackend stores each record as a JSON object in a Google Cloud Storage
// bucket, keyed by the record id.
type GCSBackend struct {
	client    *gcs.Client
	bucket    string
	projectID string
}

// NewGCSBackend constructs a GCS-backed record store from config.
func NewGCSBackend(ctx context.Context, cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client:    client,
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (g *GCSBackend) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Insert writes the record with a does-not-exist precondition, so a
// duplicate id is rejected by the bucket itself rather than by a racy
// check-then-put.
func (g *GCSBackend) Insert(ctx context.Context, record types.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	object := g.client.Bucket(g.bucket).Object(record.ID).If(gcs.Conditions{DoesNotExist: true})
	writer := object.NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		// The precondition failure can surface on Write for payloads
		// larger than the writer's buffer, not just on Close.
		_ = writer.Close()
		return preconditionToConflict(err)
	}
	if err := writer.Close(); err != nil {
		return preconditionToConflict(err)
	}
	return nil
}

// preconditionToConflict maps a failed DoesNotExist precondition to
// store.ErrConflict; anything else passes through unchanged.
func preconditionToConflict(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
		return store.ErrConflict
	}
	return err
}

// FindByID downloads and decodes the record stored under the id. A missing
// object yields an empty slice, not an error.
func (g *GCSBackend) FindByID(ctx context.Context, id string) ([]types.Record, error) {
	reader, err := g.client.Bucket(g.bucket).Object(id).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return []types.Record{}, nil
		}
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var record types.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return []types.Record{record}, nil
}
