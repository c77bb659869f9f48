// Package gcsuploader stores statement exports in Google Cloud Storage.
package gcsuploader

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/bill-reconciler/internal/gcs"
)

// Client implements gcs.StorageService over one shared storage client.
// It assumes Application Default Credentials are configured.
type Client struct {
	storage  *storage.Client
	maxBytes int64
}

// NewClient opens a storage client. Downloads larger than maxBytes are
// rejected; zero or less disables the limit.
func NewClient(ctx context.Context, maxBytes int64) (*Client, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewClient: create storage client: %w", err)
	}
	return &Client{storage: sc, maxBytes: maxBytes}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.storage.Close()
}

// ExtractFilenameFromGCSURI delegates to the package-level function.
func (c *Client) ExtractFilenameFromGCSURI(uri string) string {
	return ExtractFilenameFromGCSURI(uri)
}

var _ gcs.StorageService = (*Client)(nil)
