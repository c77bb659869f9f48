// Package gcs declares where statement exports are parked between an
// asynchronous import request and the worker that reconciles it.
package gcs

import "context"

// StorageService stores and retrieves raw statement exports by gs:// URI.
type StorageService interface {
	// UploadBytes stores a statement under bucket/object and returns its URI.
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte) (string, error)

	// FetchFromGCS returns the statement stored at gcsURI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// ExtractFilenameFromGCSURI returns the last path element of gcsURI.
	ExtractFilenameFromGCSURI(uri string) string
}
