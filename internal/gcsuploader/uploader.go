package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

const (
	uploadTimeout      = 2 * time.Minute
	statementPrefix    = "statements"
	statementMediaType = "text/csv"
)

// UploadBytes stores an in-memory statement and returns its gs:// URI.
func (c *Client) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.storage.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = statementMediaType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadBytes: copy to %s/%s: %w", bucketName, objectName, err)
	}
	// The object only exists once Close succeeds.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadBytes: finalize %s/%s: %w", bucketName, objectName, err)
	}
	return BuildGCSURI(bucketName, objectName), nil
}

// StatementObjectName places an upload under statements/<yyyy-mm>/<importID>/.
func StatementObjectName(importID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "statement.csv"
	}
	return path.Join(statementPrefix, at.UTC().Format("2006-01"), importID, name)
}

// BuildGCSURI joins a bucket and object into a gs:// URI.
func BuildGCSURI(bucketName, objectName string) string {
	return "gs://" + bucketName + "/" + objectName
}

// ParseGCSURI splits gs://bucket/path/to/object into its bucket and object path.
func ParseGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/december.csv" → "december.csv"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}

	return path.Base(parts[1])
}
