package gcsuploader

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrObjectTooLarge is returned when a stored statement exceeds the client's limit.
var ErrObjectTooLarge = errors.New("statement object exceeds size limit")

// FetchFromGCS reads the whole statement at gcsURI into memory.
func (c *Client) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectName, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	r, err := c.storage.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: open %s: %w", gcsURI, err)
	}
	defer r.Close()

	data, err := readLimited(r, c.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: read %s: %w", gcsURI, err)
	}
	return data, nil
}

// readLimited reads r fully, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}
