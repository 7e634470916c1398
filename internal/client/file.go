package client

import (
	"context"
	"encoding/base64"
	"strings"
)

// File is a user-selected file. Read may block on I/O.
type File interface {
	Name() string
	// ContentType is the declared MIME type; empty when unknown.
	ContentType() string
	Read(ctx context.Context) ([]byte, error)
}

// EncodeDataURI renders bytes the way a browser's readAsDataURL does:
// declared type (parameters dropped), else application/octet-stream.
func EncodeDataURI(contentType string, data []byte) string {
	mimeType, _, _ := strings.Cut(contentType, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsImageDataURI reports whether uri declares an image MIME type.
func IsImageDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:image/")
}

// BytesFile is an in-memory File.
type BytesFile struct {
	FileName string
	Type     string
	Data     []byte
}

func (f BytesFile) Name() string        { return f.FileName }
func (f BytesFile) ContentType() string { return f.Type }

func (f BytesFile) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Data, nil
}
