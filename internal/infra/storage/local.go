package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/image-identifier/internal/client"
)

var _ client.File = (*LocalFile)(nil)

// LocalFile is a client.File backed by a path on disk.
type LocalFile struct {
	Path     string
	MaxBytes int64

	detected string
}

func NewLocalFile(path string, maxBytes int64) *LocalFile {
	return &LocalFile{Path: path, MaxBytes: maxBytes}
}

func (f *LocalFile) Name() string { return filepath.Base(f.Path) }

// ContentType comes from the extension; after Read it falls back to the sniffed type.
func (f *LocalFile) ContentType() string {
	if t := mime.TypeByExtension(filepath.Ext(f.Path)); t != "" {
		return t
	}
	return f.detected
}

func (f *LocalFile) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer fh.Close()

	data, err := readCapped(fh, f.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	f.detected = resolveType("", data)
	return data, nil
}
