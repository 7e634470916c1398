package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/image-identifier/internal/client"
)

// Scheme prefixes object references, e.g. minio://photos/dog.png.
const Scheme = "minio://"

// MinioSource opens objects of one bucket as client.File. It never writes.
type MinioSource struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

// New buat koneksi MinIO (read-only)
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, maxBytes int64) (*MinioSource, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// bucket harus sudah ada, source ini tidak membuatnya
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &MinioSource{client: cli, bucket: bucket, maxBytes: maxBytes}, nil
}

// ParseRef returns the object key of a minio:// reference.
func ParseRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, Scheme) {
		return "", false
	}
	key := strings.TrimLeft(strings.TrimPrefix(ref, Scheme), "/")
	return key, key != ""
}

// Open stats the object and returns a lazily-read file.
func (s *MinioSource) Open(ctx context.Context, key string) (client.File, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("stat %s/%s: %w", s.bucket, key, err)
	}
	if s.maxBytes > 0 && info.Size > s.maxBytes {
		return nil, fmt.Errorf("%s/%s: %w: %d bytes", s.bucket, key, ErrTooLarge, info.Size)
	}
	return &objectFile{src: s, key: key, declared: info.ContentType}, nil
}

type objectFile struct {
	src      *MinioSource
	key      string
	declared string
	resolved string
}

func (f *objectFile) Name() string { return path.Base(f.key) }

func (f *objectFile) ContentType() string {
	if f.resolved != "" {
		return f.resolved
	}
	return f.declared
}

func (f *objectFile) Read(ctx context.Context) ([]byte, error) {
	obj, err := f.src.client.GetObject(ctx, f.src.bucket, f.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", f.key, err)
	}
	defer obj.Close()

	data, err := readCapped(obj, f.src.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.key, err)
	}
	f.resolved = resolveType(f.declared, data)
	return data, nil
}
