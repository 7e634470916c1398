package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrTooLarge is returned when a file exceeds the configured byte cap.
var ErrTooLarge = errors.New("file too large")

// resolveType keeps a specific declared type and sniffs the content otherwise.
func resolveType(declared string, data []byte) string {
	d := strings.ToLower(strings.TrimSpace(declared))
	if d != "" && d != "application/octet-stream" && d != "binary/octet-stream" {
		return declared
	}
	if len(data) == 0 {
		return declared
	}
	return mimetype.Detect(data).String()
}

// readCapped reads r fully, failing once more than max bytes arrive. max <= 0 means no cap.
func readCapped(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, max)
	}
	return data, nil
}
