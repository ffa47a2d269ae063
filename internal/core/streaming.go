package core

// streaming.go prepares uploaded bytes for the tokenizer.
//
// Exports arrive from Windows tools with a BOM, occasionally as UTF-16, and
// sometimes with stray invalid bytes. The decode chain strips or honours
// the BOM and replaces ill-formed UTF-8 with U+FFFD, so the tokenizer only
// ever sees valid UTF-8 text.

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file exceeds maximum import size")

// CountingReader tracks bytes read from the underlying reader.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// NewImportDecoder returns a reader yielding valid UTF-8 with any leading
// BOM removed. A UTF-16 BOM switches decoding to UTF-16.
func NewImportDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadImport reads at most maxBytes of raw input and returns it decoded.
// The raw byte count is returned for metrics. A maxBytes of zero or less
// disables the limit.
func ReadImport(r io.Reader, maxBytes int64) (string, int64, error) {
	counter := NewCountingReader(r)

	var src io.Reader = counter
	if maxBytes > 0 {
		src = io.LimitReader(counter, maxBytes+1)
	}

	data, err := io.ReadAll(NewImportDecoder(src))
	if err != nil {
		return "", counter.BytesRead, fmt.Errorf("read import: %w", err)
	}
	if maxBytes > 0 && counter.BytesRead > maxBytes {
		return "", counter.BytesRead, fmt.Errorf("%w (%d bytes max)", ErrFileTooLarge, maxBytes)
	}

	return string(data), counter.BytesRead, nil
}
