// ===========================================================================
//
// File Name:  source.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Encoding names the decoder chosen for a source
type Encoding string

// Encodings recognized by their leading magic bytes
const (
	PLAINTEXT Encoding = "text"
	GZIP      Encoding = "gzip"
	ZSTD      Encoding = "zstd"
	LZ4       Encoding = "lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Source is one decoded input stream
type Source struct {
	Name     string
	Encoding Encoding

	rdr     io.Reader
	closers []io.Closer
}

// Read returns decoded text
func (src *Source) Read(p []byte) (int, error) {

	return src.rdr.Read(p)
}

// Close releases decoders first, then the underlying stream
func (src *Source) Close() error {

	var err error
	for _, c := range src.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	src.closers = nil

	return err
}

type closerFunc func() error

func (fn closerFunc) Close() error {

	return fn()
}

// DetectEncoding identifies a compressed stream from its leading bytes
func DetectEncoding(magic []byte) Encoding {

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		return GZIP
	case bytes.HasPrefix(magic, zstdMagic):
		return ZSTD
	case bytes.HasPrefix(magic, lz4Magic):
		return LZ4
	}

	return PLAINTEXT
}

// NewSource wraps inp with a decompressor chosen by magic bytes, falling back
// to plain text when no compression framing is present. The returned source
// closes inp if it is an io.Closer.
func NewSource(name string, inp io.Reader) (*Source, error) {

	src := &Source{Name: name}

	if cls, ok := inp.(io.Closer); ok {
		src.closers = append(src.closers, cls)
	}

	brdr := bufio.NewReaderSize(inp, 65536)

	// a short or empty stream is plain text
	magic, _ := brdr.Peek(4)
	src.Encoding = DetectEncoding(magic)

	switch src.Encoding {
	case GZIP:
		zrdr, err := newGzipReader(brdr)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("unable to decompress '%s': %w", name, err)
		}
		src.rdr = zrdr
		src.closers = append([]io.Closer{zrdr}, src.closers...)
	case ZSTD:
		zrdr, err := zstd.NewReader(brdr)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("unable to decompress '%s': %w", name, err)
		}
		src.rdr = zrdr
		src.closers = append([]io.Closer{closerFunc(func() error { zrdr.Close(); return nil })}, src.closers...)
	case LZ4:
		src.rdr = lz4.NewReader(brdr)
	default:
		src.rdr = brdr
	}

	return src, nil
}

// IsBenignTruncation reports whether a read error only means a gzip trailer
// is missing, cut short, or does not match. All compressed data was decoded,
// so the source is treated as complete. A stream cut inside a compressed
// block, or any other read error, is fatal.
func IsBenignTruncation(err error) bool {

	return errors.Is(err, ErrTruncatedTrailer) || errors.Is(err, ErrCorruptTrailer)
}

// OpenSource opens "-" as stdin, s3://bucket/key through the S3 API, and
// anything else as a local file, then decodes it
func OpenSource(ctx context.Context, name string, cfg *Config) (*Source, error) {

	if name == "-" {
		return NewSource("stdin", io.NopCloser(os.Stdin))
	}

	if strings.HasPrefix(name, S3Scheme) {
		bucket, key, err := ParseS3URL(name)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("unable to create S3 client for '%s': %w", name, err)
		}
		body, err := OpenS3Object(ctx, client, bucket, key)
		if err != nil {
			return nil, err
		}
		return NewSource(name, body)
	}

	inFile, err := os.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found '%s'", name)
		}
		return nil, fmt.Errorf("unable to open '%s': %w", name, err)
	}

	return NewSource(name, inFile)
}
