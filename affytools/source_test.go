package affytools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceText = "M1 P1 AA\nM1 P2 AB\nM2 P1 BB\n"

func gzipBytes(t *testing.T, str string) []byte {

	var buf bytes.Buffer
	zpr := pgzip.NewWriter(&buf)
	_, err := zpr.Write([]byte(str))
	require.NoError(t, err)
	require.NoError(t, zpr.Close())

	return buf.Bytes()
}

func zstdBytes(t *testing.T, str string) []byte {

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(str))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	return buf.Bytes()
}

func lz4Bytes(t *testing.T, str string) []byte {

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte(str))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestNewSourceEncodings(t *testing.T) {

	tests := []struct {
		name     string
		data     []byte
		encoding Encoding
	}{
		{"plain", []byte(sourceText), PLAINTEXT},
		{"gzip", gzipBytes(t, sourceText), GZIP},
		{"zstd", zstdBytes(t, sourceText), ZSTD},
		{"lz4", lz4Bytes(t, sourceText), LZ4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {

			src, err := NewSource(test.name, bytes.NewReader(test.data))
			require.NoError(t, err)
			defer src.Close()

			assert.Equal(t, test.encoding, src.Encoding)

			byt, err := io.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, sourceText, string(byt))
		})
	}
}

func TestNewSourceShortInput(t *testing.T) {

	for _, str := range []string{"", "x", "\x1f"} {
		src, err := NewSource("short", strings.NewReader(str))
		require.NoError(t, err)
		assert.Equal(t, PLAINTEXT, src.Encoding)

		byt, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, str, string(byt))
		assert.NoError(t, src.Close())
	}
}

func TestDetectEncoding(t *testing.T) {

	assert.Equal(t, GZIP, DetectEncoding([]byte{0x1f, 0x8b, 0x08, 0x00}))
	assert.Equal(t, ZSTD, DetectEncoding([]byte{0x28, 0xb5, 0x2f, 0xfd}))
	assert.Equal(t, LZ4, DetectEncoding([]byte{0x04, 0x22, 0x4d, 0x18}))
	assert.Equal(t, PLAINTEXT, DetectEncoding([]byte("rs12")))
	assert.Equal(t, PLAINTEXT, DetectEncoding(nil))
}

// manyCalls returns a tall table large enough to span several compressed blocks
func manyCalls(lines int) string {

	var buffer strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&buffer, "SNP_A-%d NA%05d %s\n", i, i%997, []string{"AA", "AB", "BB"}[i%3])
	}

	return buffer.String()
}

func readSource(t *testing.T, name string, data []byte) (string, error) {

	src, err := NewSource(name, bytes.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	byt, err := io.ReadAll(src)

	return string(byt), err
}

func TestCompressedCutInsideBlockIsFatal(t *testing.T) {

	body := manyCalls(50000)

	packed := map[string][]byte{
		"gzip": gzipBytes(t, body),
		"zstd": zstdBytes(t, body),
		"lz4":  lz4Bytes(t, body),
	}

	for name, data := range packed {
		for _, frac := range []int{2, 3, 5, 7} {
			cut := data[:len(data)/frac]

			text, err := readSource(t, name, cut)
			require.Error(t, err, "%s cut at 1/%d", name, frac)
			assert.False(t, IsBenignTruncation(err), "%s cut at 1/%d", name, frac)
			assert.Less(t, len(text), len(body))
		}
	}

	_, err := readSource(t, "gzip", gzipBytes(t, body)[:len(gzipBytes(t, body))/2])
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestGzipCutInsideTrailerIsBenign(t *testing.T) {

	data := gzipBytes(t, sourceText)

	// any part of the eight-byte trailer may be missing
	for missing := 1; missing <= 8; missing++ {
		text, err := readSource(t, "cut.gz", data[:len(data)-missing])
		require.ErrorIs(t, err, ErrTruncatedTrailer, "missing %d", missing)
		assert.True(t, IsBenignTruncation(err))
		assert.Equal(t, sourceText, text)
	}
}

func TestGzipCorruptTrailerIsBenign(t *testing.T) {

	data := gzipBytes(t, sourceText)
	data[len(data)-8] ^= 0xff

	text, err := readSource(t, "crc.gz", data)
	require.ErrorIs(t, err, ErrCorruptTrailer)
	assert.True(t, IsBenignTruncation(err))
	assert.Equal(t, sourceText, text)
}

func TestGzipMembersAndHeaderFields(t *testing.T) {

	var buf bytes.Buffer
	zpr := pgzip.NewWriter(&buf)
	zpr.Name = "calls.txt"
	zpr.Comment = "first batch"
	zpr.Extra = []byte{'A', 'F', 2, 0, 'g', 't'}
	_, err := zpr.Write([]byte("M1 P1 AA\n"))
	require.NoError(t, err)
	require.NoError(t, zpr.Close())

	// a second member is read as a continuation
	buf.Write(gzipBytes(t, "M2 P1 AB\n"))

	text, err := readSource(t, "members.gz", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "M1 P1 AA\nM2 P1 AB\n", text)
}

func TestGzipHeaderCutShort(t *testing.T) {

	data := gzipBytes(t, sourceText)

	_, err := NewSource("header.gz", bytes.NewReader(data[:6]))
	require.ErrorIs(t, err, ErrGzipHeader)
	assert.False(t, IsBenignTruncation(err))
}

func TestIsBenignTruncation(t *testing.T) {

	assert.True(t, IsBenignTruncation(ErrTruncatedTrailer))
	assert.True(t, IsBenignTruncation(fmt.Errorf("reading x: %w", ErrCorruptTrailer)))
	assert.False(t, IsBenignTruncation(io.ErrUnexpectedEOF))
	assert.False(t, IsBenignTruncation(nil))
	assert.False(t, IsBenignTruncation(io.EOF))
	assert.False(t, IsBenignTruncation(ErrGzipHeader))
}

// closeCounter records Close calls on the underlying stream
type closeCounter struct {
	io.Reader
	closed int
}

func (cc *closeCounter) Close() error {

	cc.closed++
	return nil
}

func TestSourceClosesUnderlyingStream(t *testing.T) {

	cc := &closeCounter{Reader: bytes.NewReader(gzipBytes(t, sourceText))}

	src, err := NewSource("counted", cc)
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	assert.Equal(t, 1, cc.closed)
}

func TestOpenSourceFiles(t *testing.T) {

	dir := t.TempDir()
	cfg := DefaultConfig()

	plain := filepath.Join(dir, "calls.txt")
	require.NoError(t, os.WriteFile(plain, []byte(sourceText), 0o644))

	packed := filepath.Join(dir, "calls.txt.gz")
	require.NoError(t, os.WriteFile(packed, gzipBytes(t, sourceText), 0o644))

	for _, name := range []string{plain, packed} {
		src, err := OpenSource(context.Background(), name, cfg)
		require.NoError(t, err)

		byt, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, sourceText, string(byt))
		assert.Equal(t, name, src.Name)
		require.NoError(t, src.Close())
	}

	_, err := OpenSource(context.Background(), filepath.Join(dir, "absent.txt"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	_, err = OpenSource(context.Background(), "s3://bucket-only", cfg)
	assert.Error(t, err)
}
