// ===========================================================================
//
// File Name:  gunzip.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

var (
	// ErrGzipHeader is returned for a gzip member header that is damaged or cut short
	ErrGzipHeader = errors.New("invalid gzip header")

	// ErrTruncatedTrailer means a member's compressed data ended cleanly but
	// its eight-byte trailer is missing or cut short
	ErrTruncatedTrailer = errors.New("truncated gzip trailer")

	// ErrCorruptTrailer means a member's trailer does not match its decompressed data
	ErrCorruptTrailer = errors.New("corrupt gzip trailer")
)

// gzip member header flags
const (
	gzipFlagHCRC    = 1 << 1
	gzipFlagExtra   = 1 << 2
	gzipFlagName    = 1 << 3
	gzipFlagComment = 1 << 4
)

// gzipReader decodes concatenated gzip members. It reads the framing itself
// so a stream cut inside a compressed block (fatal, io.ErrUnexpectedEOF)
// is told apart from one cut inside a trailer (ErrTruncatedTrailer).
type gzipReader struct {
	rdr    *bufio.Reader
	inflt  io.ReadCloser
	digest hash.Hash32
	size   uint32
	err    error
}

// newGzipReader reads the first member header. The bufio.Reader lets the
// inflater stop exactly at the end of each compressed block.
func newGzipReader(rdr *bufio.Reader) (*gzipReader, error) {

	gzr := &gzipReader{rdr: rdr, digest: crc32.NewIEEE()}

	if err := gzr.readHeader(); err != nil {
		return nil, err
	}

	return gzr, nil
}

func (gzr *gzipReader) readHeader() error {

	var hdr [10]byte

	if _, err := io.ReadFull(gzr.rdr, hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrGzipHeader, err)
	}
	if hdr[0] != 0x1f || hdr[1] != 0x8b || hdr[2] != 8 {
		return ErrGzipHeader
	}

	flg := hdr[3]

	if flg&gzipFlagExtra != 0 {
		var xlen [2]byte
		if _, err := io.ReadFull(gzr.rdr, xlen[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrGzipHeader, err)
		}
		if _, err := gzr.rdr.Discard(int(binary.LittleEndian.Uint16(xlen[:]))); err != nil {
			return fmt.Errorf("%w: %v", ErrGzipHeader, err)
		}
	}
	// original file name and comment are zero-terminated
	for _, bit := range []byte{gzipFlagName, gzipFlagComment} {
		if flg&bit == 0 {
			continue
		}
		if _, err := gzr.rdr.ReadBytes(0); err != nil {
			return fmt.Errorf("%w: %v", ErrGzipHeader, err)
		}
	}
	if flg&gzipFlagHCRC != 0 {
		if _, err := gzr.rdr.Discard(2); err != nil {
			return fmt.Errorf("%w: %v", ErrGzipHeader, err)
		}
	}

	gzr.digest.Reset()
	gzr.size = 0

	if gzr.inflt == nil {
		gzr.inflt = flate.NewReader(gzr.rdr)
		return nil
	}

	return gzr.inflt.(flate.Resetter).Reset(gzr.rdr, nil)
}

func (gzr *gzipReader) readTrailer() error {

	var tlr [8]byte

	if _, err := io.ReadFull(gzr.rdr, tlr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncatedTrailer
		}
		return err
	}

	if binary.LittleEndian.Uint32(tlr[0:4]) != gzr.digest.Sum32() ||
		binary.LittleEndian.Uint32(tlr[4:8]) != gzr.size {
		return ErrCorruptTrailer
	}

	return nil
}

// Read returns decompressed bytes, moving on to the next member when one ends
func (gzr *gzipReader) Read(p []byte) (int, error) {

	if gzr.err != nil {
		return 0, gzr.err
	}

	for {
		n, err := gzr.inflt.Read(p)
		gzr.digest.Write(p[:n])
		gzr.size += uint32(n)

		if err == nil {
			return n, nil
		}
		if err != io.EOF {
			// cut or damaged inside a compressed block
			gzr.err = err
			return n, err
		}

		if err := gzr.readTrailer(); err != nil {
			gzr.err = err
			return n, err
		}

		// another member may follow
		if _, err := gzr.rdr.Peek(1); err != nil {
			gzr.err = err
			return n, err
		}
		if err := gzr.readHeader(); err != nil {
			gzr.err = err
			return n, err
		}

		if n > 0 {
			return n, nil
		}
	}
}

// Close releases the inflater, not the underlying stream
func (gzr *gzipReader) Close() error {

	return gzr.inflt.Close()
}
