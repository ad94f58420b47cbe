package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

const (
	// Magic identifies snapshot files (ASCII: "PVC1").
	Magic = 0x50564331
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	maxNameLen = 255
)

var (
	ErrInvalidMagic      = errors.New("invalid magic number")
	ErrInvalidVersion    = errors.New("unsupported version")
	ErrTruncated         = errors.New("truncated snapshot")
	ErrUnknownCodec      = errors.New("unknown codec")
	ErrUnknownKind       = errors.New("unknown member kind")
	ErrUnsupportedMember = errors.New("member does not support snapshots")
)

// writeHeader writes the self-describing file header: magic, version, then
// the codec and compression names as length-prefixed strings.
func writeHeader(w io.Writer, codecName, compressionName string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(Magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(Version)); err != nil {
		return err
	}
	if err := writeName(w, codecName); err != nil {
		return err
	}
	return writeName(w, compressionName)
}

// readHeader parses the header and returns the codec and compression names.
func readHeader(r io.Reader) (codecName, compressionName string, err error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if magic != Magic {
		return "", "", fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	if version != Version {
		return "", "", fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, version)
	}
	if codecName, err = readName(r); err != nil {
		return "", "", err
	}
	if compressionName, err = readName(r); err != nil {
		return "", "", err
	}
	return codecName, compressionName, nil
}

func writeName(w io.Writer, name string) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("name too long: %q", name)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(len(name))); err != nil {
		return err
	}
	_, err := w.Write([]byte(name))
	return err
}

func readName(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return string(buf), nil
}

// checksumWriter wraps an io.Writer and computes a running CRC32 (IEEE)
// checksum of everything written through it. CRC32 detects accidental
// corruption only; it is not tamper protection.
type checksumWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{
		w:    w,
		hash: crc32.NewIEEE(),
	}
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	_, _ = cw.hash.Write(p) // never fails
	n, err := cw.w.Write(p)
	cw.n += n
	return n, err
}

// BytesWritten returns the number of bytes passed through to the underlying
// writer, not counting the footer.
func (cw *checksumWriter) BytesWritten() int {
	return cw.n
}

func (cw *checksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
