package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/quantara/paramvec"
	"github.com/quantara/paramvec/blobstore"
	"github.com/quantara/paramvec/codec"
	"github.com/quantara/paramvec/member"
)

type options struct {
	codec       codec.Codec
	compression string
	modelOpts   []paramvec.Option
	logger      *paramvec.Logger
	metrics     paramvec.MetricsCollector
}

func defaultOptions() options {
	return options{
		codec:       codec.Default,
		compression: CompressionZstd,
		logger:      paramvec.NoopLogger(),
		metrics:     paramvec.NoopMetricsCollector{},
	}
}

// Option configures Save and Load.
type Option func(*options)

// WithCodec sets the record codec for newly written snapshots. Existing
// files are opened with the codec their header names.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the payload compression for newly written snapshots
// ("zstd", "lz4" or "none"). The default is zstd.
func WithCompression(name string) Option {
	return func(o *options) {
		o.compression = name
	}
}

// WithModelOptions sets the construction options for models built by Load.
func WithModelOptions(optFns ...paramvec.Option) Option {
	return func(o *options) {
		o.modelOpts = optFns
	}
}

// WithLogger sets the logger for save/load diagnostics.
func WithLogger(l *paramvec.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector for save/load instrumentation.
func WithMetrics(c paramvec.MetricsCollector) Option {
	return func(o *options) {
		if c != nil {
			o.metrics = c
		}
	}
}

// Save writes a snapshot of m to w. The model is reconciled first, so the
// persisted store and descriptors are exactly consistent.
func Save(w io.Writer, m *paramvec.Model, optFns ...Option) error {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	n, err := save(w, m, opts)
	opts.metrics.RecordSnapshot("save", n, time.Since(start), err)
	opts.logger.LogSnapshot("save", n, err)
	return err
}

func save(w io.Writer, m *paramvec.Model, opts options) (int, error) {
	v, err := m.ToVector()
	if err != nil {
		return 0, fmt.Errorf("reconcile model: %w", err)
	}

	rec := modelRecord{
		Labels:   m.Labels(),
		Paramvec: v,
	}
	for _, label := range rec.Labels {
		mm, ok := m.Member(label)
		if !ok {
			return 0, fmt.Errorf("%w: %q", paramvec.ErrUnknownLabel, label)
		}
		mrec, err := encodeMember(mm)
		if err != nil {
			return 0, fmt.Errorf("encode %q: %w", label, err)
		}
		rec.Members = append(rec.Members, mrec)
	}

	payload, err := opts.codec.Marshal(&rec)
	if err != nil {
		return 0, fmt.Errorf("marshal records: %w", err)
	}

	// Everything up to the footer runs through the checksum; the footer is
	// the checksum itself.
	cw := newChecksumWriter(w)
	if err := writeHeader(cw, opts.codec.Name(), opts.compression); err != nil {
		return cw.BytesWritten(), err
	}
	comp, err := newCompressor(opts.compression, cw)
	if err != nil {
		return cw.BytesWritten(), err
	}
	if _, err := comp.Write(payload); err != nil {
		return cw.BytesWritten(), err
	}
	if err := comp.Close(); err != nil {
		return cw.BytesWritten(), err
	}
	if err := binary.Write(w, binary.LittleEndian, cw.Sum()); err != nil {
		return cw.BytesWritten(), err
	}
	return cw.BytesWritten() + 4, nil
}

// Load reads a snapshot and reconstructs the model: members bottom-up,
// parents relinked top-down, descriptors and store restored verbatim.
func Load(r io.Reader, optFns ...Option) (*paramvec.Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	m, n, err := load(r, opts)
	opts.metrics.RecordSnapshot("load", n, time.Since(start), err)
	opts.logger.LogSnapshot("load", n, err)
	return m, err
}

func load(r io.Reader, opts options) (*paramvec.Model, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 4 {
		return nil, len(data), ErrTruncated
	}
	body, footer := data[:len(data)-4], data[len(data)-4:]
	expected := binary.LittleEndian.Uint32(footer)
	if actual := crc32.ChecksumIEEE(body); actual != expected {
		return nil, len(data), &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	br := bytes.NewReader(body)
	codecName, compressionName, err := readHeader(br)
	if err != nil {
		return nil, len(data), err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, len(data), fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	dec, err := newDecompressor(compressionName, br)
	if err != nil {
		return nil, len(data), err
	}
	defer dec.Close()

	payload, err := io.ReadAll(dec)
	if err != nil {
		return nil, len(data), fmt.Errorf("decompress: %w", err)
	}
	var rec modelRecord
	if err := c.Unmarshal(payload, &rec); err != nil {
		return nil, len(data), fmt.Errorf("unmarshal records: %w", err)
	}
	if len(rec.Labels) != len(rec.Members) {
		return nil, len(data), fmt.Errorf("%w: %d labels, %d members", ErrTruncated, len(rec.Labels), len(rec.Members))
	}

	m := paramvec.New(opts.modelOpts...)
	for i, label := range rec.Labels {
		mm, err := decodeMember(rec.Members[i])
		if err != nil {
			return nil, len(data), fmt.Errorf("decode %q: %w", label, err)
		}
		if err := m.Register(label, mm); err != nil {
			return nil, len(data), err
		}
	}
	m.RestoreVector(rec.Paramvec)
	if err := m.RelinkMembers(); err != nil {
		return nil, len(data), err
	}
	for _, label := range m.Labels() {
		mm, _ := m.Member(label)
		member.ClearDirtyTree(mm)
	}
	return m, len(data), nil
}

// SaveFile writes a snapshot to path, replacing it atomically.
func SaveFile(path string, m *paramvec.Model, optFns ...Option) error {
	// Same directory as the target so the rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snap-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Save(tmp, m, optFns...); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFile reads a snapshot from path.
func LoadFile(path string, optFns ...Option) (*paramvec.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, optFns...)
}

// Put writes a snapshot to a blob store under name.
func Put(ctx context.Context, store blobstore.Store, name string, m *paramvec.Model, optFns ...Option) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if err := Save(w, m, optFns...); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Fetch reads a snapshot from a blob store.
func Fetch(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*paramvec.Model, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Load(r, optFns...)
}
