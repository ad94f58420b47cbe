package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantara/paramvec"
	"github.com/quantara/paramvec/blobstore"
	"github.com/quantara/paramvec/codec"
	"github.com/quantara/paramvec/member"
	"github.com/quantara/paramvec/operator"
)

func buildModel(t *testing.T) *paramvec.Model {
	t.Helper()

	m := paramvec.New()

	g0, err := operator.NewDense(2)
	require.NoError(t, err)
	require.NoError(t, g0.LoadLocalVector([]float64{1, 2, 3, 4}))

	g1, err := operator.NewTP(2)
	require.NoError(t, err)
	require.NoError(t, g1.LoadLocalVector([]float64{5, 6}))

	fixed, err := operator.NewStatic(2, []float64{0, 1, 1, 0})
	require.NoError(t, err)

	inner, err := operator.NewDense(2)
	require.NoError(t, err)
	require.NoError(t, inner.LoadLocalVector([]float64{7, 8, 9, 10}))
	emb, err := operator.NewEmbedded(inner, 4)
	require.NoError(t, err)

	comp := operator.NewComposed(g0, emb)

	require.NoError(t, m.Register("G0", g0))
	require.NoError(t, m.Register("G1", g1))
	require.NoError(t, m.Register("F", fixed))
	require.NoError(t, m.Register("C", comp))

	_, err = m.NumParams()
	require.NoError(t, err)
	return m
}

func assertModelsEqual(t *testing.T, want, got *paramvec.Model) {
	t.Helper()

	assert.Equal(t, want.Labels(), got.Labels())

	wv, err := want.ToVector()
	require.NoError(t, err)
	gv, err := got.ToVector()
	require.NoError(t, err)
	assert.Equal(t, wv, gv)

	for _, label := range want.Labels() {
		wm, _ := want.Member(label)
		gm, ok := got.Member(label)
		require.True(t, ok, label)
		assert.Equal(t, wm.NumParams(), gm.NumParams(), label)
		assert.Equal(t, wm.IndicesAsArray(), gm.IndicesAsArray(), label)
		assert.False(t, gm.Dirty(), label)
	}
}

func TestRoundTrip(t *testing.T) {
	m := buildModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))

	got, err := Load(&buf)
	require.NoError(t, err)
	assertModelsEqual(t, m, got)

	// Sharing survives through descriptors: the composite's reloaded
	// descriptor still covers its children's slots.
	c, _ := got.Member("C")
	g0, _ := got.Member("G0")
	assert.Subset(t, c.IndicesAsArray(), g0.IndicesAsArray())
}

func TestRoundTripCompressions(t *testing.T) {
	m := buildModel(t)

	for _, comp := range []string{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(comp, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, m, WithCompression(comp)))

			got, err := Load(&buf)
			require.NoError(t, err)
			assertModelsEqual(t, m, got)
		})
	}
}

func TestRoundTripCodecs(t *testing.T) {
	m := buildModel(t)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, m, WithCodec(c)))

			got, err := Load(&buf)
			require.NoError(t, err)
			assertModelsEqual(t, m, got)
		})
	}
}

func TestLoadedModelKeepsWorking(t *testing.T) {
	m := buildModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))
	got, err := Load(&buf)
	require.NoError(t, err)

	// The reloaded model accepts further mutation and reconciles.
	v, err := got.ToVector()
	require.NoError(t, err)
	v[0] = 42
	require.NoError(t, got.FromVector(v))

	g0, _ := got.Member("G0")
	assert.Equal(t, 42.0, g0.LocalVector()[0])

	require.NoError(t, got.Deregister("G1"))
	np, err := got.NumParams()
	require.NoError(t, err)
	assert.Equal(t, 8, np)
}

func TestCorruptionDetected(t *testing.T) {
	m := buildModel(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))

	data := buf.Bytes()
	data[len(data)/2] ^= 0xff

	_, err := Load(bytes.NewReader(data))
	var mismatch *ChecksumMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestTruncated(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{1, 2}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestInvalidMagic(t *testing.T) {
	body := []byte("not a snapshot at all")
	footer := make([]byte, 4)
	binary.LittleEndian.PutUint32(footer, crc32.ChecksumIEEE(body))

	_, err := Load(bytes.NewReader(append(body, footer...)))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestFileRoundTrip(t *testing.T) {
	m := buildModel(t)
	path := filepath.Join(t.TempDir(), "model.snap")

	require.NoError(t, SaveFile(path, m))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assertModelsEqual(t, m, got)
}

func TestSaveLoadMetrics(t *testing.T) {
	m := buildModel(t)

	var mc paramvec.BasicMetricsCollector
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m, WithMetrics(&mc)))

	_, err := Load(bytes.NewReader(buf.Bytes()), WithMetrics(&mc))
	require.NoError(t, err)

	assert.Equal(t, int64(2), mc.SnapshotCount.Load())
	assert.Equal(t, int64(0), mc.SnapshotErrors.Load())
	assert.Equal(t, int64(2*buf.Len()), mc.SnapshotBytes.Load())
}

func TestBlobStoreRoundTrip(t *testing.T) {
	m := buildModel(t)
	store := blobstore.NewMemory()
	ctx := context.Background()

	require.NoError(t, Put(ctx, store, "snapshots/latest", m))

	names, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/latest"}, names)

	got, err := Fetch(ctx, store, "snapshots/latest")
	require.NoError(t, err)
	assertModelsEqual(t, m, got)

	_, err = Fetch(ctx, store, "snapshots/missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

// gaussian is a custom leaf kind registered by the test.
type gaussian struct {
	member.Base
	mean, width float64
}

func newGaussian(mean, width float64) *gaussian {
	g := &gaussian{mean: mean, width: width}
	g.Init(g)
	return g
}

func (g *gaussian) NumParams() int         { return 2 }
func (g *gaussian) LocalVector() []float64 { return []float64{g.mean, g.width} }
func (g *gaussian) LoadLocalVector(v []float64) error {
	if len(v) != 2 {
		return &member.ErrLengthMismatch{Expected: 2, Actual: len(v)}
	}
	g.mean, g.width = v[0], v[1]
	g.MarkDirty()
	return nil
}

func (g *gaussian) SnapshotKind() string { return "test-gaussian" }

func (g *gaussian) MarshalConfig() ([]byte, error) {
	return json.Marshal(struct{}{})
}

func TestCustomKind(t *testing.T) {
	RegisterKind("test-gaussian", func(_ []byte, _ []member.Member) (member.Member, error) {
		return newGaussian(0, 1), nil
	})

	m := paramvec.New()
	require.NoError(t, m.Register("N", newGaussian(0.5, 2)))
	_, err := m.NumParams()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))
	got, err := Load(&buf)
	require.NoError(t, err)

	v, err := got.ToVector()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 2}, v)
}

func TestUnknownKind(t *testing.T) {
	m := paramvec.New()
	require.NoError(t, m.Register("N", newGaussian(0.5, 2)))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))

	// No decoder registered under this kind.
	registryMu.Lock()
	delete(registry, "test-gaussian")
	registryMu.Unlock()
	t.Cleanup(func() {
		RegisterKind("test-gaussian", func(_ []byte, _ []member.Member) (member.Member, error) {
			return newGaussian(0, 1), nil
		})
	})

	_, err := Load(&buf)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
