package rdlb

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/rdl2/internal/fixture"
	"github.com/Neumenon/rdl2/rdl"
)

func newContext(t *testing.T) *rdl.SceneContext {
	t.Helper()
	sc, err := fixture.NewContext()
	require.NoError(t, err)
	return sc
}

func populated(t *testing.T, n int) *rdl.SceneContext {
	t.Helper()
	sc := newContext(t)
	require.NoError(t, fixture.Populate(sc, n))
	return sc
}

func encode(t *testing.T, sc *rdl.SceneContext, opts ...WriterOption) ([]byte, []byte) {
	t.Helper()
	manifest, payload, err := NewWriter(sc, opts...).ToBytes()
	require.NoError(t, err)
	return manifest, payload
}

func decode(t *testing.T, sc *rdl.SceneContext, manifest, payload []byte, opts ...ReaderOption) *Result {
	t.Helper()
	res, err := NewReader(sc, opts...).FromBytes(manifest, payload)
	require.NoError(t, err)
	return res
}

func manifestOf(t *testing.T, data []byte) *Manifest {
	t.Helper()
	var m Manifest
	require.NoError(t, m.UnmarshalBinary(data))
	return &m
}

// ============================================================
// Round trips
// ============================================================

func TestUserDataRoundTrip(t *testing.T) {
	sc := newContext(t)
	o, err := sc.CreateSceneObject(rdl.ClassUserData, "/userdata/cd")
	require.NoError(t, err)
	u, ok := o.AsUserData()
	require.True(t, ok)
	require.NoError(t, u.SetFloatData("Cd", []float32{0.1, 0.2, 0.3, 0.4}))
	require.NoError(t, u.SetRate(rdl.RateVertex))

	manifest, payload := encode(t, sc)
	other := newContext(t)
	res := decode(t, other, manifest, payload)
	assert.Empty(t, res.Warnings)

	got, err := other.LookupSceneObject("/userdata/cd").ToUserData()
	require.NoError(t, err)
	assert.Equal(t, "Cd", got.FloatKey())
	assert.Equal(t, rdl.RateVertex, got.Rate())
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3, 0.4}, got.FloatValues(), 1e-7)
}

func TestRoundTripPopulatedScene(t *testing.T) {
	tests := []struct {
		name string
		opts []WriterOption
	}{
		{"default", nil},
		{"all_attributes", []WriterOption{SkipDefaults(false)}},
		{"split", []WriterOption{SplitMode(64)}},
		{"compressed", []WriterOption{Compress(true)}},
		{"split_compressed", []WriterOption{SplitMode(100), Compress(true)}},
		{"transient", []WriterOption{Transient(true), SkipDefaults(false)}},
		{"split_cleared", []WriterOption{SplitMode(16), ClearSplitMode()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := populated(t, 7)
			manifest, payload := encode(t, sc, tt.opts...)

			other := newContext(t)
			res := decode(t, other, manifest, payload)
			assert.Empty(t, res.Warnings)
			assert.Len(t, res.Objects, len(sc.SceneObjects()))
			assert.Empty(t, fixture.Diff(sc, other))

			manifest2, payload2 := encode(t, other, tt.opts...)
			assert.Equal(t, manifest, manifest2)
			assert.Equal(t, payload, payload2)
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	sc := populated(t, 3)
	path := filepath.Join(t.TempDir(), "scene.rdlb")
	require.NoError(t, NewWriter(sc, Compress(true)).WriteFile(path))

	other := newContext(t)
	_, err := NewReader(other).ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, fixture.Diff(sc, other))

	var buf bytes.Buffer
	n, err := NewWriter(sc).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	third := newContext(t)
	_, err = NewReader(third).Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, fixture.Diff(sc, third))

	_, err = NewReader(newContext(t)).ReadFile(path + ".missing")
	require.Error(t, err)
}

func TestSpecialValues(t *testing.T) {
	sc := newContext(t)
	mesh, err := sc.CreateSceneObject("MeshGeometry", "/geo/m")
	require.NoError(t, err)
	require.NoError(t, mesh.Set("ids", rdl.LongVectorValue([]int64{-1 << 62, 0, 1<<63 - 1})))
	require.NoError(t, mesh.Set("face_counts", rdl.IntVectorValue([]int32{})))
	mat, err := sc.CreateSceneObject("BaseMaterial", "/mat/m")
	require.NoError(t, err)
	require.NoError(t, mat.Set("lobes", rdl.StringVectorValue([]string{"", "uniçode", "a\x00b"})))
	require.NoError(t, mat.Set("roughness", rdl.DoubleValue(-0.0)))
	sv := sc.SceneVariables().SceneObject
	require.NoError(t, sv.Set("camera", rdl.SceneObjectValue(nil)))

	manifest, payload := encode(t, sc, SkipDefaults(false))
	other := newContext(t)
	decode(t, other, manifest, payload)
	assert.Empty(t, fixture.Diff(sc, other))
}

// ============================================================
// Encoding options
// ============================================================

func TestDeltaEncoding(t *testing.T) {
	sc := populated(t, 3)
	sc.CommitAllChanges()
	sphere := sc.LookupSceneObject("/geo/sphere_001")
	require.NoError(t, sphere.Set("radius", rdl.FloatValue(2), rdl.TimestepBegin))
	require.NoError(t, sphere.SetBinding("radius", sc.LookupSceneObject("/map/checker")))

	manifest, payload := encode(t, sc, DeltaEncoding(true))
	m := manifestOf(t, manifest)
	assert.Equal(t, FlagDelta, m.Flags)
	require.Len(t, m.Objects, 3)
	assert.Equal(t, rdl.SceneVariablesName, m.Objects[0].Name)
	assert.Empty(t, m.Objects[0].Attributes)
	assert.Equal(t, "/geo/sphere_001", m.Objects[1].Name)
	require.Len(t, m.Objects[1].Attributes, 1)
	entry := m.Objects[1].Attributes[0]
	assert.True(t, entry.Bound)
	assert.Equal(t, maskBegin|maskEnd, entry.Mask)
	assert.Equal(t, rdl.TypeFloat, entry.Type)
	assert.Equal(t, "/map/checker", m.Objects[2].Name)
	assert.False(t, m.Objects[2].Defined)

	other := populated(t, 3)
	res := decode(t, other, manifest, payload)
	assert.Len(t, res.Objects, 2)
	assert.Empty(t, fixture.Diff(sc, other))
}

func TestSplitAndCompress(t *testing.T) {
	sc := populated(t, 40)

	manifest, payload := encode(t, sc, SplitMode(128))
	m := manifestOf(t, manifest)
	assert.Equal(t, FlagSplit, m.Flags)
	require.Greater(t, len(m.Chunks), 1)
	for _, c := range m.Chunks {
		assert.LessOrEqual(t, c.Raw, uint64(128))
		assert.Equal(t, c.Raw, c.Stored)
		assert.NotZero(t, c.CRC)
	}
	assert.Equal(t, uint64(len(payload)), m.PayloadSize())

	_, plain := encode(t, sc)
	compressedManifest, compressed := encode(t, sc, Compress(true))
	assert.Less(t, len(compressed), len(plain))
	cm := manifestOf(t, compressedManifest)
	require.Len(t, cm.Chunks, 1)
	assert.Equal(t, uint64(len(plain)), cm.Chunks[0].Raw)

	transientManifest, _ := encode(t, sc, Transient(true))
	for _, c := range manifestOf(t, transientManifest).Chunks {
		assert.Zero(t, c.CRC)
	}
}

func TestEmptyScene(t *testing.T) {
	manifest, payload := encode(t, newContext(t))
	assert.Empty(t, payload)
	m := manifestOf(t, manifest)
	assert.Len(t, m.Objects, 1)
	assert.Empty(t, m.Chunks)

	res := decode(t, newContext(t), manifest, payload)
	assert.Len(t, res.Objects, 1)
}

// ============================================================
// Show
// ============================================================

func TestShowManifest(t *testing.T) {
	sc := populated(t, 2)
	w := NewWriter(sc, SplitMode(256), Compress(true))
	manifest, _, err := w.ToBytes()
	require.NoError(t, err)

	text, err := ShowManifest(manifest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "rdlb v1 flags=split,compressed\n"), text)
	assert.Contains(t, text, `SphereGeometry "/geo/sphere_000"`)
	assert.Contains(t, text, `SceneVariables "`+rdl.SceneVariablesName+`"`)
	assert.Contains(t, text, "begin,end")
	assert.Contains(t, text, " bound\n")
	assert.Contains(t, text, "chunks: ")

	var buf bytes.Buffer
	require.NoError(t, w.Show(&buf))
	assert.Equal(t, text, buf.String())

	_, err = ShowManifest([]byte("RDLB"))
	assert.ErrorIs(t, err, rdl.ErrParse)
}

// ============================================================
// Warnings and errors
// ============================================================

func TestUnknownClassWarnings(t *testing.T) {
	manifest, payload := encode(t, populated(t, 3))

	classes, err := fixture.Classes()
	require.NoError(t, err)
	newPartial := func() *rdl.SceneContext {
		reg := rdl.NewRegistry()
		for _, c := range classes {
			if c.Name() != "SphereGeometry" {
				require.NoError(t, reg.Register(c))
			}
		}
		return rdl.NewSceneContext(rdl.WithRegistry(reg))
	}

	partial := newPartial()
	res := decode(t, partial, manifest, payload)
	require.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0].Reason, "SphereGeometry")
	assert.False(t, partial.SceneObjectExists("/geo/sphere_000"))
	assert.True(t, partial.SceneObjectExists("/geo/mesh"))

	_, err = NewReader(newPartial(), WarningsAsErrors(true)).FromBytes(manifest, payload)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, rdl.ErrParse)
}

func TestClassHashDrift(t *testing.T) {
	sc := newContext(t)
	s, err := sc.CreateSceneObject("SphereGeometry", "/geo/s")
	require.NoError(t, err)
	require.NoError(t, s.Set("radius", rdl.FloatValue(3), rdl.TimestepBegin))
	manifest, payload := encode(t, sc)

	drifted, err := rdl.NewClassBuilder("SphereGeometry", rdl.InterfaceGeometry).
		Declare("radius", rdl.TypeFloat,
			rdl.WithFlags(rdl.FlagsBindable|rdl.FlagsBlurrable), rdl.WithDefault(rdl.FloatValue(1))).
		Declare("subdivisions", rdl.TypeInt, rdl.WithDefault(rdl.IntValue(4))).
		Declare("primitive_attributes", rdl.TypeSceneObjectVector, rdl.WithObjectType(rdl.InterfaceUserData)).
		Declare("tessellation", rdl.TypeInt).
		SourcePath("/dso/drifted.yaml").
		Build()
	require.NoError(t, err)
	newDrifted := func() *rdl.SceneContext {
		reg := rdl.NewRegistry()
		require.NoError(t, reg.Register(drifted))
		return rdl.NewSceneContext(rdl.WithRegistry(reg))
	}

	other := newDrifted()
	res := decode(t, other, manifest, payload)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Reason, "changed")
	r0, _ := other.LookupSceneObject("/geo/s").GetFloat("radius", rdl.TimestepBegin)
	r1, _ := other.LookupSceneObject("/geo/s").GetFloat("radius", rdl.TimestepEnd)
	assert.Equal(t, float32(3), r0)
	assert.Equal(t, float32(1), r1)

	_, err = NewReader(newDrifted(), WarningsAsErrors(true)).FromBytes(manifest, payload)
	assert.ErrorIs(t, err, rdl.ErrParse)
}

func TestClassLayoutChange(t *testing.T) {
	contextWith := func(attrs ...string) *rdl.SceneContext {
		b := rdl.NewClassBuilder("Widget", rdl.InterfaceGeneric)
		for _, a := range attrs {
			b.Declare(a, rdl.TypeInt)
		}
		c, err := b.Build()
		require.NoError(t, err)
		reg := rdl.NewRegistry()
		require.NoError(t, reg.Register(c))
		return rdl.NewSceneContext(rdl.WithRegistry(reg))
	}
	get := func(sc *rdl.SceneContext, attr string) int32 {
		n, err := sc.LookupSceneObject("/w").GetInt(attr)
		require.NoError(t, err)
		return n
	}

	sc := contextWith("a", "b")
	w, err := sc.CreateSceneObject("Widget", "/w")
	require.NoError(t, err)
	require.NoError(t, w.Set("a", rdl.IntValue(2)))
	require.NoError(t, w.Set("b", rdl.IntValue(5)))
	manifest, payload := encode(t, sc)
	assert.Equal(t, []string{"a", "b"}, manifestOf(t, manifest).Layout("Widget").Attributes)

	t.Run("attribute inserted before", func(t *testing.T) {
		other := contextWith("inserted", "a", "b")
		res := decode(t, other, manifest, payload)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0].Reason, "changed")
		assert.Equal(t, int32(0), get(other, "inserted"))
		assert.Equal(t, int32(2), get(other, "a"))
		assert.Equal(t, int32(5), get(other, "b"))
	})

	t.Run("attributes reordered", func(t *testing.T) {
		other := contextWith("b", "a")
		decode(t, other, manifest, payload)
		assert.Equal(t, int32(2), get(other, "a"))
		assert.Equal(t, int32(5), get(other, "b"))
	})

	t.Run("attribute removed", func(t *testing.T) {
		other := contextWith("b")
		res := decode(t, other, manifest, payload)
		require.Len(t, res.Warnings, 2)
		assert.Contains(t, res.Warnings[1].Reason, "attribute a is no longer on Widget")
		assert.Equal(t, int32(5), get(other, "b"))

		_, err := NewReader(contextWith("b"), WarningsAsErrors(true)).FromBytes(manifest, payload)
		assert.ErrorIs(t, err, rdl.ErrParse)
	})
}

func TestCorruption(t *testing.T) {
	sc := populated(t, 3)
	manifest, payload := encode(t, sc, SplitMode(200))

	t.Run("payload byte", func(t *testing.T) {
		bad := bytes.Clone(payload)
		bad[len(bad)/2] ^= 0xff
		_, err := NewReader(newContext(t)).FromBytes(manifest, bad)
		var crcErr *CRCMismatchError
		require.ErrorAs(t, err, &crcErr)
		assert.GreaterOrEqual(t, crcErr.Chunk, 0)
		assert.ErrorIs(t, err, rdl.ErrParse)
	})

	t.Run("manifest byte", func(t *testing.T) {
		bad := bytes.Clone(manifest)
		bad[10] ^= 0xff
		_, err := NewReader(newContext(t)).FromBytes(bad, payload)
		var crcErr *CRCMismatchError
		require.ErrorAs(t, err, &crcErr)
		assert.Equal(t, -1, crcErr.Chunk)
	})

	formatErrors := []struct {
		name     string
		manifest []byte
		payload  []byte
	}{
		{"truncated payload", manifest, payload[:len(payload)-1]},
		{"extra payload", manifest, append(bytes.Clone(payload), 0)},
		{"bad magic", append([]byte("RDLX"), manifest[4:]...), payload},
		{"short manifest", manifest[:5], payload},
	}
	for _, tt := range formatErrors {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(newContext(t)).FromBytes(tt.manifest, tt.payload)
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, rdl.ErrParse)
		})
	}

	t.Run("file header", func(t *testing.T) {
		_, _, err := SplitFile([]byte{1, 2, 3})
		assert.ErrorIs(t, err, rdl.ErrParse)
		_, _, err = SplitFile([]byte{255, 0, 0, 0, 0, 0, 0, 0, 1})
		assert.ErrorIs(t, err, rdl.ErrParse)
	})
}

func TestManifestRejectsBadFields(t *testing.T) {
	m := &Manifest{
		Version: Version,
		Classes: []ClassLayout{{Name: "SphereGeometry", Attributes: []string{"radius"}}},
		Chunks:  []ChunkEntry{{Stored: 3, Raw: 3, CRC: 7}},
		Objects: []ObjectEntry{{
			ClassName:  "SphereGeometry",
			Name:       "/geo/s",
			Defined:    true,
			Attributes: []AttributeEntry{{Index: 0, Type: rdl.AttributeType(200), Mask: maskBegin}},
		}},
	}
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	var got Manifest
	err = got.UnmarshalBinary(data)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "invalid attribute type")

	m.Objects[0].Attributes[0].Type = rdl.TypeFloat
	m.Version = 9
	data, err = m.MarshalBinary()
	require.NoError(t, err)
	err = got.UnmarshalBinary(data)
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "version")

	m.Version = Version
	data, err = m.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, *m, got)
	assert.True(t, errors.Is(got.UnmarshalBinary(data[:len(data)-1]), rdl.ErrParse))

	m.Objects[0].Attributes[0].Index = 1
	data, err = m.MarshalBinary()
	require.NoError(t, err)
	err = got.UnmarshalBinary(data)
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "outside the SphereGeometry layout")

	m.Objects[0].Attributes[0].Index = 0
	m.Classes[0].Name = "MeshGeometry"
	data, err = m.MarshalBinary()
	require.NoError(t, err)
	err = got.UnmarshalBinary(data)
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "no layout for class SphereGeometry")
}

func TestManifestRejectsOversizedChunks(t *testing.T) {
	sc := populated(t, 4)
	manifest, payload := encode(t, sc, SplitMode(64))
	m := manifestOf(t, manifest)
	require.Greater(t, len(m.Chunks), 1)

	tests := []struct {
		name  string
		forge func(m *Manifest)
	}{
		{"raw wraps around", func(m *Manifest) { m.Chunks[1].Raw = ^uint64(0) - m.Chunks[0].Raw + 8 }},
		{"stored wraps around", func(m *Manifest) { m.Chunks[1].Stored = ^uint64(0) - m.Chunks[0].Stored + 8 }},
		{"raw over the limit", func(m *Manifest) { m.Chunks[0].Raw = MaxSectionSize + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forged := manifestOf(t, manifest)
			tt.forge(forged)
			data, err := forged.MarshalBinary()
			require.NoError(t, err)

			_, err = NewReader(newContext(t)).FromBytes(data, payload)
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, rdl.ErrParse)
			_, err = ShowManifest(data)
			assert.ErrorAs(t, err, &fe)

			assert.LessOrEqual(t, forged.PayloadSize(), uint64(MaxSectionSize+1))
		})
	}
}
