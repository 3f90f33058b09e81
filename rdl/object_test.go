package rdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Get / Set
// ============================================================

func TestCreateThenRetrieve(t *testing.T) {
	sc := newTestContext(t)
	for _, tt := range []struct{ class, name string }{
		{"SphereGeometry", "/geo/sphere"},
		{"PerspectiveCamera", "/cam/main"},
		{ClassLayer, "/layer"},
		{ClassUserData, "/ud"},
	} {
		mustCreate(t, sc, tt.class, tt.name)
		o, err := sc.SceneObject(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.name, o.Name())
		assert.Equal(t, tt.class, o.SceneClass().Name())
	}
}

func TestUnwrittenAttributesAreDefault(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo/sphere")
	for _, a := range o.SceneClass().Attributes() {
		isDef, err := o.IsDefault(a.Name())
		require.NoError(t, err)
		assert.True(t, isDef, a.Name())
		v, err := o.Get(a.Name())
		require.NoError(t, err)
		assert.True(t, v.Equal(a.Default()), a.Name())
	}
}

func TestSetAndGet(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo/sphere")

	require.NoError(t, o.Set("radius", FloatValue(2.5)))
	r, err := o.GetFloat("radius")
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), r)

	changed, _ := o.HasChanged("radius")
	assert.True(t, changed)
	assert.True(t, o.IsDirty())
	isDef, _ := o.IsDefault("radius")
	assert.False(t, isDef)
}

func TestSetErrors(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo/sphere")

	assert.ErrorIs(t, o.Set("nope", IntValue(1)), ErrAttributeNotFound)
	assert.ErrorIs(t, o.Set("radius", IntValue(1)), ErrTypeMismatch)
	assert.ErrorIs(t, o.Set("radius", FloatValue(1), TimestepBegin, TimestepEnd), ErrInvalidKey)
	assert.ErrorIs(t, o.Set("radius", FloatValue(1), Timestep(7)), ErrInvalidKey)

	_, err := o.Get("nope")
	assert.ErrorIs(t, err, ErrAttributeNotFound)
}

func TestBlurrableTimesteps(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo/sphere")

	require.NoError(t, o.Set("radius", FloatValue(3), TimestepEnd))
	begin, _ := o.GetFloat("radius")
	end, _ := o.GetFloat("radius", TimestepEnd)
	assert.Equal(t, float32(1), begin)
	assert.Equal(t, float32(3), end)

	isDef, _ := o.IsDefault("radius")
	assert.False(t, isDef, "a changed end sample is not default")

	// Non-blurrable attributes ignore the selector.
	require.NoError(t, o.Set("subdivisions", IntValue(9), TimestepEnd))
	n, _ := o.GetInt("subdivisions")
	assert.Equal(t, int32(9), n)
}

func TestKeys(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo/sphere")

	k, err := ParseKey("radius", "end")
	require.NoError(t, err)
	require.NoError(t, o.SetKey(k, FloatValue(4)))
	end, _ := o.GetFloat("radius", TimestepEnd)
	assert.Equal(t, float32(4), end)

	for _, parts := range [][]any{
		{},
		{"radius", 0, 1},
		{42},
		{"radius", 2.5},
		{"radius", 3},
		{"radius", "middle"},
	} {
		_, err := ParseKey(parts...)
		assert.ErrorIs(t, err, ErrInvalidKey, "%v", parts)
	}
}

// ============================================================
// Objects and references
// ============================================================

func TestObjectReferenceChecks(t *testing.T) {
	sc := newTestContext(t)
	cam := mustCreate(t, sc, "PerspectiveCamera", "/cam")
	geo := mustCreate(t, sc, "SphereGeometry", "/geo")
	sv := sc.SceneVariables()

	require.NoError(t, sv.Set("camera", SceneObjectValue(cam)))
	assert.ErrorIs(t, sv.Set("camera", SceneObjectValue(geo)), ErrTypeMismatch)

	other := newTestContext(t)
	foreign := mustCreate(t, other, "PerspectiveCamera", "/cam")
	assert.ErrorIs(t, sv.Set("camera", SceneObjectValue(foreign)), ErrTypeMismatch)
}

func TestBindings(t *testing.T) {
	sc := newTestContext(t)
	mat := mustCreate(t, sc, "BaseMaterial", "/mat")
	tex := mustCreate(t, sc, "ImageMap", "/tex")

	require.NoError(t, mat.SetBinding("diffuse_color", tex))
	b, err := mat.Binding("diffuse_color")
	require.NoError(t, err)
	assert.Same(t, tex, b)

	isDef, _ := mat.IsDefault("diffuse_color")
	assert.True(t, isDef)
	unbound, _ := mat.IsDefaultAndUnbound("diffuse_color")
	assert.False(t, unbound)

	changed, _ := mat.HasBindingChanged("diffuse_color")
	assert.True(t, changed)

	geo := mustCreate(t, sc, "SphereGeometry", "/geo")
	assert.ErrorIs(t, geo.SetBinding("subdivisions", tex), ErrTypeMismatch)
}

func TestResetToDefault(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo")
	require.NoError(t, o.Set("radius", FloatValue(5)))
	require.NoError(t, o.Set("radius", FloatValue(6), TimestepEnd))

	require.NoError(t, o.ResetToDefault("radius"))
	isDef, _ := o.IsDefault("radius")
	assert.True(t, isDef)
	changed, _ := o.HasChanged("radius")
	assert.False(t, changed)

	require.NoError(t, o.Set("subdivisions", IntValue(1)))
	o.ResetAllToDefault()
	n, _ := o.GetInt("subdivisions")
	assert.Equal(t, int32(4), n)
}

func TestCopyAll(t *testing.T) {
	sc := newTestContext(t)
	src := mustCreate(t, sc, "SphereGeometry", "/a")
	dst := mustCreate(t, sc, "SphereGeometry", "/b")
	cam := mustCreate(t, sc, "PerspectiveCamera", "/cam")

	require.NoError(t, src.Set("radius", FloatValue(7), TimestepEnd))
	require.NoError(t, src.Set("subdivisions", IntValue(2)))
	dst.CommitChanges()

	require.NoError(t, dst.CopyAll(src))
	end, _ := dst.GetFloat("radius", TimestepEnd)
	assert.Equal(t, float32(7), end)
	changed, _ := dst.HasChanged("subdivisions")
	assert.True(t, changed)
	changed, _ = dst.HasChanged("reverse_normals")
	assert.False(t, changed)
	assert.False(t, dst.InUpdate())

	assert.ErrorIs(t, dst.CopyAll(cam), ErrTypeMismatch)
}

// ============================================================
// Transactions
// ============================================================

func TestUpdateGuardNesting(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo")

	outer := o.UpdateGuard()
	inner := o.UpdateGuard()
	inner.Close()
	inner.Close()
	assert.True(t, o.InUpdate())
	outer.Close()
	assert.False(t, o.InUpdate())

	err := o.Update(func() error {
		require.NoError(t, o.Set("subdivisions", IntValue(8)))
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.False(t, o.InUpdate())
	n, _ := o.GetInt("subdivisions")
	assert.Equal(t, int32(8), n)
}

func TestCommitClearsFlags(t *testing.T) {
	sc := newTestContext(t)
	o := mustCreate(t, sc, "SphereGeometry", "/geo")
	require.NoError(t, o.Set("subdivisions", IntValue(8)))
	sc.CommitAllChanges()

	assert.False(t, o.IsDirty())
	changed, _ := o.HasChanged("subdivisions")
	assert.False(t, changed)

	o.RequestUpdate()
	assert.True(t, o.IsDirty())
}
