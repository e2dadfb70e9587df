package backend_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
)

func fakeProvider(t gfx.Backend, priority int, available bool) backend.Provider {
	return backend.Provider{
		Type:      t,
		Priority:  priority,
		Available: func() bool { return available },
		NewDevice: func(gfx.Surface) (gfx.Device, error) {
			d := gfxtest.NewDevice()
			d.Type = t
			return d, nil
		},
		Shaders: func() gfx.ShaderLibrary {
			lib := gfx.ShaderLibrary{}
			for _, n := range gfx.WellKnownShaders {
				lib[n] = gfx.NewGLSLSource(n, "v", "f")
			}
			return lib
		},
	}
}

func reset(t *testing.T) {
	t.Helper()
	backend.ClearProviders()
	t.Cleanup(backend.ClearProviders)
}

func TestAutoWithNoProviders(t *testing.T) {
	reset(t)
	dev, err := backend.CreateDevice(gfx.BackendAuto, nil)
	assert.Nil(t, dev)
	require.ErrorIs(t, err, gfx.ErrUnsupported)

	var ue *backend.UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, gfx.BackendAuto, ue.Requested)
	assert.Empty(t, ue.Available)
	assert.Empty(t, backend.Available())
}

func TestAutoPicksHighestPriority(t *testing.T) {
	reset(t)
	backend.Register(fakeProvider(gfx.BackendOpenGL, 10, true))
	backend.Register(fakeProvider(gfx.BackendVulkan, 90, true))
	backend.Register(fakeProvider(gfx.BackendMetal, 100, false))

	dev, err := backend.CreateDevice(gfx.BackendAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, gfx.BackendVulkan, dev.Backend())
	assert.Equal(t, []gfx.Backend{gfx.BackendVulkan, gfx.BackendOpenGL}, backend.Available())
}

func TestDefaultPriority(t *testing.T) {
	reset(t)
	backend.Register(fakeProvider(gfx.BackendOpenGL, 0, true))
	backend.Register(fakeProvider(gfx.BackendDX12, 49, true))

	p, err := backend.Select(gfx.BackendAuto)
	require.NoError(t, err)
	assert.Equal(t, gfx.BackendOpenGL, p.Type)
}

func TestExplicitUnavailableListsAlternatives(t *testing.T) {
	reset(t)
	backend.Register(fakeProvider(gfx.BackendOpenGL, 10, true))
	backend.Register(fakeProvider(gfx.BackendMetal, 100, false))

	_, err := backend.CreateDevice(gfx.BackendMetal, nil)
	var ue *backend.UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, gfx.BackendMetal, ue.Requested)
	assert.Equal(t, []gfx.Backend{gfx.BackendOpenGL}, ue.Available)
	assert.Contains(t, err.Error(), gfx.BackendOpenGL.String())

	_, err = backend.CreateDevice(gfx.BackendDX12, nil)
	assert.ErrorIs(t, err, gfx.ErrUnsupported)
}

func TestDuplicateRegistrationKeepsHigherPriority(t *testing.T) {
	reset(t)
	low := fakeProvider(gfx.BackendOpenGL, 10, true)
	high := fakeProvider(gfx.BackendOpenGL, 20, false)
	backend.Register(high)
	backend.Register(low)

	assert.False(t, backend.IsAvailable(gfx.BackendOpenGL))

	backend.Register(fakeProvider(gfx.BackendOpenGL, 30, true))
	assert.True(t, backend.IsAvailable(gfx.BackendOpenGL))
}

func TestAutoRegistrationIgnored(t *testing.T) {
	reset(t)
	backend.Register(fakeProvider(gfx.BackendAuto, 100, true))
	assert.Empty(t, backend.Available())
	assert.False(t, backend.IsAvailable(gfx.BackendAuto))
}

func TestDeviceConstructorErrorIsWrapped(t *testing.T) {
	reset(t)
	boom := errors.New("no adapter")
	p := fakeProvider(gfx.BackendVulkan, 0, true)
	p.NewDevice = func(gfx.Surface) (gfx.Device, error) { return nil, boom }
	backend.Register(p)

	_, err := backend.CreateDevice(gfx.BackendVulkan, nil)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, gfx.ErrUnsupported)
}

func TestCreateResourceManager(t *testing.T) {
	reset(t)
	backend.Register(fakeProvider(gfx.BackendOpenGL, 0, true))

	m, err := backend.CreateResourceManager(gfx.BackendAuto)
	require.NoError(t, err)
	dev, err := backend.CreateDevice(gfx.BackendAuto, nil)
	require.NoError(t, err)
	require.NoError(t, m.Init(dev))
	assert.NotNil(t, m.Shader(gfx.ShaderText))
}
