package di

import (
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/api"
	"github.com/listenupapp/searchbook/internal/di/providers"
)

func testArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	dir := t.TempDir()
	return append([]string{
		"-env-file", filepath.Join(dir, "missing.env"),
		"-store-path", filepath.Join(dir, "data"),
		"-port", "0",
		"-log-level", "error",
	}, extra...)
}

func TestBootstrap(t *testing.T) {
	injector := NewContainer(testArgs(t), "test")
	require.NoError(t, Bootstrap(injector))

	sessions := do.MustInvoke[*providers.SessionsHandle](injector)
	info, err := sessions.Open(api.ScreenFavorites)
	require.NoError(t, err)
	assert.Equal(t, api.ScreenFavorites, info.Screen)
	assert.Equal(t, 1, sessions.Count())

	injector.Shutdown()
	assert.Equal(t, 0, sessions.Count())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	injector := NewContainer(testArgs(t, "-env", "nowhere"), "test")
	err := Bootstrap(injector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}
