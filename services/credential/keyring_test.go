package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryRing(t *testing.T) keyring.Keyring {
	ring := keyring.NewArrayKeyring(nil)
	previous := Opener
	Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { Opener = previous })
	return ring
}

func TestResolvePortalPrefersEnvironment(t *testing.T) {
	useMemoryRing(t)
	require.NoError(t, Set(PortalUserKey, "from-ring"))

	user, pass := ResolvePortal("from-env", "env-pass")
	assert.Equal(t, "from-env", user)
	assert.Equal(t, "env-pass", pass)
}

func TestResolvePortalFallsBackToKeyring(t *testing.T) {
	useMemoryRing(t)
	require.NoError(t, Set(PortalUserKey, "20111222333"))
	require.NoError(t, Set(PortalPassKey, "ring-pass"))

	user, pass := ResolvePortal("", "")
	assert.Equal(t, "20111222333", user)
	assert.Equal(t, "ring-pass", pass)

	user, pass = ResolvePortal("env-user", "")
	assert.Equal(t, "env-user", user)
	assert.Equal(t, "ring-pass", pass)
}

func TestResolvePortalMissingEverywhere(t *testing.T) {
	useMemoryRing(t)

	user, pass := ResolvePortal("", "")
	assert.Empty(t, user)
	assert.Empty(t, pass)
}

func TestKeyringConfigFileBackend(t *testing.T) {
	t.Run("Without password", func(t *testing.T) {
		cfg := keyringConfig("")
		assert.NotContains(t, cfg.AllowedBackends, keyring.FileBackend)
		assert.Nil(t, cfg.FilePasswordFunc)
	})

	t.Run("With password", func(t *testing.T) {
		cfg := keyringConfig("from-env")
		assert.Contains(t, cfg.AllowedBackends, keyring.FileBackend)
		require.NotNil(t, cfg.FilePasswordFunc)
		password, err := cfg.FilePasswordFunc("")
		require.NoError(t, err)
		assert.Equal(t, "from-env", password)
	})
}
