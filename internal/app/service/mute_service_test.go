package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMuteAllIdempotent(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	coord := NewMuteCoordinator(voice)

	require.NoError(t, coord.MuteAll(testGuild))
	first := voice.setCalls
	require.NoError(t, coord.MuteAll(testGuild))
	assert.Equal(t, first, voice.setCalls, "el segundo MuteAll no repite llamadas")
	assert.True(t, voice.isMuted("alice"))
	assert.True(t, voice.isMuted("bob"))
}

func TestUnmuteOnlyTrackedMembers(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	coord := NewMuteCoordinator(voice)
	require.NoError(t, coord.MuteAll(testGuild))

	// carol entra después, muteada por otro (un admin, otro bot)
	voice.mu.Lock()
	voice.members = append(voice.members, "carol")
	voice.muted["carol"] = true
	voice.mu.Unlock()

	coord.UnmuteAll(testGuild)
	assert.False(t, voice.isMuted("alice"))
	assert.False(t, voice.isMuted("bob"))
	assert.True(t, voice.isMuted("carol"), "nunca desmuteamos a quien no muteamos nosotros")
}

func TestMuteAllPartialFailure(t *testing.T) {
	voice := newFakeVoice("alice", "bob", "carol")
	voice.failMute["bob"] = true
	coord := NewMuteCoordinator(voice)

	// el fallo con bob no corta el resto
	require.NoError(t, coord.MuteAll(testGuild))
	assert.True(t, voice.isMuted("alice"))
	assert.True(t, voice.isMuted("carol"))
	assert.False(t, voice.isMuted("bob"))

	// recuperado el transport, el próximo MuteAll lo reintenta
	voice.mu.Lock()
	voice.failMute = map[string]bool{}
	voice.mu.Unlock()
	require.NoError(t, coord.MuteAll(testGuild))
	assert.True(t, voice.isMuted("bob"))
}

func TestUnmuteFailureKeepsTracking(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	coord := NewMuteCoordinator(voice)
	require.NoError(t, coord.MuteAll(testGuild))

	voice.mu.Lock()
	voice.failMute["bob"] = true
	voice.mu.Unlock()
	coord.UnmuteAll(testGuild)
	assert.False(t, voice.isMuted("alice"))
	assert.True(t, voice.isMuted("bob"), "el unmute de bob falló")

	voice.mu.Lock()
	voice.failMute = map[string]bool{}
	voice.mu.Unlock()
	coord.UnmuteAll(testGuild)
	assert.False(t, voice.isMuted("bob"), "bob seguía trackeado y se reintentó")
}

func TestMuteOneTracked(t *testing.T) {
	voice := newFakeVoice()
	coord := NewMuteCoordinator(voice)

	coord.MuteOne(testGuild, "carol")
	assert.True(t, voice.isMuted("carol"))

	calls := voice.setCalls
	coord.MuteOne(testGuild, "carol")
	assert.Equal(t, calls, voice.setCalls, "MuteOne repetido no llama de nuevo")

	coord.UnmuteAll(testGuild)
	assert.False(t, voice.isMuted("carol"))
}
