package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	registry := NewRegistry()

	room := registry.GetOrCreate("ABCD")
	require.NotNil(t, room)
	assert.Equal(t, "ABCD", room.Code)
	assert.Empty(t, room.Players)
	assert.False(t, room.GameStarted)
	assert.False(t, room.GameEnded)
	assert.False(t, room.QuizReady)

	// Same code returns the same room.
	assert.Same(t, room, registry.GetOrCreate("ABCD"))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Delete(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("ABCD")

	registry.Delete("ABCD")
	_, ok := registry.Get("ABCD")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Count())

	// Deleting a missing room is a no-op.
	registry.Delete("ABCD")

	// A later join with the same code gets a fresh room with lobby defaults.
	fresh := registry.GetOrCreate("ABCD")
	assert.Empty(t, fresh.Players)
	assert.Equal(t, "", fresh.CreatorID)
	assert.False(t, fresh.GameStarted)
	assert.Nil(t, fresh.Questions)
}

func TestNormalizeRoomCode(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"abcd", "ABCD"},
		{"  AbCd  ", "ABCD"},
		{"", "DEFAULT"},
		{"   ", "DEFAULT"},
		{"ROOM1", "ROOM1"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, NormalizeRoomCode(tc.in), "input %q", tc.in)
	}
}
