package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyRoomPredicates(t *testing.T) {
	room := newRoom("ABCD")
	room.Lock()
	defer room.Unlock()

	// A room with no players is never all-ready and never all-answered, so
	// an emptied room can neither start a game nor auto-advance a round.
	assert.False(t, room.allReadyLocked())
	assert.False(t, room.allAnsweredLocked())
}

func TestRoomPredicatesRequireEveryPlayer(t *testing.T) {
	room := newRoom("ABCD")
	room.Lock()
	defer room.Unlock()

	room.Players["a"] = &Player{ID: "a", Nickname: "Alice", Ready: true, HasAnswered: true}
	room.Players["b"] = &Player{ID: "b", Nickname: "Bob"}
	assert.False(t, room.allReadyLocked())
	assert.False(t, room.allAnsweredLocked())

	room.Players["b"].Ready = true
	room.Players["b"].HasAnswered = true
	assert.True(t, room.allReadyLocked())
	assert.True(t, room.allAnsweredLocked())
}
