package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns the mapping from room code to Room. It is the only place
// Room state is constructed; rooms are created lazily on first join and
// deleted when their player set empties.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for a normalized code, allocating one with
// lobby defaults when unseen. Idempotent per code.
func (r *Registry) GetOrCreate(code string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[code]; ok {
		return room
	}
	room := newRoom(code)
	r.rooms[code] = room
	log.Info().Str("room", code).Msg("room created")
	return room
}

// Get returns the room for a code, if it exists.
func (r *Registry) Get(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// Delete removes a room. The caller must cancel the room's countdown first
// so no live tick callback outlives the room; callbacks additionally
// re-fetch the room and no-op when it is gone.
func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; ok {
		delete(r.rooms, code)
		log.Info().Str("room", code).Msg("room deleted")
	}
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
