package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"quizrush/internal/quiz"
)

// recordedEvent is one captured emission: Room set for broadcasts, ConnID
// for unicasts.
type recordedEvent struct {
	Room    string
	ConnID  string
	Event   string
	Payload any
}

// recordingBroadcaster captures everything the core emits.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Broadcast(roomCode, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Room: roomCode, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) Unicast(connectionID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{ConnID: connectionID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (b *recordingBroadcaster) last(event string) (recordedEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == event {
			return b.events[i], true
		}
	}
	return recordedEvent{}, false
}

func (b *recordingBroadcaster) waitFor(t *testing.T, event string, minCount int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return b.count(event) >= minCount
	}, 2*time.Second, 5*time.Millisecond, "expected at least %d %q events", minCount, event)
}

// stubQuestions serves the static set, optionally blocking until released
// to simulate a slow provider.
type stubQuestions struct {
	release chan struct{}
}

func (s *stubQuestions) Generate(ctx context.Context, theme quiz.Theme) []quiz.Question {
	if s.release != nil {
		<-s.release
	}
	return quiz.FallbackSet()
}

type fixture struct {
	clock       *clockwork.FakeClock
	bus         *recordingBroadcaster
	registry    *Registry
	scheduler   *Scheduler
	coordinator *Coordinator
	questions   *stubQuestions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	bus := &recordingBroadcaster{}
	registry := NewRegistry()
	scheduler := NewScheduler(clock, registry, bus, DefaultTimings())
	questions := &stubQuestions{}
	coordinator := NewCoordinator(registry, scheduler, bus, questions, clock)
	return &fixture{
		clock:       clock,
		bus:         bus,
		registry:    registry,
		scheduler:   scheduler,
		coordinator: coordinator,
		questions:   questions,
	}
}

// join adds a player and returns its session.
func (f *fixture) join(t *testing.T, nickname, roomCode string) *Session {
	t.Helper()
	sess := &Session{ConnectionID: "conn-" + nickname}
	require.NoError(t, f.coordinator.Join(sess, nickname, roomCode))
	return sess
}

// room fetches a room that must exist.
func (f *fixture) room(t *testing.T, code string) *Room {
	t.Helper()
	room, ok := f.registry.Get(code)
	require.True(t, ok, "room %s must exist", code)
	return room
}

// loadQuiz puts the room straight into the quiz-ready state.
func (f *fixture) loadQuiz(t *testing.T, code string) {
	t.Helper()
	room := f.room(t, code)
	room.Lock()
	room.Theme = quiz.ThemeUmum
	room.Questions = quiz.FallbackSet()
	room.QuizReady = true
	room.Unlock()
}

// roundActive reports the room's round state under its lock.
func (f *fixture) roundActive(code string) bool {
	room, ok := f.registry.Get(code)
	if !ok {
		return false
	}
	room.Lock()
	defer room.Unlock()
	return room.RoundActive
}

// playerScore reads a player's score under the room lock.
func (f *fixture) playerScore(t *testing.T, code, connID string) int {
	t.Helper()
	room := f.room(t, code)
	room.Lock()
	defer room.Unlock()
	p, ok := room.Players[connID]
	require.True(t, ok, "player %s must exist in %s", connID, code)
	return p.Score
}
