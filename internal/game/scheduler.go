package game

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Timings holds every delay the scheduler uses. Tests shrink these.
type Timings struct {
	RoundDuration     time.Duration
	TickInterval      time.Duration
	NextRoundDelay    time.Duration
	GameStartDelay    time.Duration
	AllAnsweredDelay  time.Duration
	DuplicateAckDelay time.Duration
}

// DefaultTimings returns the production timing profile: 30s rounds, 1s
// countdown ticks, 1.5s grace between rounds, 2s game-start delay, and the
// short feedback delays for early round ends.
func DefaultTimings() Timings {
	return Timings{
		RoundDuration:     30 * time.Second,
		TickInterval:      time.Second,
		NextRoundDelay:    1500 * time.Millisecond,
		GameStartDelay:    2 * time.Second,
		AllAnsweredDelay:  1500 * time.Millisecond,
		DuplicateAckDelay: time.Second,
	}
}

// Scheduler is the per-room timing authority. It starts rounds, drives the
// one-second countdown, ends rounds on timeout or early, and finishes the
// game after the last question. Each room owns at most one live countdown;
// arming a new one cancels the previous.
type Scheduler struct {
	clock       clockwork.Clock
	registry    *Registry
	broadcaster Broadcaster
	timings     Timings

	mu         sync.Mutex
	countdowns map[string]chan struct{}
}

// NewScheduler creates a scheduler over the given registry and transport.
func NewScheduler(clock clockwork.Clock, registry *Registry, broadcaster Broadcaster, timings Timings) *Scheduler {
	return &Scheduler{
		clock:       clock,
		registry:    registry,
		broadcaster: broadcaster,
		timings:     timings,
		countdowns:  make(map[string]chan struct{}),
	}
}

// StartRound activates question index for the room: stamps the deadline,
// resets per-round player flags, broadcasts the question, remaining time
// and a fresh scoreboard, then arms the countdown.
func (s *Scheduler) StartRound(roomCode string, index int) {
	room, ok := s.registry.Get(roomCode)
	if !ok {
		return
	}

	room.Lock()
	if index < 0 || index >= len(room.Questions) {
		room.Unlock()
		return
	}
	room.RoundIndex = index
	room.RoundActive = true
	room.RoundStart = s.clock.Now()
	room.RoundDeadline = room.RoundStart.Add(s.timings.RoundDuration)
	deadline := room.RoundDeadline
	for _, p := range room.Players {
		p.HasAnswered = false
	}
	q := room.Questions[index]
	round := RoundPayload{
		Index:    index + 1,
		Total:    len(room.Questions),
		Question: q.Text,
		Options:  q.Options,
	}
	scoreboard := room.scoreboardLocked()
	room.Unlock()

	log.Info().
		Str("room", roomCode).
		Int("round", index+1).
		Msg("round started")

	s.broadcaster.Broadcast(roomCode, EventRound, round)
	s.broadcaster.Broadcast(roomCode, EventTimer, s.secondsLeft(deadline))
	s.broadcaster.Broadcast(roomCode, EventScoreboard, scoreboard)

	s.armCountdown(roomCode, deadline)
}

// EndRound deactivates the current round and either schedules the next one
// after the grace delay or finishes the game. Ending is idempotent: the
// timeout path and the all-answered path race, whichever runs first performs
// the transition and the loser no-ops on the cleared RoundActive flag.
func (s *Scheduler) EndRound(roomCode string) {
	room, ok := s.registry.Get(roomCode)
	if !ok {
		s.CancelCountdown(roomCode)
		return
	}

	room.Lock()
	if !room.RoundActive {
		room.Unlock()
		return
	}
	room.RoundActive = false
	next := room.RoundIndex + 1

	if next < len(room.Questions) {
		room.Unlock()
		s.CancelCountdown(roomCode)
		s.clock.AfterFunc(s.timings.NextRoundDelay, func() {
			s.StartRound(roomCode, next)
		})
		return
	}

	room.GameEnded = true
	room.GameStarted = false
	total := len(room.Questions)
	final := room.scoreboardLocked()
	state := room.playersStateLocked()
	room.Unlock()

	s.CancelCountdown(roomCode)

	log.Info().
		Str("room", roomCode).
		Int("rounds", total).
		Msg("game over")

	s.broadcaster.Broadcast(roomCode, EventGameOver, GameOverPayload{
		TotalRounds:     total,
		FinalScoreboard: final,
	})
	s.broadcaster.Broadcast(roomCode, EventPlayersState, state)
}

// ScheduleRoundEnd ends the round after a feedback delay. Used by the
// all-answered auto-advance path.
func (s *Scheduler) ScheduleRoundEnd(roomCode string, delay time.Duration) {
	s.clock.AfterFunc(delay, func() {
		s.EndRound(roomCode)
	})
}

// ScheduleGameStart kicks off round zero after the game-start delay.
func (s *Scheduler) ScheduleGameStart(roomCode string) {
	s.clock.AfterFunc(s.timings.GameStartDelay, func() {
		s.StartRound(roomCode, 0)
	})
}

// CatchUp returns the current question and remaining seconds for a room
// with an active round, for unicasting to a late joiner.
func (s *Scheduler) CatchUp(room *Room) (RoundPayload, int, bool) {
	room.Lock()
	defer room.Unlock()
	if !room.RoundActive {
		return RoundPayload{}, 0, false
	}
	q := room.currentQuestionLocked()
	if q == nil {
		return RoundPayload{}, 0, false
	}
	round := RoundPayload{
		Index:    room.RoundIndex + 1,
		Total:    len(room.Questions),
		Question: q.Text,
		Options:  q.Options,
	}
	return round, s.secondsLeft(room.RoundDeadline), true
}

// Timings exposes the configured delays for collaborators.
func (s *Scheduler) Timings() Timings { return s.timings }

// armCountdown replaces the room's countdown with a fresh one. The previous
// tick loop, if any, is stopped first so a room never has two live tickers.
func (s *Scheduler) armCountdown(roomCode string, deadline time.Time) {
	stop := make(chan struct{})

	s.mu.Lock()
	if prev, ok := s.countdowns[roomCode]; ok {
		close(prev)
		log.Debug().Str("room", roomCode).Msg("replaced existing countdown")
	}
	s.countdowns[roomCode] = stop
	s.mu.Unlock()

	go s.runCountdown(roomCode, deadline, stop)
}

// CancelCountdown stops the room's countdown if one is live. Safe to call
// when none is armed.
func (s *Scheduler) CancelCountdown(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.countdowns[roomCode]; ok {
		close(stop)
		delete(s.countdowns, roomCode)
		log.Debug().Str("room", roomCode).Msg("countdown cancelled")
	}
}

// runCountdown broadcasts remaining seconds every tick and triggers the
// timeout round end once the deadline passes.
func (s *Scheduler) runCountdown(roomCode string, deadline time.Time, stop chan struct{}) {
	ticker := s.clock.NewTicker(s.timings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			room, ok := s.registry.Get(roomCode)
			if !ok {
				return
			}
			room.Lock()
			active := room.RoundActive
			roomDeadline := room.RoundDeadline
			room.Unlock()
			if !active {
				return
			}

			left := s.secondsLeft(roomDeadline)
			s.broadcaster.Broadcast(roomCode, EventTimer, left)
			if left <= 0 {
				s.EndRound(roomCode)
				return
			}
		}
	}
}

// secondsLeft converts a deadline into whole remaining seconds, rounded up,
// clamped at zero.
func (s *Scheduler) secondsLeft(deadline time.Time) int {
	left := deadline.Sub(s.clock.Now())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}
