package game

import (
	"context"
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizrush/internal/quiz"
)

// Session is the explicit per-connection record handlers receive: which
// connection an event came from and which room it currently belongs to.
type Session struct {
	ConnectionID string
	RoomCode     string
}

// QuestionSource produces a themed question set. It never fails; provider
// failures are absorbed behind the static fallback set.
type QuestionSource interface {
	Generate(ctx context.Context, theme quiz.Theme) []quiz.Question
}

// ErrRoomFull rejects a join into a room at capacity.
var ErrRoomFull = errors.New("room is full")

// Player-facing messages (unicast inside error events, never Go errors).
const (
	msgRoomFull     = "Room penuh (maksimal 10 pemain)"
	msgNotCreator   = "Hanya pembuat room yang bisa memilih tema"
	msgInvalidTheme = "Tema tidak valid"
	msgGenerating   = "Quiz sedang di-generate, tunggu sebentar"
	msgQuizNotReady = "Tunggu quiz di-generate terlebih dahulu"
)

// Coordinator handles every inbound session event: it validates
// preconditions, mutates room state, and emits the resulting broadcasts
// and unicasts. Time-driven transitions are delegated to the Scheduler.
type Coordinator struct {
	registry    *Registry
	scheduler   *Scheduler
	broadcaster Broadcaster
	questions   QuestionSource
	clock       clockwork.Clock
	maxPlayers  int
}

// NewCoordinator wires the session coordinator to its collaborators.
func NewCoordinator(registry *Registry, scheduler *Scheduler, broadcaster Broadcaster, questions QuestionSource, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		registry:    registry,
		scheduler:   scheduler,
		broadcaster: broadcaster,
		questions:   questions,
		clock:       clock,
		maxPlayers:  MaxPlayersPerRoom,
	}
}

// Join registers the session in a room, creating the room on first join.
// A session already in a room leaves it first, so a re-join never strands a
// ghost player behind; a rejected switch keeps the old membership. The
// first joiner becomes the creator. A joiner into a running game gets a
// catch-up unicast of the current question and remaining time. Returns
// ErrRoomFull (after unicasting joinError) when the room is at capacity.
func (c *Coordinator) Join(sess *Session, nickname, roomCode string) error {
	if sess.RoomCode != "" && c.CanJoin(roomCode) {
		c.Leave(sess)
	}

	code := NormalizeRoomCode(roomCode)
	nickname = normalizeNickname(nickname)

	room := c.registry.GetOrCreate(code)

	room.Lock()
	if len(room.Players) >= c.maxPlayers {
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventJoinError, ErrorPayload{Message: msgRoomFull})
		return ErrRoomFull
	}

	room.Players[sess.ConnectionID] = &Player{
		ID:               sess.ConnectionID,
		Nickname:         nickname,
		LastCorrectRound: noCorrectRound,
	}
	if room.CreatorID == "" {
		room.CreatorID = sess.ConnectionID
	}
	isCreator := room.CreatorID == sess.ConnectionID
	inProgress := room.GameStarted && room.RoundActive
	scoreboard := room.scoreboardLocked()
	state := room.playersStateLocked()
	room.Unlock()

	sess.RoomCode = code

	log.Info().
		Str("room", code).
		Str("player", sess.ConnectionID).
		Str("nickname", nickname).
		Bool("creator", isCreator).
		Msg("player joined")

	c.broadcaster.Unicast(sess.ConnectionID, EventJoined, JoinedPayload{
		ID:        sess.ConnectionID,
		RoomCode:  code,
		IsCreator: isCreator,
	})

	if inProgress {
		if round, left, ok := c.scheduler.CatchUp(room); ok {
			c.broadcaster.Unicast(sess.ConnectionID, EventRound, round)
			c.broadcaster.Unicast(sess.ConnectionID, EventTimer, left)
		}
	}

	c.broadcaster.Broadcast(code, EventScoreboard, scoreboard)
	c.broadcaster.Broadcast(code, EventPlayersState, state)
	return nil
}

// CanJoin reports whether the room behind the (unnormalized) code has
// capacity for another player. Unseen codes always have capacity.
func (c *Coordinator) CanJoin(roomCode string) bool {
	room, ok := c.registry.Get(NormalizeRoomCode(roomCode))
	if !ok {
		return true
	}
	room.Lock()
	defer room.Unlock()
	return len(room.Players) < c.maxPlayers
}

// SetTheme stores the theme and kicks off asynchronous question generation.
// Creator-only; rejected while a generation for this room is already
// pending.
func (c *Coordinator) SetTheme(sess *Session, themeID string) {
	room, player := c.lookup(sess)
	if room == nil || player == nil {
		return
	}

	room.Lock()
	if sess.ConnectionID != room.CreatorID {
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventThemeError, ErrorPayload{Message: msgNotCreator})
		return
	}
	theme := quiz.Theme(strings.ToLower(strings.TrimSpace(themeID)))
	if !theme.Valid() {
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventThemeError, ErrorPayload{Message: msgInvalidTheme})
		return
	}
	if room.Generating {
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventThemeError, ErrorPayload{Message: msgGenerating})
		return
	}
	room.Theme = theme
	room.Generating = true
	room.QuizReady = false
	room.Questions = nil
	code := room.Code
	room.Unlock()

	log.Info().Str("room", code).Str("theme", string(theme)).Msg("theme selected, generating quiz")

	c.broadcaster.Broadcast(code, EventThemeSet, ThemeSetPayload{Theme: theme.Label()})
	c.broadcaster.Broadcast(code, EventGeneratingQuiz, struct{}{})

	go c.generateQuiz(code, theme)
}

// generateQuiz runs the external generation call off the handler path and
// installs the result. The room may have been deleted or re-themed while
// the call was in flight; both cases are dropped silently.
func (c *Coordinator) generateQuiz(code string, theme quiz.Theme) {
	questions := c.questions.Generate(context.Background(), theme)

	room, ok := c.registry.Get(code)
	if !ok {
		return
	}
	room.Lock()
	if room.Theme != theme {
		room.Unlock()
		return
	}
	room.Questions = questions
	room.QuizReady = true
	room.Generating = false
	state := room.playersStateLocked()
	room.Unlock()

	log.Info().Str("room", code).Str("theme", string(theme)).Msg("quiz ready")

	c.broadcaster.Broadcast(code, EventQuizReady, struct{}{})
	c.broadcaster.Broadcast(code, EventPlayersState, state)
}

// Ready toggles the player's ready flag. The all-ready check runs on every
// toggle; the toggle that completes it starts the game exactly once.
func (c *Coordinator) Ready(sess *Session) {
	room, player := c.lookup(sess)
	if room == nil || player == nil {
		return
	}

	room.Lock()
	if !room.QuizReady {
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventReadyError, ErrorPayload{Message: msgQuizNotReady})
		return
	}
	player.Ready = !player.Ready
	state := room.playersStateLocked()
	starting := room.allReadyLocked() && !room.GameStarted && room.QuizReady
	var startedState PlayersStatePayload
	if starting {
		room.GameStarted = true
		room.GameEnded = false
		for _, p := range room.Players {
			p.Ready = false
		}
		startedState = room.playersStateLocked()
	}
	code := room.Code
	room.Unlock()

	c.broadcaster.Broadcast(code, EventPlayersState, state)

	if starting {
		log.Info().Str("room", code).Msg("all players ready, starting game")
		c.broadcaster.Broadcast(code, EventPlayersState, startedState)
		c.broadcaster.Broadcast(code, EventGameStarting, struct{}{})
		c.scheduler.ScheduleGameStart(code)
	}
}

// Guess evaluates an answer against the active round. Scoring happens at
// most once per player per round; repeated guesses are permitted, marked
// answered, and acknowledged, but a wrong answer can still be corrected
// later in the same round.
func (c *Coordinator) Guess(sess *Session, answer string) {
	room, player := c.lookup(sess)
	if room == nil || player == nil {
		return
	}

	room.Lock()
	if !room.RoundActive {
		room.Unlock()
		return
	}
	q := room.currentQuestionLocked()
	if q == nil {
		room.Unlock()
		return
	}
	code := room.Code
	player.HasAnswered = true

	if player.LastCorrectRound == room.RoundIndex {
		all := room.allAnsweredLocked()
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventGuessResult, GuessResultPayload{
			Correct:       true,
			Already:       true,
			Points:        0,
			CorrectAnswer: q.CorrectLabel,
		})
		if all {
			c.scheduler.ScheduleRoundEnd(code, c.scheduler.Timings().DuplicateAckDelay)
		}
		return
	}

	correct := strings.EqualFold(strings.TrimSpace(answer), q.CorrectLabel)
	if !correct {
		all := room.allAnsweredLocked()
		room.Unlock()
		c.broadcaster.Unicast(sess.ConnectionID, EventGuessResult, GuessResultPayload{
			Correct:       false,
			Points:        0,
			CorrectAnswer: q.CorrectLabel,
		})
		if all {
			c.scheduler.ScheduleRoundEnd(code, c.scheduler.Timings().AllAnsweredDelay)
		}
		return
	}

	// Elapsed time is the server's receipt time of the guess, never
	// client-reported.
	elapsed := int(c.clock.Now().Sub(room.RoundStart).Seconds())
	points := Points(elapsed)
	player.Score += points
	player.LastCorrectRound = room.RoundIndex
	scoreboard := room.scoreboardLocked()
	all := room.allAnsweredLocked()
	room.Unlock()

	log.Debug().
		Str("room", code).
		Str("player", sess.ConnectionID).
		Int("elapsed_sec", elapsed).
		Int("points", points).
		Msg("correct answer")

	c.broadcaster.Unicast(sess.ConnectionID, EventGuessResult, GuessResultPayload{
		Correct:        true,
		Points:         points,
		ElapsedSeconds: &elapsed,
		CorrectAnswer:  q.CorrectLabel,
	})
	c.broadcaster.Broadcast(code, EventScoreboard, scoreboard)

	if all {
		c.scheduler.ScheduleRoundEnd(code, c.scheduler.Timings().AllAnsweredDelay)
	}
}

// PlayAgain resets the room to lobby defaults for a rematch. Theme and quiz
// must be chosen again before the next game can start.
func (c *Coordinator) PlayAgain(sess *Session) {
	room, player := c.lookup(sess)
	if room == nil || player == nil {
		return
	}

	room.Lock()
	room.resetForLobbyLocked()
	code := room.Code
	scoreboard := room.scoreboardLocked()
	state := room.playersStateLocked()
	room.Unlock()

	c.scheduler.CancelCountdown(code)

	log.Info().Str("room", code).Msg("room reset for rematch")

	c.broadcaster.Broadcast(code, EventScoreboard, scoreboard)
	c.broadcaster.Broadcast(code, EventPlayersState, state)
}

// RequestState re-broadcasts the current scoreboard and player state, as a
// reconciliation aid for reconnecting clients. No state change.
func (c *Coordinator) RequestState(sess *Session) {
	room, player := c.lookup(sess)
	if room == nil || player == nil {
		return
	}

	room.Lock()
	code := room.Code
	scoreboard := room.scoreboardLocked()
	state := room.playersStateLocked()
	room.Unlock()

	c.broadcaster.Broadcast(code, EventScoreboard, scoreboard)
	c.broadcaster.Broadcast(code, EventPlayersState, state)
}

// Leave removes the session's player from its room, deleting the room (and
// cancelling its countdown) when it empties. Used for both explicit leave
// and disconnect.
func (c *Coordinator) Leave(sess *Session) {
	code := sess.RoomCode
	if code == "" {
		return
	}
	room, ok := c.registry.Get(code)
	if !ok {
		sess.RoomCode = ""
		return
	}

	room.Lock()
	if _, ok := room.Players[sess.ConnectionID]; !ok {
		room.Unlock()
		sess.RoomCode = ""
		return
	}
	delete(room.Players, sess.ConnectionID)
	empty := len(room.Players) == 0
	scoreboard := room.scoreboardLocked()
	state := room.playersStateLocked()
	room.Unlock()

	sess.RoomCode = ""

	log.Info().Str("room", code).Str("player", sess.ConnectionID).Msg("player left")

	if empty {
		c.scheduler.CancelCountdown(code)
		c.registry.Delete(code)
		return
	}

	c.broadcaster.Broadcast(code, EventScoreboard, scoreboard)
	c.broadcaster.Broadcast(code, EventPlayersState, state)
}

// lookup resolves the session's room and player, returning nils for stale
// or out-of-order events (silent no-op guard).
func (c *Coordinator) lookup(sess *Session) (*Room, *Player) {
	if sess.RoomCode == "" {
		return nil, nil
	}
	room, ok := c.registry.Get(sess.RoomCode)
	if !ok {
		return nil, nil
	}
	room.Lock()
	player := room.Players[sess.ConnectionID]
	room.Unlock()
	if player == nil {
		return nil, nil
	}
	return room, player
}
