package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"quizrush/internal/quiz"
)

const (
	// MaxPlayersPerRoom caps room membership; joins beyond it are rejected.
	MaxPlayersPerRoom = 10

	// DefaultRoomCode is used when a join request leaves the code blank.
	DefaultRoomCode = "DEFAULT"

	// DefaultNickname is used when a join request leaves the nickname blank.
	DefaultNickname = "Pemain"

	// noCorrectRound marks a player who has not answered correctly yet.
	noCorrectRound = -1
)

// Player is one connection's state within a room.
type Player struct {
	ID               string
	Nickname         string
	Score            int
	LastCorrectRound int
	Ready            bool
	HasAnswered      bool
}

// Room is the authoritative state of one game instance. All fields are
// guarded by mu; helpers suffixed Locked expect the caller to hold it.
type Room struct {
	mu sync.Mutex

	Code      string
	Players   map[string]*Player
	CreatorID string

	RoundIndex    int
	RoundActive   bool
	RoundStart    time.Time
	RoundDeadline time.Time

	GameStarted bool
	GameEnded   bool

	Theme      quiz.Theme
	Questions  []quiz.Question
	QuizReady  bool
	Generating bool
}

func newRoom(code string) *Room {
	return &Room{
		Code:    code,
		Players: make(map[string]*Player),
	}
}

// Lock acquires the room's mutex. Every handler and timer callback runs its
// whole mutation under this lock, which is what reduces per-room concurrency
// to ordering of queued callbacks.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room's mutex.
func (r *Room) Unlock() { r.mu.Unlock() }

// NormalizeRoomCode trims and uppercases a room code, substituting the
// default for a blank one. Room codes are case-insensitive.
func NormalizeRoomCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultRoomCode
	}
	return code
}

func normalizeNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = DefaultNickname
	}
	return nickname
}

// currentQuestionLocked returns the active question, or nil when the round
// index is out of range (defensive staleness guard).
func (r *Room) currentQuestionLocked() *quiz.Question {
	if r.RoundIndex < 0 || r.RoundIndex >= len(r.Questions) {
		return nil
	}
	return &r.Questions[r.RoundIndex]
}

// scoreboardLocked builds the ranked scoreboard: descending score, ties
// broken by ascending nickname.
func (r *Room) scoreboardLocked() []ScoreEntry {
	entries := lo.MapToSlice(r.Players, func(_ string, p *Player) ScoreEntry {
		return ScoreEntry{ID: p.ID, Nickname: p.Nickname, Score: p.Score}
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Nickname < entries[j].Nickname
	})
	return entries
}

// playersStateLocked snapshots the lobby-visible room state.
func (r *Room) playersStateLocked() PlayersStatePayload {
	players := lo.MapToSlice(r.Players, func(_ string, p *Player) PlayerState {
		return PlayerState{ID: p.ID, Nickname: p.Nickname, Ready: p.Ready}
	})
	sort.Slice(players, func(i, j int) bool { return players[i].Nickname < players[j].Nickname })
	return PlayersStatePayload{
		Players:     players,
		GameStarted: r.GameStarted,
		GameEnded:   r.GameEnded,
		Theme:       string(r.Theme),
		QuizReady:   r.QuizReady,
	}
}

// allReadyLocked reports whether every current player toggled ready.
// Empty rooms are never ready.
func (r *Room) allReadyLocked() bool {
	if len(r.Players) == 0 {
		return false
	}
	return lo.EveryBy(lo.Values(r.Players), func(p *Player) bool { return p.Ready })
}

// allAnsweredLocked reports whether every current player answered this
// round. Empty rooms never auto-advance.
func (r *Room) allAnsweredLocked() bool {
	if len(r.Players) == 0 {
		return false
	}
	return lo.EveryBy(lo.Values(r.Players), func(p *Player) bool { return p.HasAnswered })
}

// resetForLobbyLocked returns the room to lobby defaults for a rematch.
// The theme must be re-selected and the quiz re-generated afterwards.
func (r *Room) resetForLobbyLocked() {
	r.RoundIndex = 0
	r.RoundActive = false
	r.RoundStart = time.Time{}
	r.RoundDeadline = time.Time{}
	r.GameStarted = false
	r.GameEnded = false
	r.Theme = ""
	r.Questions = nil
	r.QuizReady = false
	r.Generating = false
	for _, p := range r.Players {
		p.Score = 0
		p.LastCorrectRound = noCorrectRound
		p.Ready = false
		p.HasAnswered = false
	}
}
