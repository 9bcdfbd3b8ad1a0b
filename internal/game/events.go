package game

import "quizrush/internal/quiz"

// Outbound event names. Broadcast events go to every member of a room,
// unicast events only to the originating connection.
const (
	EventJoined         = "joined"
	EventPlayersState   = "playersState"
	EventScoreboard     = "scoreboard"
	EventRound          = "round"
	EventTimer          = "timer"
	EventGuessResult    = "guessResult"
	EventGameStarting   = "gameStarting"
	EventGameOver       = "gameOver"
	EventThemeSet       = "themeSet"
	EventGeneratingQuiz = "generatingQuiz"
	EventQuizReady      = "quizReady"
	EventJoinError      = "joinError"
	EventThemeError     = "themeError"
	EventReadyError     = "readyError"
)

// Broadcaster is the transport collaborator the game core emits through.
type Broadcaster interface {
	// Broadcast delivers an event to every connected member of a room.
	Broadcast(roomCode, event string, payload any)
	// Unicast delivers an event to a single connection.
	Unicast(connectionID, event string, payload any)
}

// JoinedPayload confirms a successful join to the joining connection.
type JoinedPayload struct {
	ID        string `json:"id"`
	RoomCode  string `json:"roomCode"`
	IsCreator bool   `json:"isCreator"`
}

// RoundPayload announces a question. Index is 1-based for display.
type RoundPayload struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Question string        `json:"question"`
	Options  []quiz.Option `json:"options"`
}

// GuessResultPayload answers a guess. ElapsedSeconds is only present on a
// scoring correct answer; Already marks a duplicate-correct resubmission.
type GuessResultPayload struct {
	Correct        bool   `json:"correct"`
	Already        bool   `json:"already,omitempty"`
	Points         int    `json:"points"`
	ElapsedSeconds *int   `json:"elapsedSeconds,omitempty"`
	CorrectAnswer  string `json:"correctAnswer"`
}

// ScoreEntry is one row of a scoreboard.
type ScoreEntry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// PlayerState is one player's lobby-visible state.
type PlayerState struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Ready    bool   `json:"ready"`
}

// PlayersStatePayload is the full room state snapshot broadcast after any
// membership or lifecycle change. IsCreator is always false here; creator
// status is per-connection and delivered on the joined unicast.
type PlayersStatePayload struct {
	Players     []PlayerState `json:"players"`
	GameStarted bool          `json:"gameStarted"`
	GameEnded   bool          `json:"gameEnded"`
	Theme       string        `json:"theme"`
	QuizReady   bool          `json:"quizReady"`
	IsCreator   bool          `json:"isCreator"`
}

// ThemeSetPayload carries the display label of the chosen theme.
type ThemeSetPayload struct {
	Theme string `json:"theme"`
}

// GameOverPayload carries the final ranking.
type GameOverPayload struct {
	TotalRounds     int          `json:"totalRounds"`
	FinalScoreboard []ScoreEntry `json:"finalScoreboard"`
}

// ErrorPayload is the shape of every player-facing error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
