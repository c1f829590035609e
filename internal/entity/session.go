package entity

import (
	"time"

	"github.com/playhub/tictactoe-backend/internal/apperror"
)

const (
	StatusWaiting = "waiting"
	StatusPlaying = "playing"
)

// Role is a participant's assignment within a session. Anyone who is not one
// of the two seated players is a spectator: read-only plus chat.
type Role string

const (
	RoleX         Role = "X"
	RoleO         Role = "O"
	RoleSpectator Role = "spectator"
)

// Mark returns the board mark a role plays with.
func (that Role) Mark() Mark {
	switch that {
	case RoleX:
		return MarkX
	case RoleO:
		return MarkO
	default:
		return MarkEmpty
	}
}

type Player struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

type Players struct {
	X *Player `json:"X,omitempty"`
	O *Player `json:"O,omitempty"`
}

type RematchFlags struct {
	X bool `json:"X"`
	O bool `json:"O"`
}

type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	SentAt int64  `json:"sent_at"`
}

// GameSession is the shared per-room record. It is only ever mutated through
// the room service's transactional operations; Version increases by one on
// every successful write so observers can discard stale snapshots.
type GameSession struct {
	RoomKey     string        `json:"room_key"`
	Status      string        `json:"status"`
	Board       Board         `json:"board"`
	TurnMark    Mark          `json:"turn_mark"`
	Outcome     Outcome       `json:"outcome"`
	Players     Players       `json:"players"`
	Rematch     RematchFlags  `json:"rematch"`
	LastStarter Mark          `json:"last_starter"`
	Chat        []ChatMessage `json:"chat,omitempty"`
	Version     int64         `json:"version"`
	CreatedAt   int64         `json:"created_at"`
}

// NewSession creates a waiting session with the creator seated as X.
func NewSession(roomKey string, creator Player) *GameSession {
	creator.Score = 0

	return &GameSession{
		RoomKey:     roomKey,
		Status:      StatusWaiting,
		Board:       NewBoard(),
		TurnMark:    MarkX,
		Outcome:     OutcomeInProgress,
		Players:     Players{X: &creator},
		LastStarter: MarkX,
		CreatedAt:   time.Now().UnixMilli(),
	}
}

// RoleOf resolves an identity to its role in this session.
func (that *GameSession) RoleOf(identity string) Role {
	if that.Players.X != nil && that.Players.X.Identity == identity {
		return RoleX
	}
	if that.Players.O != nil && that.Players.O.Identity == identity {
		return RoleO
	}
	return RoleSpectator
}

// PlayerByRole returns the seated player for X or O, nil otherwise.
func (that *GameSession) PlayerByRole(role Role) *Player {
	switch role {
	case RoleX:
		return that.Players.X
	case RoleO:
		return that.Players.O
	default:
		return nil
	}
}

// PlayerByMark returns the seated player holding the mark.
func (that *GameSession) PlayerByMark(mark Mark) *Player {
	switch mark {
	case MarkX:
		return that.Players.X
	case MarkO:
		return that.Players.O
	default:
		return nil
	}
}

// SeatO assigns the participant to the O seat and starts the game.
func (that *GameSession) SeatO(participant Player) error {
	if that.Players.X == nil {
		return apperror.ErrSessionCorrupted
	}

	if that.Players.O != nil {
		return apperror.ErrRoomFull
	}

	participant.Score = 0
	that.Players.O = &participant
	that.Status = StatusPlaying

	return nil
}

func (that *GameSession) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *GameSession) IsPlaying() bool {
	return that.Status == StatusPlaying
}

// Snapshot returns a deep copy, safe to hand out to observers.
func (that *GameSession) Snapshot() *GameSession {
	copied := *that

	if that.Players.X != nil {
		x := *that.Players.X
		copied.Players.X = &x
	}
	if that.Players.O != nil {
		o := *that.Players.O
		copied.Players.O = &o
	}

	if that.Chat != nil {
		copied.Chat = make([]ChatMessage, len(that.Chat))
		copy(copied.Chat, that.Chat)
	}

	return &copied
}
