package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playhub/tictactoe-backend/internal/apperror"
)

func TestNewSession(t *testing.T) {
	// Given: a participant creating a room
	creator := Player{Identity: "uid-1", DisplayName: "Alice", Score: 7}

	// When: the session is created
	session := NewSession("room-1", creator)

	// Then: the creator is seated as X with a zeroed score and the game waits for an opponent
	assert.Equal(t, StatusWaiting, session.Status)
	assert.Equal(t, MarkX, session.TurnMark)
	assert.Equal(t, MarkX, session.LastStarter)
	assert.Equal(t, OutcomeInProgress, session.Outcome)
	require.NotNil(t, session.Players.X)
	assert.Equal(t, "uid-1", session.Players.X.Identity)
	assert.Zero(t, session.Players.X.Score)
	assert.Nil(t, session.Players.O)
	assert.Equal(t, NewBoard(), session.Board)
	assert.NotZero(t, session.CreatedAt)
}

func TestGameSession_RoleOf(t *testing.T) {
	session := NewSession("room-1", Player{Identity: "uid-x"})
	require.NoError(t, session.SeatO(Player{Identity: "uid-o"}))

	assert.Equal(t, RoleX, session.RoleOf("uid-x"))
	assert.Equal(t, RoleO, session.RoleOf("uid-o"))
	assert.Equal(t, RoleSpectator, session.RoleOf("uid-other"))
}

func TestGameSession_SeatO(t *testing.T) {
	t.Run("Seats the second player and starts the game", func(t *testing.T) {
		// Given: a waiting session
		session := NewSession("room-1", Player{Identity: "uid-x"})

		// When: a second participant takes the O seat
		err := session.SeatO(Player{Identity: "uid-o", DisplayName: "Bob", Score: 3})

		// Then: the session flips to playing and the O score starts at zero
		require.NoError(t, err)
		assert.Equal(t, StatusPlaying, session.Status)
		require.NotNil(t, session.Players.O)
		assert.Zero(t, session.Players.O.Score)
	})

	t.Run("Rejects a third player", func(t *testing.T) {
		session := NewSession("room-1", Player{Identity: "uid-x"})
		require.NoError(t, session.SeatO(Player{Identity: "uid-o"}))

		err := session.SeatO(Player{Identity: "uid-late"})

		assert.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Rejects a session without player X", func(t *testing.T) {
		session := &GameSession{RoomKey: "room-1"}

		err := session.SeatO(Player{Identity: "uid-o"})

		assert.ErrorIs(t, err, apperror.ErrSessionCorrupted)
	})
}

func TestRole_Mark(t *testing.T) {
	assert.Equal(t, MarkX, RoleX.Mark())
	assert.Equal(t, MarkO, RoleO.Mark())
	assert.Equal(t, MarkEmpty, RoleSpectator.Mark())
}

func TestGameSession_Snapshot(t *testing.T) {
	// Given: a session with seated players and chat history
	session := NewSession("room-1", Player{Identity: "uid-x", DisplayName: "Alice"})
	require.NoError(t, session.SeatO(Player{Identity: "uid-o", DisplayName: "Bob"}))
	session.Chat = []ChatMessage{{Sender: "Alice", Text: "hi", SentAt: 1}}

	// When: taking a snapshot and mutating it
	snapshot := session.Snapshot()
	snapshot.Players.X.Score = 99
	snapshot.Chat[0].Text = "edited"
	snapshot.Chat = append(snapshot.Chat, ChatMessage{Sender: "Bob", Text: "yo", SentAt: 2})
	snapshot.Board[0] = MarkX

	// Then: the original session is untouched
	assert.Zero(t, session.Players.X.Score)
	assert.Equal(t, "hi", session.Chat[0].Text)
	assert.Len(t, session.Chat, 1)
	assert.Equal(t, MarkEmpty, session.Board[0])
}
