package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playhub/tictactoe-backend/internal/entity"
)

func newTestSessionRepo(t *testing.T) (context.Context, SessionRepository) {
	t.Helper()

	mini := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return context.Background(), NewSessionRepository(client)
}

func TestSessionRepository_Create(t *testing.T) {
	t.Run("Stores a new session with version 1", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		// Given: a fresh session
		session := entity.NewSession("room-1", entity.Player{Identity: "uid-1", DisplayName: "Alice"})

		// When: Create is called
		err := repo.Create(ctx, session)

		// Then: the session is stored and readable
		require.NoError(t, err)

		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
		assert.Equal(t, "uid-1", stored.Players.X.Identity)
	})

	t.Run("Fails when the room key is already taken", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		session := entity.NewSession("room-1", entity.Player{Identity: "uid-1"})
		require.NoError(t, repo.Create(ctx, session))

		// When: a second create races in on the same key
		err := repo.Create(ctx, entity.NewSession("room-1", entity.Player{Identity: "uid-2"}))

		// Then: the duplicate is rejected and the original survives
		assert.ErrorIs(t, err, ErrSessionExists)

		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", stored.Players.X.Identity)
	})
}

func TestSessionRepository_GetByKey(t *testing.T) {
	ctx, repo := newTestSessionRepo(t)

	_, err := repo.GetByKey(ctx, "no-such-room")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_UpdateTx(t *testing.T) {
	t.Run("Applies the mutation and bumps the version", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		require.NoError(t, repo.Create(ctx, entity.NewSession("room-1", entity.Player{Identity: "uid-1"})))

		// When: the session is mutated transactionally
		updated, err := repo.UpdateTx(ctx, "room-1", func(session *entity.GameSession) error {
			session.Status = entity.StatusPlaying
			return nil
		})

		// Then: the write landed with an incremented version
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPlaying, updated.Status)
		assert.Equal(t, int64(2), updated.Version)

		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPlaying, stored.Status)
	})

	t.Run("A mutation error aborts without writing", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		require.NoError(t, repo.Create(ctx, entity.NewSession("room-1", entity.Player{Identity: "uid-1"})))

		rejected := errors.New("validation failed")

		// When: the mutate callback rejects
		_, err := repo.UpdateTx(ctx, "room-1", func(session *entity.GameSession) error {
			session.Status = entity.StatusPlaying
			return rejected
		})

		// Then: the error passes through and the record is unchanged
		assert.ErrorIs(t, err, rejected)

		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, stored.Status)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("Fails for an unknown room", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		_, err := repo.UpdateTx(ctx, "no-such-room", func(*entity.GameSession) error {
			return nil
		})

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Concurrent appends are all preserved", func(t *testing.T) {
		ctx, repo := newTestSessionRepo(t)

		require.NoError(t, repo.Create(ctx, entity.NewSession("room-1", entity.Player{Identity: "uid-1"})))

		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpdateTx(ctx, "room-1", func(session *entity.GameSession) error {
					session.Chat = append(session.Chat, entity.ChatMessage{Sender: "w", Text: "hi"})
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// Then: no append was lost to a stale read
		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Len(t, stored.Chat, writers)
		assert.Equal(t, int64(1+writers), stored.Version)
	})
}

func TestSessionRepository_Subscribe(t *testing.T) {
	ctx, repo := newTestSessionRepo(t)

	require.NoError(t, repo.Create(ctx, entity.NewSession("room-1", entity.Player{Identity: "uid-1"})))

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, closeSub := repo.Subscribe(subCtx, "room-1")
	defer func() {
		_ = closeSub()
	}()

	// When: a transactional update lands
	_, err := repo.UpdateTx(ctx, "room-1", func(session *entity.GameSession) error {
		session.Status = entity.StatusPlaying
		return nil
	})
	require.NoError(t, err)

	// Then: the subscriber receives the new snapshot
	select {
	case session := <-updates:
		require.NotNil(t, session)
		assert.Equal(t, entity.StatusPlaying, session.Status)
		assert.Equal(t, int64(2), session.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
	}
}
