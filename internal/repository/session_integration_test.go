//go:build integration

package repository_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/internal/repository"
	"github.com/playhub/tictactoe-backend/testing/suite"
)

// Runs against a real redis container; `go test -tags integration ./...`.
func TestSessionRepository_RealRedis(t *testing.T) {
	ctx, st := suite.New(t)

	repo := repository.NewSessionRepository(st.Storage)

	session := entity.NewSession("room-1", entity.Player{Identity: "uid-1", DisplayName: "Alice"})
	require.NoError(t, repo.Create(ctx, session))

	t.Run("Roundtrip", func(t *testing.T) {
		stored, err := repo.GetByKey(ctx, "room-1")

		require.NoError(t, err)
		assert.Equal(t, "uid-1", stored.Players.X.Identity)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("Concurrent transactional updates never lose writes", func(t *testing.T) {
		const writers = 20

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpdateTx(ctx, "room-1", func(current *entity.GameSession) error {
					current.Chat = append(current.Chat, entity.ChatMessage{Sender: "w", Text: "hi"})
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.GetByKey(ctx, "room-1")
		require.NoError(t, err)
		assert.Len(t, stored.Chat, writers)
	})
}
