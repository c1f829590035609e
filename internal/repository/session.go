package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playhub/tictactoe-backend/internal/entity"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrTooMuchRetries  = errors.New("transactional update kept conflicting")
)

// maxTxRetries bounds optimistic-lock retries before giving up.
const maxTxRetries = 64

type SessionRepository interface {
	Create(ctx context.Context, session *entity.GameSession) error
	GetByKey(ctx context.Context, roomKey string) (*entity.GameSession, error)
	UpdateTx(ctx context.Context, roomKey string, mutate func(*entity.GameSession) error) (*entity.GameSession, error)
	Subscribe(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error)
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func sessionKey(roomKey string) string {
	return "session:" + roomKey
}

func eventsChannel(roomKey string) string {
	return "session:events:" + roomKey
}

// Create stores a new session, failing if the room key is already taken.
func (that *dbSession) Create(ctx context.Context, session *entity.GameSession) error {
	session.Version = 1

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	created, err := that.client.SetNX(ctx, sessionKey(session.RoomKey), sessionJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: room %s", ErrSessionExists, session.RoomKey)
	}

	return nil
}

func (that *dbSession) GetByKey(ctx context.Context, roomKey string) (*entity.GameSession, error) {
	response, err := that.client.Get(ctx, sessionKey(roomKey)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: room %s", ErrSessionNotFound, roomKey)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by room key: %w", err)
	}

	var session entity.GameSession
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// UpdateTx runs mutate inside a WATCH/MULTI transaction: the write only lands
// if no one else touched the record since it was read. A mutate error aborts
// the transaction and is returned unchanged, leaving the stored session
// untouched. Every successful write bumps Version and publishes the new
// snapshot to the room's event channel.
func (that *dbSession) UpdateTx(ctx context.Context, roomKey string, mutate func(*entity.GameSession) error) (*entity.GameSession, error) {
	key := sessionKey(roomKey)

	var updated *entity.GameSession

	transaction := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: room %s", ErrSessionNotFound, roomKey)
		}
		if err != nil {
			return fmt.Errorf("failed to get session by room key: %w", err)
		}

		var session entity.GameSession
		if err = json.Unmarshal([]byte(response), &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		if err = mutate(&session); err != nil {
			return err
		}

		session.Version++

		sessionJSON, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("could not marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, sessionJSON, 0)
			pipe.Publish(ctx, eventsChannel(roomKey), sessionJSON)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &session

		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := that.client.Watch(ctx, transaction, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("%w: room %s", ErrTooMuchRetries, roomKey)
}

// Subscribe streams session snapshots published by UpdateTx until the context
// is canceled or the returned close func is called.
func (that *dbSession) Subscribe(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error) {
	pubsub := that.client.Subscribe(ctx, eventsChannel(roomKey))

	// force the subscription confirmation so no update published after this
	// call returns can be missed
	_, _ = pubsub.Receive(ctx)

	updates := make(chan *entity.GameSession, 16)

	go func() {
		defer close(updates)

		for msg := range pubsub.Channel() {
			var session entity.GameSession
			if err := json.Unmarshal([]byte(msg.Payload), &session); err != nil {
				continue
			}

			select {
			case updates <- &session:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, pubsub.Close
}
