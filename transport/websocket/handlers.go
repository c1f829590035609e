package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/pkg/roomkey"
)

// client is one connected participant bound to a single room.
type client struct {
	server *Server
	conn   *websocket.Conn

	identity    string
	displayName string

	roomKey string
	role    entity.Role
}

// run drives the session: the first message must join a room, after that the
// client submits moves, rematch flags, and chat while room updates stream
// back on the same connection.
func (that *client) run(ctx context.Context) error {
	if err := that.handleJoin(ctx); err != nil {
		return err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	updates, closeWatch := that.server.rooms.WatchSession(watchCtx, that.roomKey)
	defer func() {
		_ = closeWatch()
	}()

	go that.pushUpdates(watchCtx, updates)

	for {
		var msg Message
		if err := wsjson.Read(ctx, that.conn, &msg); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := that.dispatch(ctx, &msg); err != nil {
			return err
		}
	}
}

func (that *client) handleJoin(ctx context.Context) error {
	var msg Message
	if err := wsjson.Read(ctx, that.conn, &msg); err != nil {
		return fmt.Errorf("failed to read join message: %w", err)
	}

	if msg.Action != actionJoin {
		return fmt.Errorf("expected %s as first action, got %s", actionJoin, msg.Action)
	}

	var payload Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	key := payload.RoomKey
	if key == "" {
		key = roomkey.New()
	}

	participant := entity.Player{Identity: that.identity, DisplayName: that.displayName}

	role, session, err := that.server.rooms.JoinOrCreate(ctx, key, participant)
	if err != nil {
		_ = that.server.sendErrorResponse(ctx, that.conn, msg.Action, err)
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.roomKey = key
	that.role = role

	return that.server.sendMessage(ctx, that.conn, actionJoin, Payload{
		RoomKey: key,
		Role:    role,
		Session: session.Snapshot(),
	})
}

func (that *client) dispatch(ctx context.Context, msg *Message) error {
	var payload Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	var err error

	switch msg.Action {
	case actionMove:
		err = that.handleMove(ctx, &payload)
	case actionRematch:
		_, err = that.server.rooms.SubmitRematchReady(ctx, that.roomKey, that.identity)
	case actionChat:
		_, err = that.server.rooms.PostChatMessage(ctx, that.roomKey, that.identity, that.displayName, payload.Text)
	default:
		err = fmt.Errorf("unknown action: %s", msg.Action)
	}

	// validation rejects go back to this client only, the room stays as-is
	if err != nil {
		return that.server.sendErrorResponse(ctx, that.conn, msg.Action, err)
	}

	return nil
}

func (that *client) handleMove(ctx context.Context, payload *Payload) error {
	if payload.Cell == nil {
		return fmt.Errorf("%w: cell is required", apperror.ErrInvalidMove)
	}

	_, err := that.server.rooms.SubmitMove(ctx, that.roomKey, that.identity, *payload.Cell)

	return err
}

// pushUpdates forwards room snapshots to this client until the watch closes.
func (that *client) pushUpdates(ctx context.Context, updates <-chan *entity.GameSession) {
	log := that.server.logger.With("method", "pushUpdates", "roomKey", that.roomKey)

	for session := range updates {
		err := that.server.sendMessage(ctx, that.conn, actionUpdate, Payload{
			RoomKey: that.roomKey,
			Session: session,
		})
		if err != nil {
			log.Debug("stopped pushing updates", "identity", that.identity, "error", err)
			return
		}
	}
}

func marshalPayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return raw, nil
}
