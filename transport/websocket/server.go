package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playhub/tictactoe-backend/internal/entity"
)

type roomService interface {
	JoinOrCreate(ctx context.Context, roomKey string, participant entity.Player) (entity.Role, *entity.GameSession, error)
	SubmitMove(ctx context.Context, roomKey, identity string, cell int) (*entity.GameSession, error)
	SubmitRematchReady(ctx context.Context, roomKey, identity string) (*entity.GameSession, error)
	PostChatMessage(ctx context.Context, roomKey, identity, displayName, text string) (*entity.GameSession, error)
	WatchSession(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error)
}

type Server struct {
	logger *slog.Logger
	rooms  roomService
}

func New(logger *slog.Logger, rooms roomService) *Server {
	return &Server{
		logger: logger,
		rooms:  rooms,
	}
}

// Start - starts the WebSocket server and shuts it down with the context.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.handleConnection)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnection upgrades the request and runs one client session. The
// identity layer is external: the client arrives with an opaque identity and
// a display name in the query string.
func (that *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	identity := r.URL.Query().Get("identity")
	displayName := r.URL.Query().Get("name")

	if identity == "" {
		http.Error(w, "identity is required", http.StatusBadRequest)
		return
	}

	if displayName == "" {
		displayName = "Player"
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("failed to accept websocket connection", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	client := &client{
		server:      that,
		conn:        conn,
		identity:    identity,
		displayName: displayName,
	}

	if err = client.run(r.Context()); err != nil {
		var closeErr websocket.CloseError
		if !errors.As(err, &closeErr) && !errors.Is(err, context.Canceled) {
			log.Error("client session ended with error", "identity", identity, "error", err)
			return
		}
	}

	conn.Close(websocket.StatusNormalClosure, "bye")
}

func (that *Server) sendMessage(ctx context.Context, conn *websocket.Conn, action string, payload Payload) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	if err = wsjson.Write(ctx, conn, &Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(ctx context.Context, conn *websocket.Conn, action string, err error) error {
	return that.sendMessage(ctx, conn, actionError, Payload{
		Error: err.Error(),
		Kind:  classifyError(err),
		Text:  action,
	})
}
