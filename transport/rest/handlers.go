package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/internal/repository"
)

const defaultHistoryLimit = 20

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	RoomSnapshotHandler(w http.ResponseWriter, r *http.Request)
	HistoryHandler(w http.ResponseWriter, r *http.Request)
}

type roomService interface {
	GetSession(ctx context.Context, roomKey string) (*entity.GameSession, error)
}

type historyRepo interface {
	ListRecent(ctx context.Context, limit int) ([]repository.GameRecord, error)
}

type handlers struct {
	rooms   roomService
	history historyRepo
}

func NewHandlers(rooms roomService, history historyRepo) Handlers {
	return &handlers{
		rooms:   rooms,
		history: history,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// RoomSnapshotHandler serves a read-only session snapshot for rendering.
func (that *handlers) RoomSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	roomKey := strings.TrimPrefix(r.URL.Path, "/rooms/")
	if roomKey == "" {
		http.Error(w, "room key is required", http.StatusBadRequest)
		return
	}

	session, err := that.rooms.GetSession(r.Context(), roomKey)
	if errors.Is(err, repository.ErrSessionNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, session.Snapshot())
}

func (that *handlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := that.history.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(value); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
