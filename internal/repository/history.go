package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/internal/repository/storage/sqlite"
)

// GameRecord is one finished game as archived for the history and
// leaderboard readers.
type GameRecord struct {
	RoomKey    string
	Outcome    entity.Outcome
	PlayerX    string
	PlayerO    string
	ScoreX     int
	ScoreO     int
	FinishedAt int64
}

type HistoryRepository interface {
	Init(ctx context.Context) error
	Archive(ctx context.Context, session *entity.GameSession) error
	ListRecent(ctx context.Context, limit int) ([]GameRecord, error)
}

type dbHistory struct {
	storage *sqlite.Storage
}

func NewHistoryRepository(storage *sqlite.Storage) HistoryRepository {
	return &dbHistory{
		storage: storage,
	}
}

func (that *dbHistory) Init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS game_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_key TEXT NOT NULL,
		outcome TEXT NOT NULL,
		player_x TEXT NOT NULL,
		player_o TEXT NOT NULL,
		score_x INTEGER NOT NULL,
		score_o INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	)`

	_, err := that.storage.Connection.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("can't create game_history table: %w", err)
	}

	return nil
}

// Archive appends one row per finished game; sessions cycle through rematch,
// so the same room key shows up once per completed round.
func (that *dbHistory) Archive(ctx context.Context, session *entity.GameSession) error {
	record := GameRecord{
		RoomKey:    session.RoomKey,
		Outcome:    session.Outcome,
		FinishedAt: time.Now().UnixMilli(),
	}

	if session.Players.X != nil {
		record.PlayerX = session.Players.X.Identity
		record.ScoreX = session.Players.X.Score
	}
	if session.Players.O != nil {
		record.PlayerO = session.Players.O.Identity
		record.ScoreO = session.Players.O.Score
	}

	query := `INSERT INTO game_history (room_key, outcome, player_x, player_o, score_x, score_o, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := that.storage.Connection.ExecContext(ctx, query,
		record.RoomKey, string(record.Outcome), record.PlayerX, record.PlayerO,
		record.ScoreX, record.ScoreO, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("can't insert game record: %w", err)
	}

	return nil
}

func (that *dbHistory) ListRecent(ctx context.Context, limit int) ([]GameRecord, error) {
	query := `SELECT room_key, outcome, player_x, player_o, score_x, score_o, finished_at
		FROM game_history ORDER BY finished_at DESC, id DESC LIMIT ?`

	rows, err := that.storage.Connection.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't query game records: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var record GameRecord
		var outcome string

		if err = rows.Scan(&record.RoomKey, &outcome, &record.PlayerX, &record.PlayerO,
			&record.ScoreX, &record.ScoreO, &record.FinishedAt); err != nil {
			return nil, fmt.Errorf("can't scan game record: %w", err)
		}

		record.Outcome = entity.Outcome(outcome)
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game records: %w", err)
	}

	return records, nil
}
