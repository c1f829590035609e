package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/internal/repository"
)

var ErrEmptyMessage = errors.New("chat message is empty")

type RoomService interface {
	JoinOrCreate(ctx context.Context, roomKey string, participant entity.Player) (entity.Role, *entity.GameSession, error)
	SubmitMove(ctx context.Context, roomKey, identity string, cell int) (*entity.GameSession, error)
	SubmitRematchReady(ctx context.Context, roomKey, identity string) (*entity.GameSession, error)
	PostChatMessage(ctx context.Context, roomKey, identity, displayName, text string) (*entity.GameSession, error)

	GetSession(ctx context.Context, roomKey string) (*entity.GameSession, error)
	WatchSession(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error)
}

type sessionRepo interface {
	Create(ctx context.Context, session *entity.GameSession) error
	GetByKey(ctx context.Context, roomKey string) (*entity.GameSession, error)
	UpdateTx(ctx context.Context, roomKey string, mutate func(*entity.GameSession) error) (*entity.GameSession, error)
	Subscribe(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error)
}

type historyRepo interface {
	Archive(ctx context.Context, session *entity.GameSession) error
}

type roomService struct {
	logger *slog.Logger

	sessionRepo sessionRepo
	historyRepo historyRepo
}

func NewRoomService(logger *slog.Logger, sessionRepo sessionRepo, historyRepo historyRepo) RoomService {
	return &roomService{
		logger: logger,

		sessionRepo: sessionRepo,
		historyRepo: historyRepo,
	}
}

// JoinOrCreate resolves a participant into a room. An unknown room key
// creates the session with the caller seated as X; the second distinct
// identity takes O and starts the game; a seated identity reconnects to its
// existing role; everyone else becomes a spectator.
func (that *roomService) JoinOrCreate(ctx context.Context, roomKey string, participant entity.Player) (entity.Role, *entity.GameSession, error) {
	session, err := that.sessionRepo.GetByKey(ctx, roomKey)

	if errors.Is(err, repository.ErrSessionNotFound) {
		fresh := entity.NewSession(roomKey, participant)

		err = that.sessionRepo.Create(ctx, fresh)
		if err == nil {
			return entity.RoleX, fresh, nil
		}
		if !errors.Is(err, repository.ErrSessionExists) {
			return entity.RoleSpectator, nil, fmt.Errorf("failed to create session: %w", err)
		}

		// lost the creation race, join the session someone else created
		session, err = that.sessionRepo.GetByKey(ctx, roomKey)
	}

	if err != nil {
		return entity.RoleSpectator, nil, fmt.Errorf("failed to get session: %w", err)
	}

	if role := session.RoleOf(participant.Identity); role != entity.RoleSpectator {
		return role, session, nil
	}

	if session.Players.X == nil {
		return entity.RoleSpectator, nil, fmt.Errorf("%w: room %s", apperror.ErrSessionCorrupted, roomKey)
	}

	if session.Players.O != nil {
		return entity.RoleSpectator, session, nil
	}

	updated, err := that.sessionRepo.UpdateTx(ctx, roomKey, func(current *entity.GameSession) error {
		if current.RoleOf(participant.Identity) != entity.RoleSpectator {
			return nil
		}
		return current.SeatO(participant)
	})

	if errors.Is(err, apperror.ErrRoomFull) {
		// someone else took the O seat between the read and the write
		session, err = that.sessionRepo.GetByKey(ctx, roomKey)
		if err != nil {
			return entity.RoleSpectator, nil, fmt.Errorf("failed to get session: %w", err)
		}
		return session.RoleOf(participant.Identity), session, nil
	}

	if err != nil {
		return entity.RoleSpectator, nil, fmt.Errorf("failed to join session: %w", err)
	}

	return updated.RoleOf(participant.Identity), updated, nil
}

// SubmitMove applies one move for the caller's mark. Wins bump the winner's
// score and keep the turn mark in place; any other outcome flips the turn.
func (that *roomService) SubmitMove(ctx context.Context, roomKey, identity string, cell int) (*entity.GameSession, error) {
	session, err := that.sessionRepo.UpdateTx(ctx, roomKey, func(current *entity.GameSession) error {
		role := current.RoleOf(identity)
		if role == entity.RoleSpectator {
			return apperror.ErrNotAPlayer
		}

		if current.IsWaiting() {
			return apperror.ErrGameIsNotStarted
		}

		if current.Outcome.IsTerminal() {
			return apperror.ErrGameFinished
		}

		if current.TurnMark != role.Mark() {
			return apperror.ErrNotYourTurn
		}

		board, moveErr := entity.ApplyMove(current.Board, cell, role.Mark())
		if moveErr != nil {
			return moveErr
		}

		current.Board = board
		current.Outcome = entity.Evaluate(board)

		if winner, won := current.Outcome.Winner(); won {
			if player := current.PlayerByMark(winner); player != nil {
				player.Score++
			}
			// turn mark stays on the winner, the game is over anyway
			return nil
		}

		current.TurnMark = current.TurnMark.Other()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit move: %w", err)
	}

	if session.Outcome.IsTerminal() {
		that.archiveGame(ctx, session)
	}

	return session, nil
}

// SubmitRematchReady flags the caller as ready for a rematch. Once both
// players are ready the board resets, the opening turn passes to the other
// mark, and the flags clear. Scores carry over.
func (that *roomService) SubmitRematchReady(ctx context.Context, roomKey, identity string) (*entity.GameSession, error) {
	session, err := that.sessionRepo.UpdateTx(ctx, roomKey, func(current *entity.GameSession) error {
		role := current.RoleOf(identity)
		if role == entity.RoleSpectator {
			return apperror.ErrNotAPlayer
		}

		if !current.Outcome.IsTerminal() {
			return apperror.ErrNoActiveOutcome
		}

		switch role {
		case entity.RoleX:
			current.Rematch.X = true
		case entity.RoleO:
			current.Rematch.O = true
		}

		if current.Rematch.X && current.Rematch.O {
			current.Board = entity.NewBoard()
			current.Outcome = entity.OutcomeInProgress
			current.LastStarter = current.LastStarter.Other()
			current.TurnMark = current.LastStarter
			current.Rematch = entity.RematchFlags{}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit rematch: %w", err)
	}

	return session, nil
}

// PostChatMessage appends to the room's chat log. Spectators may chat; the
// stored display name wins over the supplied one for seated players.
func (that *roomService) PostChatMessage(ctx context.Context, roomKey, identity, displayName, text string) (*entity.GameSession, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	session, err := that.sessionRepo.UpdateTx(ctx, roomKey, func(current *entity.GameSession) error {
		sender := displayName
		if player := current.PlayerByRole(current.RoleOf(identity)); player != nil {
			sender = player.DisplayName
		}

		current.Chat = append(current.Chat, entity.ChatMessage{
			Sender: sender,
			Text:   text,
			SentAt: time.Now().UnixMilli(),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post chat message: %w", err)
	}

	return session, nil
}

func (that *roomService) GetSession(ctx context.Context, roomKey string) (*entity.GameSession, error) {
	session, err := that.sessionRepo.GetByKey(ctx, roomKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (that *roomService) WatchSession(ctx context.Context, roomKey string) (<-chan *entity.GameSession, func() error) {
	return that.sessionRepo.Subscribe(ctx, roomKey)
}

// archiveGame records a finished round for the history readers. Archiving is
// best effort: a failure must not undo an accepted move.
func (that *roomService) archiveGame(ctx context.Context, session *entity.GameSession) {
	if that.historyRepo == nil {
		return
	}

	if err := that.historyRepo.Archive(ctx, session); err != nil {
		that.logger.Error("failed to archive finished game", "roomKey", session.RoomKey, "error", err)
	}
}
