package service

import (
	"context"
	"fmt"

	"github.com/vediprashant/bluff-api/internal/gamesvc/engine"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
	"github.com/vediprashant/bluff-api/internal/gamesvc/store"
)

type GameService struct {
	gameStore   *store.GameStore
	playerStore *store.GamePlayerStore
}

func NewGameService(gameStore *store.GameStore, playerStore *store.GamePlayerStore) *GameService {
	return &GameService{gameStore: gameStore, playerStore: playerStore}
}

func (s *GameService) GetGameByID(ctx context.Context, gameID int64) (*models.Game, error) {
	return s.gameStore.GetGameByID(ctx, gameID)
}

// CreateGame validates the deck count and creates the game with its owner
// seat and genesis snapshot.
func (s *GameService) CreateGame(ctx context.Context, decks int, ownerID int64) (*models.Game, error) {
	if decks < 1 || decks > 3 {
		return nil, fmt.Errorf("%w: decks must be between 1 and 3, got %d", engine.ErrValidation, decks)
	}
	return s.gameStore.CreateGame(ctx, decks, ownerID)
}

// InvitePlayer adds a participant without a seat; the seat is assigned on
// their first socket connect. Owner only.
func (s *GameService) InvitePlayer(ctx context.Context, gameID, inviterID, userID int64) (*models.GamePlayer, error) {
	game, err := s.gameStore.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %d", engine.ErrGameNotFound, gameID)
	}
	if game.OwnerID != inviterID {
		return nil, fmt.Errorf("%w: only the owner can invite", engine.ErrValidation)
	}
	if game.Started {
		return nil, fmt.Errorf("%w: cannot invite after the deal", engine.ErrGameStarted)
	}
	return s.playerStore.InvitePlayer(ctx, gameID, userID)
}

func (s *GameService) ListGamesForUser(ctx context.Context, userID int64, completed *bool) ([]*models.Game, error) {
	return s.gameStore.ListGamesForUser(ctx, userID, completed)
}

func (s *GameService) GetGamePlayers(ctx context.Context, gameID int64) ([]*models.GamePlayer, error) {
	return s.playerStore.GetPlayersByGameID(ctx, gameID)
}
