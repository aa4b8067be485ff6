package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) GetGameByID(ctx context.Context, gameID int64) (*models.Game, error) {
	query := `
		SELECT id, decks, started, owner_id, winner_id, created_at, updated_at
		FROM games
		WHERE id = $1
	`

	game := &models.Game{}
	err := s.db.QueryRow(ctx, query, gameID).Scan(
		&game.ID,
		&game.Decks,
		&game.Started,
		&game.OwnerID,
		&game.WinnerID,
		&game.CreatedAt,
		&game.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	return game, nil
}

// ListGamesForUser returns every game the user participates in, optionally
// filtered on completion (winner set or not).
func (s *GameStore) ListGamesForUser(ctx context.Context, userID int64, completed *bool) ([]*models.Game, error) {
	query := `
		SELECT g.id, g.decks, g.started, g.owner_id, g.winner_id, g.created_at, g.updated_at
		FROM games g
		JOIN game_players gp ON gp.game_id = g.id
		WHERE gp.user_id = $1
	`
	args := []interface{}{userID}
	if completed != nil {
		if *completed {
			query += ` AND g.winner_id IS NOT NULL`
		} else {
			query += ` AND g.winner_id IS NULL`
		}
	}
	query += ` ORDER BY g.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		g := &models.Game{}
		err := rows.Scan(&g.ID, &g.Decks, &g.Started, &g.OwnerID, &g.WinnerID, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// CreateGame creates the game, the owner's seat-1 player row and the
// genesis snapshot with every in-play card on the table, in one
// transaction.
func (s *GameStore) CreateGame(ctx context.Context, decks int, ownerID int64) (*models.Game, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin create game: %w", err)
	}
	defer tx.Rollback(ctx)

	game := &models.Game{Decks: decks, OwnerID: ownerID}
	err = tx.QueryRow(ctx, `
		INSERT INTO games (decks, started, owner_id)
		VALUES ($1, false, $2)
		RETURNING id, decks, started, owner_id, winner_id, created_at, updated_at
	`, decks, ownerID).Scan(
		&game.ID,
		&game.Decks,
		&game.Started,
		&game.OwnerID,
		&game.WinnerID,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	emptyHand := card.Bitset{}
	_, err = tx.Exec(ctx, `
		INSERT INTO game_players (game_id, user_id, player_id, disconnected, no_action, cards)
		VALUES ($1, $2, 1, true, 0, $3)
	`, game.ID, ownerID, emptyHand.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create owner seat: %w", err)
	}

	table := card.Layout{Decks: decks}.InPlay()
	_, err = tx.Exec(ctx, `
		INSERT INTO game_table_snapshots (game_id, cards_on_table, last_cards)
		VALUES ($1, $2, $3)
	`, game.ID, table.String(), emptyHand.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create genesis snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit create game: %w", err)
	}
	return game, nil
}
