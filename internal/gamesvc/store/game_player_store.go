package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GamePlayerStore struct {
	db *pgxpool.Pool
}

func NewGamePlayerStore(db *pgxpool.Pool) *GamePlayerStore {
	return &GamePlayerStore{db: db}
}

const playerColumns = `
	gp.id, gp.game_id, gp.user_id, gp.player_id, gp.disconnected,
	gp.no_action, gp.cards, u.name, gp.created_at, gp.updated_at
`

func scanPlayer(row pgx.Row) (*models.GamePlayer, error) {
	var gp models.GamePlayer
	var cards string
	err := row.Scan(
		&gp.ID,
		&gp.GameID,
		&gp.UserID,
		&gp.PlayerID,
		&gp.Disconnected,
		&gp.NoAction,
		&cards,
		&gp.UserName,
		&gp.CreatedAt,
		&gp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	gp.Cards, err = card.Parse(cards)
	if err != nil {
		return nil, fmt.Errorf("corrupt cards column for player %d: %w", gp.ID, err)
	}
	return &gp, nil
}

func (s *GamePlayerStore) GetPlayersByGameID(ctx context.Context, gameID int64) ([]*models.GamePlayer, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM game_players gp
		JOIN users u ON u.user_id = gp.user_id
		WHERE gp.game_id = $1
		ORDER BY gp.id
	`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.GamePlayer
	for rows.Next() {
		gp, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, gp)
	}

	return players, rows.Err()
}

func (s *GamePlayerStore) GetPlayerByGameAndUser(ctx context.Context, gameID, userID int64) (*models.GamePlayer, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM game_players gp
		JOIN users u ON u.user_id = gp.user_id
		WHERE gp.game_id = $1 AND gp.user_id = $2
	`

	gp, err := scanPlayer(s.db.QueryRow(ctx, query, gameID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return gp, nil
}

// InvitePlayer creates an unseated participant row: invited, not joined.
// It fails if:
// - The user is already part of the game (unique_game_user constraint).
// - Any foreign key (game_id, user_id) is invalid.
func (s *GamePlayerStore) InvitePlayer(ctx context.Context, gameID, userID int64) (*models.GamePlayer, error) {
	if gameID <= 0 {
		return nil, fmt.Errorf("invalid game ID: %d", gameID)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user ID: %d", userID)
	}

	// CTE locks the game row and rejects invites once the deal happened
	const query = `
WITH locked_game AS (
  SELECT id
  FROM games
  WHERE id = $1
    AND started = false
  FOR UPDATE
)
INSERT INTO game_players (game_id, user_id, player_id, disconnected, no_action, cards)
SELECT lg.id, $2, NULL, true, 0, $3
FROM locked_game lg
RETURNING id, game_id, user_id, player_id, disconnected, no_action, cards, created_at, updated_at;
`
	emptyHand := card.Bitset{}
	gp := &models.GamePlayer{}
	var cards string
	err := s.db.QueryRow(ctx, query, gameID, userID, emptyHand.String()).Scan(
		&gp.ID,
		&gp.GameID,
		&gp.UserID,
		&gp.PlayerID,
		&gp.Disconnected,
		&gp.NoAction,
		&cards,
		&gp.CreatedAt,
		&gp.UpdatedAt,
	)
	if err != nil {
		// zero rows means the game already started (or doesn't exist)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cannot invite to game %d: already started or not found", gameID)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("user %d is already part of game %d", userID, gameID)
			case "23503":
				return nil, fmt.Errorf("invalid reference: %s", pgErr.Message)
			}
		}
		return nil, fmt.Errorf("failed to invite player: %w", err)
	}
	gp.Cards, _ = card.Parse(cards)

	return gp, nil
}
