package store

import (
	"context"
	"fmt"

	"github.com/vediprashant/bluff-api/internal/gamesvc/engine"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EngineStore composes the per-entity stores into the engine's
// persistence boundary. Apply runs the whole mutation in one transaction
// so a failed write never leaves a half-applied snapshot.
type EngineStore struct {
	db        *pgxpool.Pool
	games     *GameStore
	players   *GamePlayerStore
	snapshots *SnapshotStore
}

func NewEngineStore(db *pgxpool.Pool, games *GameStore, players *GamePlayerStore, snapshots *SnapshotStore) *EngineStore {
	return &EngineStore{db: db, games: games, players: players, snapshots: snapshots}
}

func (s *EngineStore) Game(ctx context.Context, gameID int64) (*models.Game, error) {
	return s.games.GetGameByID(ctx, gameID)
}

func (s *EngineStore) Players(ctx context.Context, gameID int64) ([]*models.GamePlayer, error) {
	return s.players.GetPlayersByGameID(ctx, gameID)
}

func (s *EngineStore) LatestSnapshot(ctx context.Context, gameID int64) (*models.GameTableSnapshot, error) {
	return s.snapshots.GetLatestSnapshot(ctx, gameID)
}

func (s *EngineStore) Apply(ctx context.Context, m *engine.Mutation) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin apply: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range m.Players {
		var cards *string
		if u.Cards != nil {
			c := u.Cards.String()
			cards = &c
		}
		_, err := tx.Exec(ctx, `
			UPDATE game_players
			SET player_id    = COALESCE($2, player_id),
			    disconnected = COALESCE($3, disconnected),
			    cards        = COALESCE($4, cards),
			    no_action    = COALESCE($5, no_action),
			    updated_at   = now()
			WHERE id = $1
		`, u.ID, u.Seat, u.Disconnected, cards, u.NoAction)
		if err != nil {
			return fmt.Errorf("failed to update player %d: %w", u.ID, err)
		}
	}

	if g := m.Game; g != nil {
		_, err := tx.Exec(ctx, `
			UPDATE games
			SET started    = COALESCE($2, started),
			    winner_id  = COALESCE($3, winner_id),
			    updated_at = now()
			WHERE id = $1
		`, g.ID, g.Started, g.WinnerID)
		if err != nil {
			return fmt.Errorf("failed to update game %d: %w", g.ID, err)
		}
	}

	if snap := m.Snapshot; snap != nil {
		err := tx.QueryRow(ctx, `
			INSERT INTO game_table_snapshots
				(game_id, current_set, cards_on_table, last_cards,
				 last_user_id, current_user_id, bluff_caller_id,
				 bluff_successful, did_skip)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`,
			snap.GameID,
			snap.CurrentSet,
			snap.CardsOnTable.String(),
			snap.LastCards.String(),
			snap.LastUserID,
			snap.CurrentUserID,
			snap.BluffCallerID,
			snap.BluffSuccessful,
			snap.DidSkip,
		).Scan(&snap.ID, &snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append snapshot for game %d: %w", snap.GameID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit apply: %w", err)
	}
	return nil
}
