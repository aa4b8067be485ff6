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

type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// GetLatestSnapshot returns the most recent snapshot for a game, the
// authoritative current state. Snapshots are ordered by id, a bigserial.
func (s *SnapshotStore) GetLatestSnapshot(ctx context.Context, gameID int64) (*models.GameTableSnapshot, error) {
	query := `
		SELECT id, game_id, current_set, cards_on_table, last_cards,
		       last_user_id, current_user_id, bluff_caller_id,
		       bluff_successful, did_skip, created_at
		FROM game_table_snapshots
		WHERE game_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	snap := &models.GameTableSnapshot{}
	var onTable, lastCards string
	err := s.db.QueryRow(ctx, query, gameID).Scan(
		&snap.ID,
		&snap.GameID,
		&snap.CurrentSet,
		&onTable,
		&lastCards,
		&snap.LastUserID,
		&snap.CurrentUserID,
		&snap.BluffCallerID,
		&snap.BluffSuccessful,
		&snap.DidSkip,
		&snap.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	if snap.CardsOnTable, err = card.Parse(onTable); err != nil {
		return nil, fmt.Errorf("corrupt cards_on_table for snapshot %d: %w", snap.ID, err)
	}
	if snap.LastCards, err = card.Parse(lastCards); err != nil {
		return nil, fmt.Errorf("corrupt last_cards for snapshot %d: %w", snap.ID, err)
	}
	return snap, nil
}
