package db

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var DB *pgxpool.Pool

var schema = `
CREATE TABLE IF NOT EXISTS users (
  user_id    bigint PRIMARY KEY,
  name       varchar(100) NOT NULL,
  email      varchar(255),
  status     varchar(20),
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
  id         bigserial PRIMARY KEY,
  decks      int NOT NULL CHECK (decks BETWEEN 1 AND 3),
  started    boolean NOT NULL DEFAULT false,
  owner_id   bigint NOT NULL REFERENCES users(user_id),
  winner_id  bigint REFERENCES users(user_id),
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS game_players (
  id           bigserial PRIMARY KEY,
  game_id      bigint NOT NULL REFERENCES games(id),
  user_id      bigint NOT NULL REFERENCES users(user_id),
  player_id    int,
  disconnected boolean NOT NULL DEFAULT true,
  no_action    int NOT NULL DEFAULT 0,
  cards        char(156) NOT NULL,
  created_at   timestamptz NOT NULL DEFAULT now(),
  updated_at   timestamptz NOT NULL DEFAULT now(),
  CONSTRAINT unique_game_user UNIQUE (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS game_table_snapshots (
  id               bigserial PRIMARY KEY,
  game_id          bigint NOT NULL REFERENCES games(id),
  current_set      int,
  cards_on_table   char(156) NOT NULL,
  last_cards       char(156) NOT NULL,
  last_user_id     bigint REFERENCES game_players(id),
  current_user_id  bigint REFERENCES game_players(id),
  bluff_caller_id  bigint REFERENCES game_players(id),
  bluff_successful boolean,
  did_skip         boolean,
  created_at       timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_game_id ON game_table_snapshots (game_id, id DESC);
`

// Connect initializes the connection pool
func Connect() (*pgxpool.Pool, error) {
	dsn := os.Getenv("POSTGRES_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	DB = pool

	return pool, nil
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// ClosePool is for graceful shutdown
func ClosePool() {
	if DB != nil {
		DB.Close()
	}
}
