package presence

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "socket_sessions"

// sessionTTL is how long a presence record survives without activity.
// Records are refreshed on every message, so only dead sockets expire.
const sessionTTL = 2 * time.Minute

// Session is one live socket's presence record.
type Session struct {
	SocketId    string    `bson:"socket_id"`
	UserID      int64     `bson:"user_id"`
	GameID      int64     `bson:"game_id"`
	ConnectedAt time.Time `bson:"connected_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

// Store keeps presence records in MongoDB with a TTL index so crashed
// gateways clean up after themselves.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	col := db.Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.M{"expires_at": 1},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := col.Indexes().CreateOne(context.TODO(), indexModel); err != nil {
		log.Fatalf("failed to create TTL index on %s: %v", collectionName, err)
	}

	return &Store{col: col}
}

// Upsert records a socket joining a game room.
func (s *Store) Upsert(ctx context.Context, socketId string, userID, gameID int64) error {
	now := time.Now()
	_, err := s.col.UpdateOne(ctx,
		bson.M{"socket_id": socketId},
		bson.M{
			"$set": bson.M{
				"user_id":    userID,
				"game_id":    gameID,
				"expires_at": now.Add(sessionTTL),
			},
			"$setOnInsert": bson.M{"connected_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Refresh pushes the expiry forward on socket activity.
func (s *Store) Refresh(ctx context.Context, socketId string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"socket_id": socketId},
		bson.M{"$set": bson.M{"expires_at": time.Now().Add(sessionTTL)}},
	)
	return err
}

// Delete drops the record on a clean disconnect.
func (s *Store) Delete(ctx context.Context, socketId string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"socket_id": socketId})
	return err
}

// ListByGame returns the live sessions of one game room.
func (s *Store) ListByGame(ctx context.Context, gameID int64) ([]Session, error) {
	cur, err := s.col.Find(ctx, bson.M{"game_id": gameID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
