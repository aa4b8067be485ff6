package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/vediprashant/bluff-api/internal/comm"
	"github.com/vediprashant/bluff-api/internal/socketsvc/broker"
	"github.com/vediprashant/bluff-api/internal/socketsvc/presence"
)

// Session is the identity bound to one socket at upgrade time. The game
// id is bound by the first init message.
type Session struct {
	UserId int64
	GameId int64
}

type Ws struct {
	connMap  sync.Map // to keep track of socket connection with socketId
	sessMap  sync.Map // to keep track of socketId with its authenticated session
	Broker   *broker.Broker
	Presence *presence.Store
}

func NewWs(p *presence.Store) *Ws {
	return &Ws{Presence: p}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	sess, ok := s.GetSession(socketId)
	if !ok {
		log.Errorf("message %q from unknown socket %s", message.Type, socketId)
		return
	}

	switch message.Type {
	case "init":
		s.handleInit(socketId, sess, message)
	case "start", "play", "call-bluff", "skip":
		s.forwardAction(socketId, sess, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleInit(socketId string, sess *Session, msg *comm.WSMessage) {
	var payload comm.InitRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid_init_data malformed init payload %s", err)
		return
	}
	if payload.GameID <= 0 {
		log.Error("Invalid init payload: missing game_id")
		return
	}

	// Bind the room; actions until the next init belong to this game.
	sess.GameId = payload.GameID

	msg.SocketId = socketId
	msg.UserId = sess.UserId
	msg.GameId = sess.GameId
	s.publish(msg)

	s.recordPresence(socketId, sess)
}

func (s *Ws) forwardAction(socketId string, sess *Session, msg *comm.WSMessage) {
	if sess.GameId == 0 {
		log.Errorf("action %q from socket %s before init", msg.Type, socketId)
		return
	}

	msg.SocketId = socketId
	msg.UserId = sess.UserId
	msg.GameId = sess.GameId
	s.publish(msg)

	if s.Presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Presence.Refresh(ctx, socketId); err != nil {
			log.Warnf("failed to refresh presence for %s: %v", socketId, err)
		}
	}
}

// HandleDisconnect tears the socket down and tells the game service so it
// can force a skip for a current-turn seat.
func (s *Ws) HandleDisconnect(socketId string) {
	sess, ok := s.GetSession(socketId)
	s.connMap.Delete(socketId)
	s.sessMap.Delete(socketId)
	if !ok {
		return
	}

	if sess.GameId != 0 {
		msg := &comm.WSMessage{
			Type:     "disconnect",
			SocketId: socketId,
			UserId:   sess.UserId,
			GameId:   sess.GameId,
		}
		s.publish(msg)
	}

	if s.Presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Presence.Delete(ctx, socketId); err != nil {
			log.Warnf("failed to delete presence for %s: %v", socketId, err)
		}
	}
}

func (s *Ws) publish(msg *comm.WSMessage) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	topic := "socket.service"
	if err := s.Broker.Publish(topic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", topic, err)
	}
}

func (s *Ws) recordPresence(socketId string, sess *Session) {
	if s.Presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Presence.Upsert(ctx, socketId, sess.UserId, sess.GameId); err != nil {
		log.Warnf("failed to record presence for %s: %v", socketId, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn, userId int64) {
	s.connMap.Store(socketId, conn)
	s.sessMap.Store(socketId, &Session{UserId: userId})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (s *Ws) GetSession(socketId string) (*Session, bool) {
	sess, ok := s.sessMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return sess.(*Session), true
}
