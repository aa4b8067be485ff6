package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/vediprashant/bluff-api/internal/comm"
	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/engine"
)

const (
	inboundTopic  = "socket.service"
	outboundTopic = "game.service"

	actionTimeout = 10 * time.Second
)

// Broker consumes player actions from the socket service, runs them
// through the engine and fans personalized state back out to every live
// socket in the game room.
type Broker struct {
	Conn   *nats.Conn
	Engine *engine.Engine
	rooms  *roomRegistry
}

func NewBroker(nc *nats.Conn, eng *engine.Engine) *Broker {
	return &Broker{
		Conn:   nc,
		Engine: eng,
		rooms:  newRoomRegistry(),
	}
}

// SubscribeSocketService consumes action messages from the gateway.
func (b *Broker) SubscribeSocketService() (*nats.Subscription, error) {
	return b.Conn.Subscribe(inboundTopic, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Type {
	case "init":
		b.handleInit(ctx, msg)
	case "start":
		err := b.Engine.Start(ctx, msg.GameId, msg.UserId)
		b.finishAction(ctx, msg, "start", err)
	case "play":
		var req comm.PlayRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error unmarshalling play: %s", err)
			b.PublishActionError(comm.ActionError{Action: "play", Code: "validation_error", Message: "malformed play payload"}, msg.SocketId)
			return
		}
		mask, err := card.Parse(req.Cards)
		if err != nil {
			b.PublishActionError(comm.ActionError{Action: "play", Code: "validation_error", Message: err.Error()}, msg.SocketId)
			return
		}
		err = b.Engine.Play(ctx, msg.GameId, msg.UserId, mask, req.Set)
		b.finishAction(ctx, msg, "play", err)
	case "call-bluff":
		err := b.Engine.CallBluff(ctx, msg.GameId, msg.UserId)
		b.finishAction(ctx, msg, "call-bluff", err)
	case "skip":
		err := b.Engine.Skip(ctx, msg.GameId, msg.UserId)
		b.finishAction(ctx, msg, "skip", err)
	case "disconnect":
		b.handleDisconnect(ctx, msg)
	default:
		log.Errorf("Unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleInit(ctx context.Context, msg *comm.WSMessage) {
	var req comm.InitRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error unmarshalling init: %s", err)
		b.PublishInitResponse(comm.InitResponse{InitSuccess: false, Message: "malformed init payload"}, msg.SocketId)
		return
	}

	state, err := b.Engine.Connect(ctx, req.GameID, msg.UserId)
	if err != nil {
		log.Infof("init rejected for user %d game %d: %v", msg.UserId, req.GameID, err)
		b.PublishInitResponse(comm.InitResponse{InitSuccess: false, Message: err.Error()}, msg.SocketId)
		return
	}

	b.rooms.Join(req.GameID, msg.SocketId, msg.UserId)
	b.PublishInitResponse(comm.InitResponse{InitSuccess: true, State: state}, msg.SocketId)

	// Everyone else re-renders with the new seat present.
	b.broadcastRoom(ctx, req.GameID, msg.SocketId)
}

func (b *Broker) handleDisconnect(ctx context.Context, msg *comm.WSMessage) {
	gameID, member, ok := b.rooms.Leave(msg.SocketId)
	if !ok {
		return
	}
	if err := b.Engine.Disconnect(ctx, gameID, member.UserID); err != nil {
		log.Errorf("Error [Engine.Disconnect] user %d game %d: %v", member.UserID, gameID, err)
	}
	b.broadcastRoom(ctx, gameID, "")
}

// finishAction reports a rejection to the acting socket only, or fans out
// fresh state to the whole room on success.
func (b *Broker) finishAction(ctx context.Context, msg *comm.WSMessage, action string, err error) {
	if err != nil {
		log.Infof("%s rejected for user %d game %d: %v", action, msg.UserId, msg.GameId, err)
		b.PublishActionError(comm.ActionError{
			Action:  action,
			Code:    engine.ErrorCode(err),
			Message: err.Error(),
		}, msg.SocketId)
		return
	}
	b.broadcastRoom(ctx, msg.GameId, "")
}

// broadcastRoom sends every room member its own view of the latest state.
// Delivery is best-effort; a reconnect always rebuilds from the ledger.
func (b *Broker) broadcastRoom(ctx context.Context, gameID int64, excludeSocket string) {
	for _, m := range b.rooms.Members(gameID) {
		if m.SocketId == excludeSocket {
			continue
		}
		state, err := b.Engine.StateFor(ctx, gameID, m.UserID)
		if err != nil {
			log.Errorf("Error [Engine.StateFor] user %d game %d: %v", m.UserID, gameID, err)
			continue
		}
		b.PublishGameState(state, m.SocketId)
	}
}

func (b *Broker) PublishInitResponse(p comm.InitResponse, socketId string) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Errorf("unable to marshal init response for %s", socketId)
		return
	}

	msg := &comm.WSMessage{
		Type:     "init-response",
		Data:     data,
		SocketId: socketId,
	}
	b.publish(msg)
}

func (b *Broker) PublishGameState(p *comm.GameState, socketId string) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Errorf("unable to marshal game state for %s", socketId)
		return
	}

	msg := &comm.WSMessage{
		Type:     "game-state",
		Data:     data,
		SocketId: socketId,
	}
	b.publish(msg)
}

func (b *Broker) PublishActionError(p comm.ActionError, socketId string) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Errorf("unable to marshal action error for %s", socketId)
		return
	}

	msg := &comm.WSMessage{
		Type:     "action-error",
		Data:     data,
		SocketId: socketId,
	}
	b.publish(msg)
}

func (b *Broker) publish(msg *comm.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if err := b.Conn.Publish(outboundTopic, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", outboundTopic, err)
	}
}
