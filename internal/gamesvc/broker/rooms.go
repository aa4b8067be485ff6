package broker

import (
	"sync"

	"github.com/hashicorp/go-set/v2"
)

// RoomMember binds a live socket to the participant behind it.
type RoomMember struct {
	SocketId string
	UserID   int64
}

// roomRegistry tracks which sockets belong to which game room. Rooms are
// created on first join and dropped when the last socket leaves; the
// ledger, not the room, is the source of truth for game state.
type roomRegistry struct {
	mu      sync.Mutex
	rooms   map[int64]*set.Set[string]
	members map[string]RoomMember
	games   map[string]int64
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{
		rooms:   make(map[int64]*set.Set[string]),
		members: make(map[string]RoomMember),
		games:   make(map[string]int64),
	}
}

func (r *roomRegistry) Join(gameID int64, socketId string, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.games[socketId]; ok && old != gameID {
		r.leaveLocked(socketId, old)
	}

	room, ok := r.rooms[gameID]
	if !ok {
		room = set.New[string](1)
		r.rooms[gameID] = room
	}
	room.Insert(socketId)
	r.members[socketId] = RoomMember{SocketId: socketId, UserID: userID}
	r.games[socketId] = gameID
}

// Leave removes the socket and reports which room it was in.
func (r *roomRegistry) Leave(socketId string) (gameID int64, m RoomMember, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gameID, ok = r.games[socketId]
	if !ok {
		return 0, RoomMember{}, false
	}
	m = r.members[socketId]
	r.leaveLocked(socketId, gameID)
	return gameID, m, true
}

func (r *roomRegistry) leaveLocked(socketId string, gameID int64) {
	if room, ok := r.rooms[gameID]; ok {
		room.Remove(socketId)
		if room.Empty() {
			delete(r.rooms, gameID)
		}
	}
	delete(r.members, socketId)
	delete(r.games, socketId)
}

// Members returns every live member of a room.
func (r *roomRegistry) Members(gameID int64) []RoomMember {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[gameID]
	if !ok {
		return nil
	}
	out := make([]RoomMember, 0, room.Size())
	for _, socketId := range room.Slice() {
		out = append(out, r.members[socketId])
	}
	return out
}
