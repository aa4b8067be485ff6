package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomJoinAndMembers(t *testing.T) {
	r := newRoomRegistry()
	r.Join(1, "sock-a", 101)
	r.Join(1, "sock-b", 102)
	r.Join(2, "sock-c", 103)

	members := r.Members(1)
	assert.Len(t, members, 2)
	got := map[string]int64{}
	for _, m := range members {
		got[m.SocketId] = m.UserID
	}
	assert.Equal(t, map[string]int64{"sock-a": 101, "sock-b": 102}, got)

	assert.Len(t, r.Members(2), 1)
	assert.Nil(t, r.Members(99))
}

func TestRoomRejoinMovesSocket(t *testing.T) {
	r := newRoomRegistry()
	r.Join(1, "sock-a", 101)
	r.Join(2, "sock-a", 101)

	// A socket lives in at most one room.
	assert.Nil(t, r.Members(1))
	assert.Len(t, r.Members(2), 1)
}

func TestRoomLeave(t *testing.T) {
	r := newRoomRegistry()
	r.Join(1, "sock-a", 101)
	r.Join(1, "sock-b", 102)

	gameID, m, ok := r.Leave("sock-a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), gameID)
	assert.Equal(t, int64(101), m.UserID)
	assert.Len(t, r.Members(1), 1)

	// Last one out drops the room.
	_, _, ok = r.Leave("sock-b")
	assert.True(t, ok)
	assert.Nil(t, r.Members(1))

	_, _, ok = r.Leave("sock-unknown")
	assert.False(t, ok)
}

func TestRoomDoubleJoinIsIdempotent(t *testing.T) {
	r := newRoomRegistry()
	r.Join(1, "sock-a", 101)
	r.Join(1, "sock-a", 101)

	assert.Len(t, r.Members(1), 1)
}
