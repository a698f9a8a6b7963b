package memstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/tj/assert"
)

func TestConnections(t *testing.T) {
	ctx := context.Background()
	conns := NewConnections()

	got, err := conns.Get(ctx, "conn-a")
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, conns.Put(ctx, connectiondao.Connection{ConnectionID: "conn-a", UserName: "alice"}))
	got, err = conns.Get(ctx, "conn-a")
	assert.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, 1, conns.Len())

	// callers get a copy
	got.UserName = "mallory"
	again, _ := conns.Get(ctx, "conn-a")
	assert.Equal(t, "alice", again.UserName)

	assert.NoError(t, conns.Delete(ctx, "conn-a"))
	assert.NoError(t, conns.Delete(ctx, "conn-a"))
	assert.Equal(t, 0, conns.Len())
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()

	assert.NoError(t, users.Put(ctx, userdao.User{UserName: "bob", FriendName: "alice", ConnectionID: "conn-b"}))

	cleared, err := users.ClearConnection(ctx, "bob", "conn-old")
	assert.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = users.ClearConnection(ctx, "bob", "conn-b")
	assert.NoError(t, err)
	assert.True(t, cleared)

	got, err := users.Get(ctx, "bob")
	assert.NoError(t, err)
	assert.Equal(t, "", got.ConnectionID)
	assert.Equal(t, "alice", got.FriendName)

	cleared, err = users.ClearConnection(ctx, "nobody", "conn-x")
	assert.NoError(t, err)
	assert.False(t, cleared)
}

func TestUsers_Each(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	assert.NoError(t, users.Put(ctx, userdao.User{UserName: "alice"}))
	assert.NoError(t, users.Put(ctx, userdao.User{UserName: "bob"}))

	var names []string
	err := users.Each(ctx, func(user userdao.User) error {
		names = append(names, user.UserName)
		return nil
	})
	assert.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"alice", "bob"}, names)

	stop := errors.New("stop")
	calls := 0
	err = users.Each(ctx, func(userdao.User) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}
