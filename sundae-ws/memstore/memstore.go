// Package memstore keeps presence records in process memory. It backs console
// mode and tests; records do not survive a restart and TTLs are not enforced.
package memstore

import (
	"context"
	"sync"

	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
)

type Connections struct {
	mu    sync.RWMutex
	items map[string]connectiondao.Connection
}

func NewConnections() *Connections {
	return &Connections{items: map[string]connectiondao.Connection{}}
}

func (c *Connections) Put(_ context.Context, conn connectiondao.Connection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[conn.ConnectionID] = conn
	return nil
}

func (c *Connections) Get(_ context.Context, connectionID string) (*connectiondao.Connection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.items[connectionID]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

func (c *Connections) Delete(_ context.Context, connectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, connectionID)
	return nil
}

// Len reports the number of tracked connections.
func (c *Connections) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

type Users struct {
	mu    sync.RWMutex
	items map[string]userdao.User
}

func NewUsers() *Users {
	return &Users{items: map[string]userdao.User{}}
}

func (u *Users) Put(_ context.Context, user userdao.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.items[user.UserName] = user
	return nil
}

func (u *Users) Get(_ context.Context, userName string) (*userdao.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.items[userName]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *Users) ClearConnection(_ context.Context, userName, connectionID string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.items[userName]
	if !ok || user.ConnectionID == "" || user.ConnectionID != connectionID {
		return false, nil
	}
	user.ConnectionID = ""
	u.items[userName] = user
	return true, nil
}

// Each calls fn for a snapshot of every user.
func (u *Users) Each(_ context.Context, fn func(userdao.User) error) error {
	u.mu.RLock()
	users := make([]userdao.User, 0, len(u.items))
	for _, user := range u.items {
		users = append(users, user)
	}
	u.mu.RUnlock()

	for _, user := range users {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}
