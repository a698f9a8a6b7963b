// Package redisstore keeps presence records in redis hashes, one hash per
// record, as an alternative to DynamoDB for self-hosted and console setups.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/redis/go-redis/v9"
)

const (
	fieldUserName     = "user_name"
	fieldFriendName   = "friend_name"
	fieldConnectedAt  = "connected_at"
	fieldTTL          = "ttl"
	fieldConnectionID = "connection_id"
	fieldUpdatedAt    = "updated_at"
)

// clearConnection blanks connection_id only while it still matches ARGV[1].
var clearConnection = redis.NewScript(`
if redis.call("HGET", KEYS[1], "connection_id") == ARGV[1] then
	redis.call("HDEL", KEYS[1], "connection_id")
	redis.call("HSET", KEYS[1], "updated_at", ARGV[2])
	return 1
end
return 0
`)

// Store implements both the connection and the user store on one client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Connections returns the connection-record view of the store.
func (s *Store) Connections() *Connections { return &Connections{s} }

// Users returns the user-record view of the store.
func (s *Store) Users() *Users { return &Users{s} }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) connectionKey(id string) string { return s.prefix + ":connection:" + id }
func (s *Store) userKey(name string) string     { return s.prefix + ":user:" + name }

// replace overwrites the hash at key so fields from an older record never leak
// into the new one.
func (s *Store) replace(ctx context.Context, key string, fields map[string]interface{}, expireAt int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		if expireAt > 0 {
			pipe.ExpireAt(ctx, key, time.Unix(expireAt, 0))
		}
		return nil
	})
	return err
}

type Connections struct{ s *Store }

func (c *Connections) Put(ctx context.Context, conn connectiondao.Connection) error {
	fields := map[string]interface{}{
		fieldUserName:    conn.UserName,
		fieldFriendName:  conn.FriendName,
		fieldConnectedAt: conn.ConnectedAt,
		fieldTTL:         conn.TTL,
	}
	if err := c.s.replace(ctx, c.s.connectionKey(conn.ConnectionID), fields, conn.TTL); err != nil {
		return fmt.Errorf("failed to put connection %v: %w", conn.ConnectionID, err)
	}
	return nil
}

func (c *Connections) Get(ctx context.Context, connectionID string) (*connectiondao.Connection, error) {
	m, err := c.s.client.HGetAll(ctx, c.s.connectionKey(connectionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection %v: %w", connectionID, err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return &connectiondao.Connection{
		ConnectionID: connectionID,
		UserName:     m[fieldUserName],
		FriendName:   m[fieldFriendName],
		ConnectedAt:  parseInt(m[fieldConnectedAt]),
		TTL:          parseInt(m[fieldTTL]),
	}, nil
}

func (c *Connections) Delete(ctx context.Context, connectionID string) error {
	if err := c.s.client.Del(ctx, c.s.connectionKey(connectionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete connection %v: %w", connectionID, err)
	}
	return nil
}

type Users struct{ s *Store }

func (u *Users) Put(ctx context.Context, user userdao.User) error {
	fields := map[string]interface{}{
		fieldFriendName: user.FriendName,
		fieldUpdatedAt:  user.UpdatedAt,
	}
	if user.ConnectionID != "" {
		fields[fieldConnectionID] = user.ConnectionID
	}
	if err := u.s.replace(ctx, u.s.userKey(user.UserName), fields, 0); err != nil {
		return fmt.Errorf("failed to put user %v: %w", user.UserName, err)
	}
	return nil
}

func (u *Users) Get(ctx context.Context, userName string) (*userdao.User, error) {
	m, err := u.s.client.HGetAll(ctx, u.s.userKey(userName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user %v: %w", userName, err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return &userdao.User{
		UserName:     userName,
		FriendName:   m[fieldFriendName],
		ConnectionID: m[fieldConnectionID],
		UpdatedAt:    parseInt(m[fieldUpdatedAt]),
	}, nil
}

func (u *Users) ClearConnection(ctx context.Context, userName, connectionID string) (bool, error) {
	n, err := clearConnection.Run(ctx, u.s.client, []string{u.s.userKey(userName)}, connectionID, time.Now().Unix()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to clear connection %v for user %v: %w", connectionID, userName, err)
	}
	return n == 1, nil
}

// Each calls fn for every user under the store prefix. Users written while the
// scan runs may or may not be visited.
func (u *Users) Each(ctx context.Context, fn func(userdao.User) error) error {
	prefix := u.s.userKey("")
	iter := u.s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		user, err := u.Get(ctx, strings.TrimPrefix(iter.Val(), prefix))
		if err != nil {
			return err
		}
		if user == nil {
			continue
		}
		if err := fn(*user); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan users: %w", err)
	}
	return nil
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
