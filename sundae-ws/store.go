package sundaews

import (
	"context"

	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
)

// ConnectionStore holds one record per open connection. Get returns nil, nil
// for an unknown id; Delete of an unknown id is not an error.
type ConnectionStore interface {
	Put(ctx context.Context, conn connectiondao.Connection) error
	Get(ctx context.Context, connectionID string) (*connectiondao.Connection, error)
	Delete(ctx context.Context, connectionID string) error
}

// UserStore holds the presence record of each user. Get returns nil, nil for
// an unknown user.
type UserStore interface {
	Put(ctx context.Context, user userdao.User) error
	Get(ctx context.Context, userName string) (*userdao.User, error)
	ClearConnection(ctx context.Context, userName, connectionID string) (bool, error)
}

// UserLister is implemented by user stores that can enumerate their records.
type UserLister interface {
	UserStore
	Each(ctx context.Context, fn func(userdao.User) error) error
}
