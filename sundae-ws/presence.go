package sundaews

import (
	"context"
	"fmt"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/rs/zerolog"
)

const defaultConnTTL = 2 * time.Hour

// Presence turns connect and disconnect events into presence records. It is
// the only writer of those records on the event path.
type Presence struct {
	Connections ConnectionStore
	Users       UserStore
	Metrics     sundaecli.Recorder
	ConnTTL     time.Duration // TTL for connection records (default 2 hours)
	Dry         bool          // log instead of writing

	now func() time.Time
}

// OnConnect records the connection and makes it the user's current one,
// replacing whatever was stored before. Names are not validated; a store that
// rejects an empty user name fails the connect.
func (p *Presence) OnConnect(ctx context.Context, ev Event) error {
	logger := zerolog.Ctx(ctx)
	now := p.clock()

	ttl := p.ConnTTL
	if ttl == 0 {
		ttl = defaultConnTTL
	}

	conn := connectiondao.Connection{
		ConnectionID: ev.ConnectionID,
		UserName:     ev.UserName,
		FriendName:   ev.FriendName,
		ConnectedAt:  now.Unix(),
		TTL:          now.Add(ttl).Unix(),
	}
	user := userdao.User{
		UserName:     ev.UserName,
		FriendName:   ev.FriendName,
		ConnectionID: ev.ConnectionID,
		UpdatedAt:    now.Unix(),
	}

	if p.Dry {
		logger.Info().
			Str("user", ev.UserName).
			Str("friend", ev.FriendName).
			Msg("dry run, not recording connection")
		return nil
	}

	if err := p.Connections.Put(ctx, conn); err != nil {
		return fmt.Errorf("writing connection %v: %w", ev.ConnectionID, err)
	}

	if err := p.Users.Put(ctx, user); err != nil {
		return fmt.Errorf("writing presence for user %v: %w", ev.UserName, err)
	}

	p.metrics().Event(ctx, sundaecli.ConnectedMetric)
	logger.Info().
		Str("user", ev.UserName).
		Str("friend", ev.FriendName).
		Msg("connection established")
	return nil
}

// OnDisconnect forgets the connection. The user's presence record is left as
// is, so its connection id may now be stale.
func (p *Presence) OnDisconnect(ctx context.Context, connectionID string) error {
	logger := zerolog.Ctx(ctx)

	if p.Dry {
		logger.Info().Msg("dry run, not deleting connection")
		return nil
	}

	if err := p.Connections.Delete(ctx, connectionID); err != nil {
		return fmt.Errorf("deleting connection %v: %w", connectionID, err)
	}

	p.metrics().Event(ctx, sundaecli.DisconnectedMetric)
	logger.Info().Msg("connection closed")
	return nil
}

func (p *Presence) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Presence) metrics() sundaecli.Recorder {
	if p.Metrics == nil {
		return sundaecli.NopMetrics{}
	}
	return p.Metrics
}
