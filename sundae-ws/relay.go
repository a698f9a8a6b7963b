package sundaews

import (
	"context"
	"errors"
	"fmt"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/rs/zerolog"
)

// FallbackNotice is sent back to the sender when their message can't be
// delivered.
const FallbackNotice = "Your friend is not reachable. Connect from the other terminal and then try again"

var (
	// ErrUnknownConnection means the sending connection has no connection
	// record. It is not answered with a fallback notice.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrPeerNotConnected means the sender's friend has no presence record or
	// no current connection.
	ErrPeerNotConnected = errors.New("peer not connected")
)

// Relay forwards message payloads from a connection to the current connection
// of its declared friend.
type Relay struct {
	Connections ConnectionStore
	Users       UserStore
	Transport   Transport
	Metrics     sundaecli.Recorder
	Notice      string // defaults to FallbackNotice
}

// OnMessage resolves sender connection -> friend -> friend's connection and
// delivers ev.Body there unmodified. If the friend can't be reached the sender
// gets a single notice instead; only a failure of that notice is returned
// along with store errors.
func (r *Relay) OnMessage(ctx context.Context, ev Event) error {
	logger := zerolog.Ctx(ctx)

	target, err := r.resolve(ctx, ev.ConnectionID)
	if err == nil {
		err = r.Transport.Deliver(ctx, ev.Endpoint, target, ev.Body)
	} else if !errors.Is(err, ErrPeerNotConnected) {
		return err
	}

	if err == nil {
		r.metrics().Event(ctx, sundaecli.RelayDeliveredMetric)
		logger.Debug().
			Str("peer_connection_id", target).
			Int("size", len(ev.Body)).
			Msg("message relayed")
		return nil
	}

	logger.Warn().Err(err).
		Str("peer_connection_id", target).
		Msg("unable to relay message, notifying sender")
	r.metrics().Event(ctx, sundaecli.RelayFallbackMetric)

	if err := r.Transport.Deliver(ctx, ev.Endpoint, ev.ConnectionID, []byte(r.notice())); err != nil {
		return fmt.Errorf("sending fallback notice to %v: %w", ev.ConnectionID, err)
	}
	return nil
}

// resolve returns the friend's current connection id. Store errors and an
// untracked sender are fatal; a missing friend is ErrPeerNotConnected.
func (r *Relay) resolve(ctx context.Context, connectionID string) (string, error) {
	conn, err := r.Connections.Get(ctx, connectionID)
	if err != nil {
		return "", fmt.Errorf("resolving sender: %w", err)
	}
	if conn == nil {
		return "", fmt.Errorf("resolving sender %v: %w", connectionID, ErrUnknownConnection)
	}

	if conn.FriendName == "" {
		return "", fmt.Errorf("user %v declared no friend: %w", conn.UserName, ErrPeerNotConnected)
	}

	friend, err := r.Users.Get(ctx, conn.FriendName)
	if err != nil {
		return "", fmt.Errorf("resolving friend %v: %w", conn.FriendName, err)
	}
	if friend == nil || friend.ConnectionID == "" {
		return "", fmt.Errorf("friend %v: %w", conn.FriendName, ErrPeerNotConnected)
	}

	return friend.ConnectionID, nil
}

func (r *Relay) notice() string {
	if r.Notice == "" {
		return FallbackNotice
	}
	return r.Notice
}

func (r *Relay) metrics() sundaecli.Recorder {
	if r.Metrics == nil {
		return sundaecli.NopMetrics{}
	}
	return r.Metrics
}
