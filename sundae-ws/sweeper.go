package sundaews

import (
	"context"
	"fmt"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/rs/zerolog"
)

// Sweeper clears a user's connection id once the connection it points at is
// removed from the connections table, whether by disconnect or TTL expiry.
// A user who has reconnected since keeps the newer id.
type Sweeper struct {
	Users   UserStore
	Metrics sundaecli.Recorder
}

// OnConnectionRemoved is a sundaeddb.RemoveCallback for the connections table
// stream.
func (s *Sweeper) OnConnectionRemoved(ctx context.Context, oldValue map[string]*dynamodb.AttributeValue) error {
	var conn connectiondao.Connection
	if err := sundaeddb.ParseItem(oldValue, &conn); err != nil {
		return fmt.Errorf("parsing removed connection: %w", err)
	}
	return s.Sweep(ctx, conn)
}

// Sweep clears conn from its owner's presence record if it is still current.
func (s *Sweeper) Sweep(ctx context.Context, conn connectiondao.Connection) error {
	_, err := s.clear(ctx, conn)
	return err
}

func (s *Sweeper) clear(ctx context.Context, conn connectiondao.Connection) (bool, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("connection_id", conn.ConnectionID).
		Str("user", conn.UserName).
		Logger()

	if conn.UserName == "" || conn.ConnectionID == "" {
		logger.Debug().Msg("removed connection has no owner, nothing to sweep")
		return false, nil
	}

	cleared, err := s.Users.ClearConnection(ctx, conn.UserName, conn.ConnectionID)
	if err != nil {
		return false, fmt.Errorf("sweeping connection %v: %w", conn.ConnectionID, err)
	}
	if !cleared {
		logger.Debug().Msg("presence already moved on")
		return false, nil
	}

	if s.Metrics != nil {
		s.Metrics.Event(ctx, sundaecli.SweptMetric)
	}
	logger.Info().Msg("cleared stale presence")
	return true, nil
}
