package sundaews

import (
	"context"
	"fmt"

	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/rs/zerolog"
)

// Reconciler walks every presence record and sweeps connection ids that no
// longer have a connection record. It catches what the stream sweeper misses
// and covers stores without a change stream.
type Reconciler struct {
	Connections ConnectionStore
	Users       UserLister
	Sweeper     *Sweeper // clears through Users when nil
}

// Run performs one full pass and returns the number of records swept.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)
	sweeper := r.Sweeper
	if sweeper == nil {
		sweeper = &Sweeper{Users: r.Users}
	}

	var checked, swept int
	err := r.Users.Each(ctx, func(user userdao.User) error {
		if user.ConnectionID == "" {
			return nil
		}
		checked++

		conn, err := r.Connections.Get(ctx, user.ConnectionID)
		if err != nil {
			return fmt.Errorf("checking connection of %v: %w", user.UserName, err)
		}
		if conn != nil {
			return nil
		}

		cleared, err := sweeper.clear(ctx, connectiondao.Connection{ConnectionID: user.ConnectionID, UserName: user.UserName})
		if err != nil {
			return err
		}
		if cleared {
			swept++
		}
		return nil
	})
	if err != nil {
		return swept, fmt.Errorf("reconciling presence: %w", err)
	}

	logger.Info().Int("checked", checked).Int("swept", swept).Msg("presence reconciled")
	return swept, nil
}
