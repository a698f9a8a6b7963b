package main

import (
	"context"
	"fmt"
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaecron "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cron"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/redisstore"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("presence-reconcile")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaews.StoreFlag, sundaews.MetricsFlag)
	flags = append(flags, redisstore.Flags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(c *cli.Context) error {
	if sundaews.WSOpts.Store == "" {
		sundaews.WSOpts.Store = sundaews.StoreDynamoDB
	}

	s := sundaeddb.Session()
	conns, users, err := sundaews.BuildStores(c.Context, s, sundaecli.CommonOpts.Env)
	if err != nil {
		return err
	}
	lister, ok := users.(sundaews.UserLister)
	if !ok {
		return fmt.Errorf("%v store cannot list users", sundaews.StoreKind())
	}

	reconciler := &sundaews.Reconciler{
		Connections: conns,
		Users:       lister,
		Sweeper: &sundaews.Sweeper{
			Users:   lister,
			Metrics: sundaews.BuildMetrics(service, s),
		},
	}
	handler := sundaecron.NewHandler(service, func(ctx context.Context) error {
		_, err := reconciler.Run(ctx)
		return err
	})

	return handler.Start()
}
