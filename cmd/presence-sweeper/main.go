package main

import (
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/redisstore"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("presence-sweeper")

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
	// the stream always comes from the DynamoDB connections table
	if sundaews.WSOpts.Store == "" {
		sundaews.WSOpts.Store = sundaews.StoreDynamoDB
	}
	if sundaeddb.DDBOpts.TableName == "" {
		sundaeddb.DDBOpts.TableName = connectiondao.TableName(sundaecli.CommonOpts.Env)
	}

	s := sundaeddb.Session()
	_, users, err := sundaews.BuildStores(c.Context, s, sundaecli.CommonOpts.Env)
	if err != nil {
		return err
	}

	sweeper := &sundaews.Sweeper{
		Users:   users,
		Metrics: sundaews.BuildMetrics(service, s),
	}
	handler := sundaeddb.NewHandler(service, sweeper.OnConnectionRemoved)

	return handler.Start()
}
