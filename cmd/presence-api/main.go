package main

import (
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	sundaerest "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/presenceapi"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/redisstore"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("presence-api")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaecli.PortFlag(3002))
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaews.StoreFlag)
	flags = append(flags, redisstore.Flags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(c *cli.Context) error {
	// an in-memory store would never have anything to report
	if sundaews.WSOpts.Store == "" {
		sundaews.WSOpts.Store = sundaews.StoreDynamoDB
	}

	conns, users, err := sundaews.BuildStores(c.Context, sundaeddb.Session(), sundaecli.CommonOpts.Env)
	if err != nil {
		return err
	}

	api := &presenceapi.API{
		Connections: conns,
		Users:       users,
	}
	return sundaerest.Webserver(service, api.Routes(service))
}
