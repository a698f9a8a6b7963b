package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/localgw"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/redisstore"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("chat-relay")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaecli.PortFlag(3001))
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaews.Flags...)
	flags = append(flags, redisstore.Flags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(c *cli.Context) error {
	s := sundaeddb.Session()

	if sundaecli.CommonOpts.Console {
		logger := sundaecli.Logger(service)
		gateway := localgw.New(logger)
		gateway.MaxLifetime = sundaews.ConnTTL()
		handler, err := sundaews.Build(c.Context, service, s, gateway)
		if err != nil {
			return err
		}
		gateway.Handler = handler

		logger.Info().Int("port", sundaecli.CommonOpts.Port).Msg("starting local websocket gateway")
		addr := fmt.Sprintf(":%v", sundaecli.CommonOpts.Port)
		return http.ListenAndServe(addr, gateway.Routes(service))
	}

	handler, err := sundaews.Build(c.Context, service, s, sundaews.NewManagementTransport(s))
	if err != nil {
		return err
	}
	lambda.Start(handler.HandleEvent)
	return nil
}
