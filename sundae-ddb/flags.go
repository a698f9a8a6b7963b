package sundaeddb

import (
	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/urfave/cli/v2"
)

var DDBOpts struct {
	DAXCluster string
	Endpoint   string
	Region     string
	TableName  string
}

var DAXClusterFlag = sundaecli.StringFlag("dax-cluster", "The DAX cluster to connect to", &DDBOpts.DAXCluster)
var EndpointFlag = sundaecli.StringFlag("ddb-endpoint", "Override the DynamoDB endpoint, e.g. http://localhost:8000 for DynamoDB local", &DDBOpts.Endpoint)
var RegionFlag = &cli.StringFlag{
	Name:        "region",
	Usage:       "The AWS region of the tables and the websocket API",
	Value:       "us-east-1",
	EnvVars:     []string{"AWS_REGION", "REGION"},
	Destination: &DDBOpts.Region,
}
var TableNameFlag = sundaecli.StringFlag("table-name", "The table name to read streams from", &DDBOpts.TableName)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	EndpointFlag,
	RegionFlag,
	TableNameFlag,
}
