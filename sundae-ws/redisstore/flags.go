package redisstore

import (
	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/urfave/cli/v2"
)

var RedisOpts struct {
	Addr   string
	DB     int
	Secret string
}

var AddrFlag = sundaecli.StringFlag("redis-addr", "The redis address to keep presence in", &RedisOpts.Addr, "localhost:6379")
var DBFlag = sundaecli.IntFlag("redis-db", "The redis database number", &RedisOpts.DB, 0)
var SecretFlag = sundaecli.StringFlag("redis-secret", "Secrets Manager secret holding the redis addr and password", &RedisOpts.Secret)

var Flags = []cli.Flag{
	AddrFlag,
	DBFlag,
	SecretFlag,
}
