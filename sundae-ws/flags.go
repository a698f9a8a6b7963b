package sundaews

import (
	"fmt"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/urfave/cli/v2"
)

// GatewayConnectionLifetime is how long API Gateway keeps a websocket
// connection open.
const GatewayConnectionLifetime = 2 * time.Hour

const (
	StoreDynamoDB = "dynamodb"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

var WSOpts struct {
	Endpoint       string
	ConnTTL        time.Duration
	FallbackNotice string
	Store          string
	Metrics        bool
}

var EndpointFlag = sundaecli.StringFlag("endpoint", "Management API endpoint to post to, instead of deriving it from each event", &WSOpts.Endpoint)
var ConnTTLFlag = sundaecli.DurationFlag("conn-ttl", "How long a connection record lives without a disconnect", &WSOpts.ConnTTL, defaultConnTTL)
var FallbackNoticeFlag = sundaecli.StringFlag("fallback-notice", "Text sent back to the sender when their friend is unreachable", &WSOpts.FallbackNotice, FallbackNotice)
var StoreFlag = sundaecli.StringFlag("store", "Presence store: dynamodb, redis or memory (defaults to memory in console mode)", &WSOpts.Store)
var MetricsFlag = sundaecli.BoolFlag("metrics", "Publish CloudWatch metrics", &WSOpts.Metrics)

var Flags = []cli.Flag{
	EndpointFlag,
	ConnTTLFlag,
	FallbackNoticeFlag,
	StoreFlag,
	MetricsFlag,
}

// ConnTTL returns --conn-ttl, or the default when unset.
func ConnTTL() time.Duration {
	if WSOpts.ConnTTL == 0 {
		return defaultConnTTL
	}
	return WSOpts.ConnTTL
}

// CheckConnTTL rejects a connection record TTL shorter than the time the
// gateway may keep a connection open, since the record would expire under a
// live connection.
func CheckConnTTL(ttl, lifetime time.Duration) error {
	if ttl < lifetime {
		return fmt.Errorf("conn-ttl %v is shorter than the gateway connection lifetime %v", ttl, lifetime)
	}
	return nil
}
