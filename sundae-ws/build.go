package sundaews

import (
	"context"
	"fmt"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ddb"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/memstore"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/redisstore"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/rs/zerolog"
)

// StoreKind returns the configured presence store, defaulting to memory in
// console mode and DynamoDB otherwise.
func StoreKind() string {
	switch {
	case WSOpts.Store != "":
		return WSOpts.Store
	case sundaecli.CommonOpts.Console:
		return StoreMemory
	default:
		return StoreDynamoDB
	}
}

// BuildStores constructs the presence stores selected by --store.
func BuildStores(ctx context.Context, s *session.Session, env string) (ConnectionStore, UserStore, error) {
	switch kind := StoreKind(); kind {
	case StoreDynamoDB:
		api, err := sundaeddb.DynamoDBAPI(s)
		if err != nil {
			return nil, nil, err
		}
		return connectiondao.Build(api, env), userdao.Build(api, env), nil

	case StoreRedis:
		store, err := redisstore.Build(ctx, s, env)
		if err != nil {
			return nil, nil, err
		}
		return store.Connections(), store.Users(), nil

	case StoreMemory:
		return memstore.NewConnections(), memstore.NewUsers(), nil

	default:
		return nil, nil, fmt.Errorf("unknown presence store %q", kind)
	}
}

// BuildMetrics returns a CloudWatch recorder when --metrics is set.
func BuildMetrics(service sundaecli.Service, s *session.Session) sundaecli.Recorder {
	if !WSOpts.Metrics {
		return sundaecli.NopMetrics{}
	}
	return sundaecli.NewMetrics(service, cloudwatch.New(s))
}

// Build wires a Handler from the command line options. The transport is
// supplied by the caller: the management API in Lambda, the local gateway in
// console mode. The local gateway must close sockets no later than ConnTTL.
func Build(ctx context.Context, service sundaecli.Service, s *session.Session, transport Transport) (*Handler, error) {
	if _, ok := transport.(*ManagementTransport); ok {
		if err := CheckConnTTL(ConnTTL(), GatewayConnectionLifetime); err != nil {
			return nil, err
		}
	}

	conns, users, err := BuildStores(ctx, s, sundaecli.CommonOpts.Env)
	if err != nil {
		return nil, err
	}

	var (
		logger  = sundaecli.Logger(service)
		metrics = BuildMetrics(service, s)
	)
	logger.Info().Str("store", StoreKind()).Msg("presence store ready")

	return NewHandler(logger, metrics, conns, users, transport), nil
}

// NewHandler wires a Handler from already constructed dependencies using the
// relay options.
func NewHandler(logger zerolog.Logger, metrics sundaecli.Recorder, conns ConnectionStore, users UserStore, transport Transport) *Handler {
	return &Handler{
		Presence: &Presence{
			Connections: conns,
			Users:       users,
			Metrics:     metrics,
			ConnTTL:     ConnTTL(),
			Dry:         sundaecli.CommonOpts.Dry,
		},
		Relay: &Relay{
			Connections: conns,
			Users:       users,
			Transport:   transport,
			Metrics:     metrics,
			Notice:      WSOpts.FallbackNotice,
		},
		Endpoints: EndpointResolver{
			Override: WSOpts.Endpoint,
			Region:   sundaeddb.DDBOpts.Region,
		},
		Logger:  logger,
		Metrics: metrics,
	}
}
