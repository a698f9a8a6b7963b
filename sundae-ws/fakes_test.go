package sundaews

import (
	"context"
	"errors"
	"sync"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/connectiondao"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/memstore"
	"github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws/userdao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

const testEndpoint = "https://abc123.execute-api.us-east-1.amazonaws.com/v1"

type delivery struct {
	Endpoint     string
	ConnectionID string
	Data         []byte
}

// fakeTransport records deliveries. Connections listed in open accept
// messages; any other id is gone.
type fakeTransport struct {
	mu         sync.Mutex
	open       map[string]bool
	deliveries []delivery
	err        error // returned for every delivery when set
}

func newFakeTransport(open ...string) *fakeTransport {
	t := &fakeTransport{open: map[string]bool{}}
	for _, id := range open {
		t.open[id] = true
	}
	return t
}

func (t *fakeTransport) Deliver(_ context.Context, endpoint, connectionID string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = append(t.deliveries, delivery{Endpoint: endpoint, ConnectionID: connectionID, Data: data})
	if t.err != nil {
		return t.err
	}
	if !t.open[connectionID] {
		return ErrGone
	}
	return nil
}

func (t *fakeTransport) close(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, connectionID)
}

func (t *fakeTransport) sentTo(connectionID string) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var got [][]byte
	for _, d := range t.deliveries {
		if d.ConnectionID == connectionID {
			got = append(got, d.Data)
		}
	}
	return got
}

// countingMetrics counts events by name.
type countingMetrics struct {
	mu     sync.Mutex
	counts map[sundaecli.MetricName]int
}

func (m *countingMetrics) Event(_ context.Context, name sundaecli.MetricName, _ ...map[sundaecli.DimensionName]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[sundaecli.MetricName]int{}
	}
	m.counts[name]++
}

func (m *countingMetrics) Timing(context.Context, sundaecli.MetricName, time.Time, ...map[sundaecli.DimensionName]string) {
}

func (m *countingMetrics) count(name sundaecli.MetricName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

var errStore = errors.New("store unavailable")

// failingConnections fails every operation.
type failingConnections struct{}

func (failingConnections) Put(context.Context, connectiondao.Connection) error { return errStore }
func (failingConnections) Get(context.Context, string) (*connectiondao.Connection, error) {
	return nil, errStore
}
func (failingConnections) Delete(context.Context, string) error { return errStore }

// failingUsers fails every operation.
type failingUsers struct{}

func (failingUsers) Put(context.Context, userdao.User) error { return errStore }
func (failingUsers) Get(context.Context, string) (*userdao.User, error) { return nil, errStore }
func (failingUsers) ClearConnection(context.Context, string, string) (bool, error) {
	return false, errStore
}

type fixture struct {
	conns     *memstore.Connections
	users     *memstore.Users
	transport *fakeTransport
	metrics   *countingMetrics
	handler   *Handler
}

func newFixture(open ...string) *fixture {
	f := &fixture{
		conns:     memstore.NewConnections(),
		users:     memstore.NewUsers(),
		transport: newFakeTransport(open...),
		metrics:   &countingMetrics{},
	}
	f.handler = &Handler{
		Presence: &Presence{
			Connections: f.conns,
			Users:       f.users,
			Metrics:     f.metrics,
		},
		Relay: &Relay{
			Connections: f.conns,
			Users:       f.users,
			Transport:   f.transport,
			Metrics:     f.metrics,
		},
		Logger:  zerolog.Nop(),
		Metrics: f.metrics,
	}
	return f
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func requestContext(routeKey, connectionID string) events.APIGatewayWebsocketProxyRequestContext {
	return events.APIGatewayWebsocketProxyRequestContext{
		RouteKey:     routeKey,
		ConnectionID: connectionID,
		APIID:        "abc123",
		Stage:        "v1",
		DomainName:   "abc123.execute-api.us-east-1.amazonaws.com",
	}
}

func connectRequest(connectionID, from, to string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Headers: map[string]string{
			"msgfrom": from,
			"msgto":   to,
		},
		RequestContext: requestContext(RouteConnect, connectionID),
	}
}

func disconnectRequest(connectionID string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext: requestContext(RouteDisconnect, connectionID),
	}
}

func messageRequest(connectionID, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body:           body,
		RequestContext: requestContext(RouteDefault, connectionID),
	}
}
