// Package localgw stands in for API Gateway when running in console mode. It
// accepts websocket connections, turns their lifecycle into the proxy events
// API Gateway would send, and delivers posted messages back to the sockets.
package localgw

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaerest "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	Stage = "local"

	writeTimeout = 10 * time.Second
)

// EventHandler receives the proxy events.
type EventHandler interface {
	HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error)
}

type conn struct {
	ws *websocket.Conn

	// gorilla/websocket supports one concurrent writer
	mu sync.Mutex
}

func (c *conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// Gateway is a local websocket gateway. Handler must be set before serving.
type Gateway struct {
	Handler EventHandler
	Logger  zerolog.Logger

	// MaxLifetime closes sockets that stay open longer, as API Gateway does
	// after two hours. It must not exceed the connection record TTL. Zero
	// means no limit.
	MaxLifetime time.Duration

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*conn
}

func New(logger zerolog.Logger) *Gateway {
	return &Gateway{
		Logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: map[string]*conn{},
	}
}

// Routes serves the gateway on /ws and a health check on /healthz.
func (g *Gateway) Routes(service sundaecli.Service) chi.Router {
	router := sundaerest.Middlewares(service, chi.NewRouter())
	router.Get("/healthz", sundaerest.Healthz(service))
	router.Get("/ws", g.ServeWS)
	return router
}

// Deliver implements sundaews.Transport. The endpoint is ignored since every
// connection lives on this gateway.
func (g *Gateway) Deliver(_ context.Context, _, connectionID string, data []byte) error {
	g.mu.RLock()
	c, ok := g.conns[connectionID]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("local connection %v: %w", connectionID, sundaews.ErrGone)
	}

	messageType := websocket.TextMessage
	if !utf8.Valid(data) {
		messageType = websocket.BinaryMessage
	}
	if err := c.write(messageType, data); err != nil {
		return fmt.Errorf("writing to local connection %v: %w", connectionID, err)
	}
	return nil
}

// Len reports the number of open connections.
func (g *Gateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

func (g *Gateway) ServeWS(w http.ResponseWriter, req *http.Request) {
	ws, err := g.upgrader.Upgrade(w, req, nil)
	if err != nil {
		g.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	var (
		id          = uuid.NewString()
		connectedAt = time.Now()
		logger      = g.Logger.With().Str("connection_id", id).Logger()
		ctx         = logger.WithContext(context.Background())
		c           = &conn{ws: ws}
	)
	defer ws.Close()

	connect := g.request(req, id, sundaews.RouteConnect, "CONNECT", connectedAt)
	connect.Headers, connect.MultiValueHeaders = headers(req.Header)
	connect.QueryStringParameters, connect.MultiValueQueryStringParameters = query(req)
	if !g.dispatch(ctx, connect) {
		return
	}

	g.mu.Lock()
	g.conns[id] = c
	g.mu.Unlock()
	logger.Debug().Msg("local connection open")

	if g.MaxLifetime > 0 {
		expire := time.AfterFunc(g.MaxLifetime, func() {
			logger.Info().Dur("lifetime", g.MaxLifetime).Msg("closing connection at max lifetime")
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection lifetime exceeded")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
			ws.Close()
		})
		defer expire.Stop()
	}

	defer func() {
		g.mu.Lock()
		delete(g.conns, id)
		g.mu.Unlock()

		g.dispatch(ctx, g.request(req, id, sundaews.RouteDisconnect, "DISCONNECT", connectedAt))
		logger.Debug().Msg("local connection closed")
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Debug().Err(err).Msg("read failed")
			}
			return
		}

		msg := g.request(req, id, sundaews.RouteDefault, "MESSAGE", connectedAt)
		if messageType == websocket.BinaryMessage {
			msg.Body = base64.StdEncoding.EncodeToString(data)
			msg.IsBase64Encoded = true
		} else {
			msg.Body = string(data)
		}
		g.dispatch(ctx, msg)
	}
}

// dispatch hands an event to the handler and reports whether it was accepted.
func (g *Gateway) dispatch(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) bool {
	resp, err := g.Handler.HandleEvent(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("route", req.RequestContext.RouteKey).Msg("handler failed")
		return false
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (g *Gateway) request(req *http.Request, connectionID, routeKey, eventType string, connectedAt time.Time) events.APIGatewayWebsocketProxyRequest {
	now := time.Now()
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			APIID:            "local",
			ConnectedAt:      connectedAt.UnixMilli(),
			ConnectionID:     connectionID,
			DomainName:       req.Host,
			EventType:        eventType,
			MessageDirection: "IN",
			RequestID:        uuid.NewString(),
			RequestTimeEpoch: now.UnixMilli(),
			RouteKey:         routeKey,
			Stage:            Stage,
		},
	}
}

// headers flattens request headers the way API Gateway does, keeping the last
// value of repeated headers in the single value map.
func headers(h http.Header) (map[string]string, map[string][]string) {
	single := map[string]string{}
	multi := map[string][]string{}
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		name := strings.ToLower(k)
		single[name] = vs[len(vs)-1]
		multi[name] = vs
	}
	return single, multi
}

func query(req *http.Request) (map[string]string, map[string][]string) {
	values := req.URL.Query()
	if len(values) == 0 {
		return nil, nil
	}
	single := map[string]string{}
	for k, vs := range values {
		single[k] = vs[len(vs)-1]
	}
	return single, values
}
