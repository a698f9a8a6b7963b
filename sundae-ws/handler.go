package sundaews

import (
	"context"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Handler handles API Gateway WebSocket events for the chat relay.
type Handler struct {
	Presence  *Presence
	Relay     *Relay
	Endpoints EndpointResolver
	Logger    zerolog.Logger
	Metrics   sundaecli.Recorder
}

// HandleEvent routes an API Gateway WebSocket event to the appropriate handler.
// The gateway always gets a 200: handler failures are logged and counted, not
// surfaced.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func(begin time.Time) {
		h.metrics().Timing(ctx, sundaecli.ResponseTimeMetric, begin, map[sundaecli.DimensionName]string{
			sundaecli.RouteDimension: req.RequestContext.RouteKey,
		})
	}(time.Now())

	ev, err := EventFromRequest(req, h.Endpoints)
	if err == nil {
		err = h.Dispatch(ctx, ev)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to handle event")
		h.metrics().Event(ctx, sundaecli.HandlerErrorMetric, map[sundaecli.DimensionName]string{
			sundaecli.RouteDimension: req.RequestContext.RouteKey,
		})
	}

	return Ack(req.Body), nil
}

// Dispatch routes an event by kind. Unknown kinds are ignored.
func (h *Handler) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case ConnectEvent:
		return h.Presence.OnConnect(ctx, ev)
	case DisconnectEvent:
		return h.Presence.OnDisconnect(ctx, ev.ConnectionID)
	case DefaultEvent:
		return h.Relay.OnMessage(ctx, ev)
	default:
		zerolog.Ctx(ctx).Debug().Str("route", ev.RouteKey).Msg("ignoring unknown route")
		return nil
	}
}

// Ack is the response returned to the gateway for every event.
func Ack(body string) events.APIGatewayProxyResponse {
	if body == "" {
		body = "{}"
	}
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: body}
}

func (h *Handler) metrics() sundaecli.Recorder {
	if h.Metrics == nil {
		return sundaecli.NopMetrics{}
	}
	return h.Metrics
}
