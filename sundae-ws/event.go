package sundaews

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// API Gateway route keys for the three routes the relay serves.
const (
	RouteConnect    = "$connect"
	RouteDisconnect = "$disconnect"
	RouteDefault    = "$default"
)

// Connect parameters naming the user and the friend they want to talk to.
const (
	ParamFrom = "msgfrom"
	ParamTo   = "msgto"
)

type EventKind int

const (
	UnknownEvent EventKind = iota
	ConnectEvent
	DisconnectEvent
	DefaultEvent
)

func (k EventKind) String() string {
	switch k {
	case ConnectEvent:
		return "connect"
	case DisconnectEvent:
		return "disconnect"
	case DefaultEvent:
		return "default"
	default:
		return "unknown"
	}
}

// KindOf classifies a route key.
func KindOf(routeKey string) EventKind {
	switch routeKey {
	case RouteConnect:
		return ConnectEvent
	case RouteDisconnect:
		return DisconnectEvent
	case RouteDefault:
		return DefaultEvent
	default:
		return UnknownEvent
	}
}

// Event is a transport event reduced to what the relay needs.
type Event struct {
	Kind         EventKind
	RouteKey     string
	ConnectionID string
	Endpoint     string // management API endpoint of the gateway the event came through

	// Connect only.
	UserName   string
	FriendName string

	// Default only. Passed through untouched.
	Body []byte
}

// EventFromRequest converts an API Gateway websocket proxy request into an
// Event.
func EventFromRequest(req events.APIGatewayWebsocketProxyRequest, endpoints EndpointResolver) (Event, error) {
	rc := req.RequestContext
	ev := Event{
		Kind:         KindOf(rc.RouteKey),
		RouteKey:     rc.RouteKey,
		ConnectionID: rc.ConnectionID,
		Endpoint:     endpoints.Endpoint(rc),
	}

	switch ev.Kind {
	case ConnectEvent:
		ev.UserName = connectParam(req, ParamFrom)
		ev.FriendName = connectParam(req, ParamTo)

	case DefaultEvent:
		if req.IsBase64Encoded {
			body, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return Event{}, fmt.Errorf("failed to decode base64 body: %w", err)
			}
			ev.Body = body
		} else {
			ev.Body = []byte(req.Body)
		}
	}

	return ev, nil
}

// connectParam reads a connect parameter from the headers, ignoring case,
// falling back to the query string since browsers can't set websocket headers.
func connectParam(req events.APIGatewayWebsocketProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	for k, v := range req.QueryStringParameters {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// EndpointResolver derives the management API endpoint used to post back to
// connections of the gateway an event arrived through.
type EndpointResolver struct {
	Override string // used verbatim when set
	Region   string // defaults to us-east-1
}

func (r EndpointResolver) Endpoint(rc events.APIGatewayWebsocketProxyRequestContext) string {
	if r.Override != "" {
		return r.Override
	}

	stage := rc.Stage
	if stage == "" {
		stage = "v1"
	}

	if rc.DomainName != "" && !strings.HasSuffix(rc.DomainName, ".amazonaws.com") {
		return fmt.Sprintf("https://%s/%s", rc.DomainName, stage)
	}
	if rc.APIID == "" {
		return ""
	}

	region := r.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.execute-api.%s.amazonaws.com/%s", rc.APIID, region, stage)
}
