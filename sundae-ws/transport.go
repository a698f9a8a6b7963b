package sundaews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
)

// ErrGone is returned by a Transport when the target connection no longer
// exists.
var ErrGone = errors.New("connection gone")

// Transport delivers bytes to a single connection.
type Transport interface {
	Deliver(ctx context.Context, endpoint, connectionID string, data []byte) error
}

// ManagementTransport delivers through the API Gateway Management API.
type ManagementTransport struct {
	// NewClient builds a client for an endpoint; defaults to one built from
	// the session.
	NewClient func(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI

	session *session.Session

	// clients caches API Gateway Management API clients by endpoint
	mu      sync.RWMutex
	clients map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
}

func NewManagementTransport(s *session.Session) *ManagementTransport {
	return &ManagementTransport{session: s}
}

func (t *ManagementTransport) Deliver(ctx context.Context, endpoint, connectionID string, data []byte) error {
	client := t.client(endpoint)
	_, err := client.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err != nil {
		if isGoneException(err) {
			return fmt.Errorf("posting to connection %v: %w (%w)", connectionID, ErrGone, err)
		}
		return fmt.Errorf("posting to connection %v: %w", connectionID, err)
	}
	return nil
}

func (t *ManagementTransport) client(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
	t.mu.RLock()
	if client, ok := t.clients[endpoint]; ok {
		t.mu.RUnlock()
		return client
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := t.clients[endpoint]; ok {
		return client
	}

	if t.clients == nil {
		t.clients = make(map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI)
	}

	var client apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	if t.NewClient != nil {
		client = t.NewClient(endpoint)
	} else {
		s := t.session
		if s == nil {
			s = session.Must(session.NewSession(aws.NewConfig()))
		}
		client = apigatewaymanagementapi.New(s, aws.NewConfig().WithEndpoint(endpoint))
	}
	t.clients[endpoint] = client
	return client
}

// isGoneException checks if the error is a GoneException (HTTP 410),
// indicating the WebSocket connection no longer exists.
func isGoneException(err error) bool {
	var aerr awserr.RequestFailure
	if errors.As(err, &aerr) && aerr.StatusCode() == 410 {
		return true
	}
	var coded awserr.Error
	if errors.As(err, &coded) && coded.Code() == apigatewaymanagementapi.ErrCodeGoneException {
		return true
	}
	return strings.Contains(err.Error(), "GoneException")
}
