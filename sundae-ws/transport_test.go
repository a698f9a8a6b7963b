package sundaews

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/tj/assert"
)

type mockManagementAPI struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	endpoint string
	inputs   []*apigatewaymanagementapi.PostToConnectionInput
	err      error
}

func (m *mockManagementAPI) PostToConnectionWithContext(_ aws.Context, input *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func newMockTransport(err error) (*ManagementTransport, map[string]*mockManagementAPI) {
	clients := map[string]*mockManagementAPI{}
	transport := &ManagementTransport{
		NewClient: func(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
			client := &mockManagementAPI{endpoint: endpoint, err: err}
			clients[endpoint] = client
			return client
		},
	}
	return transport, clients
}

func TestManagementTransport_Deliver(t *testing.T) {
	ctx := context.Background()

	t.Run("posts data", func(t *testing.T) {
		transport, clients := newMockTransport(nil)
		assert.NoError(t, transport.Deliver(ctx, testEndpoint, "conn-b", []byte("hello")))

		client := clients[testEndpoint]
		assert.Len(t, client.inputs, 1)
		assert.Equal(t, "conn-b", aws.StringValue(client.inputs[0].ConnectionId))
		assert.Equal(t, []byte("hello"), client.inputs[0].Data)
	})

	t.Run("clients are cached per endpoint", func(t *testing.T) {
		transport, clients := newMockTransport(nil)
		assert.NoError(t, transport.Deliver(ctx, testEndpoint, "conn-a", nil))
		assert.NoError(t, transport.Deliver(ctx, testEndpoint, "conn-b", nil))
		assert.NoError(t, transport.Deliver(ctx, "https://chat.example.com/v1", "conn-c", nil))

		assert.Len(t, clients, 2)
		assert.Len(t, clients[testEndpoint].inputs, 2)
	})

	t.Run("gone exception", func(t *testing.T) {
		gone := awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "connection gone", nil)
		transport, _ := newMockTransport(gone)

		err := transport.Deliver(ctx, testEndpoint, "conn-b", []byte("hello"))
		assert.True(t, errors.Is(err, ErrGone))
	})

	t.Run("gone status code", func(t *testing.T) {
		gone := awserr.NewRequestFailure(awserr.New("Unknown", "gone", nil), http.StatusGone, "req-1")
		transport, _ := newMockTransport(gone)

		err := transport.Deliver(ctx, testEndpoint, "conn-b", []byte("hello"))
		assert.True(t, errors.Is(err, ErrGone))
	})

	t.Run("other failures", func(t *testing.T) {
		boom := awserr.New(apigatewaymanagementapi.ErrCodeLimitExceededException, "slow down", nil)
		transport, _ := newMockTransport(boom)

		err := transport.Deliver(ctx, testEndpoint, "conn-b", []byte("hello"))
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrGone))
	})
}
