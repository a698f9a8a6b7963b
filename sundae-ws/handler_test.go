package sundaews

import (
	"context"
	"testing"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/tj/assert"
)

func TestHandler_HandleEvent(t *testing.T) {
	t.Run("acknowledges with original body", func(t *testing.T) {
		f := newFixture("conn-a")
		resp, err := f.handler.HandleEvent(context.Background(), messageRequest("conn-a", `{"text":"hi"}`))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, `{"text":"hi"}`, resp.Body)
	})

	t.Run("acknowledges connect with empty object", func(t *testing.T) {
		f := newFixture()
		resp, err := f.handler.HandleEvent(context.Background(), connectRequest("conn-a", "A", "B"))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "{}", resp.Body)
	})

	t.Run("unknown route is ignored", func(t *testing.T) {
		f := newFixture("conn-a")
		req := events.APIGatewayWebsocketProxyRequest{
			Body:           "ping",
			RequestContext: requestContext("sendmessage", "conn-a"),
		}
		resp, err := f.handler.HandleEvent(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Empty(t, f.transport.deliveries)
		assert.Equal(t, 0, f.conns.Len())
	})

	t.Run("failures are acknowledged and counted", func(t *testing.T) {
		f := newFixture()
		f.handler.Presence.Connections = failingConnections{}
		f.handler.Relay.Connections = failingConnections{}

		for _, req := range []events.APIGatewayWebsocketProxyRequest{
			connectRequest("conn-a", "A", "B"),
			disconnectRequest("conn-a"),
			messageRequest("conn-a", "hello"),
		} {
			resp, err := f.handler.HandleEvent(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
		assert.Equal(t, 3, f.metrics.count(sundaecli.HandlerErrorMetric))
	})

	t.Run("undecodable body is acknowledged", func(t *testing.T) {
		f := newFixture()
		req := messageRequest("conn-a", "not base64!")
		req.IsBase64Encoded = true

		resp, err := f.handler.HandleEvent(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, 1, f.metrics.count(sundaecli.HandlerErrorMetric))
	})

	t.Run("delivers on the endpoint of the event", func(t *testing.T) {
		f := newFixture("conn-a", "conn-b")
		ctx := context.Background()
		_, _ = f.handler.HandleEvent(ctx, connectRequest("conn-a", "A", "B"))
		_, _ = f.handler.HandleEvent(ctx, connectRequest("conn-b", "B", "A"))
		_, _ = f.handler.HandleEvent(ctx, messageRequest("conn-a", "hello"))

		assert.Len(t, f.transport.deliveries, 1)
		assert.Equal(t, testEndpoint, f.transport.deliveries[0].Endpoint)
	})
}

func TestAck(t *testing.T) {
	assert.Equal(t, events.APIGatewayProxyResponse{StatusCode: 200, Body: "{}"}, Ack(""))
	assert.Equal(t, events.APIGatewayProxyResponse{StatusCode: 200, Body: "x"}, Ack("x"))
}
