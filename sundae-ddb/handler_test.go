package sundaeddb

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

const streamEvent = `{
  "Records": [
    {
      "eventID": "1",
      "eventName": "INSERT",
      "dynamodb": {"NewImage": {"pk": {"S": "conn-1"}, "user_name": {"S": "alice"}}}
    },
    {
      "eventID": "2",
      "eventName": "MODIFY",
      "dynamodb": {
        "OldImage": {"pk": {"S": "conn-1"}},
        "NewImage": {"pk": {"S": "conn-1"}}
      }
    },
    {
      "eventID": "3",
      "eventName": "REMOVE",
      "dynamodb": {"OldImage": {"pk": {"S": "conn-2"}, "user_name": {"S": "bob"}}}
    }
  ]
}`

type item struct {
	PK       string `dynamodbav:"pk"`
	UserName string `dynamodbav:"user_name"`
}

func TestHandler(t *testing.T) {
	var event ddb.Event
	assert.NoError(t, json.Unmarshal([]byte(streamEvent), &event))

	t.Run("routes removes only", func(t *testing.T) {
		var removed []item
		h := NewHandler(
			sundaecli.NewService("test"),
			func(ctx context.Context, oldValue map[string]*dynamodb.AttributeValue) error {
				var v item
				if err := ParseItem(oldValue, &v); err != nil {
					return err
				}
				removed = append(removed, v)
				return nil
			},
		)

		assert.NoError(t, h.HandleEvent(context.Background(), event))
		assert.Equal(t, []item{{PK: "conn-2", UserName: "bob"}}, removed)
	})

	t.Run("nil callback is skipped", func(t *testing.T) {
		h := NewHandler(sundaecli.NewService("test"), nil)
		assert.NoError(t, h.HandleEvent(context.Background(), event))
	})

	t.Run("callback errors stop the batch", func(t *testing.T) {
		h := NewHandler(sundaecli.NewService("test"),
			func(ctx context.Context, oldValue map[string]*dynamodb.AttributeValue) error {
				return fmt.Errorf("boom")
			},
		)
		err := h.HandleEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}
