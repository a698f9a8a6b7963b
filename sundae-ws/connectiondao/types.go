package connectiondao

// Connection represents an open WebSocket connection and the pair it belongs to.
type Connection struct {
	ConnectionID string `dynamodbav:"pk" ddb:"hash"`
	UserName     string `dynamodbav:"user_name"`
	FriendName   string `dynamodbav:"friend_name"`
	ConnectedAt  int64  `dynamodbav:"connected_at"`
	TTL          int64  `dynamodbav:"ttl"`
}
