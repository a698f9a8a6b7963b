package userdao

// User is the presence record of a chat user: who they talk to and the
// connection they were last seen on. ConnectionID may be stale.
type User struct {
	UserName     string `dynamodbav:"pk" ddb:"hash"`
	FriendName   string `dynamodbav:"friend_name"`
	ConnectionID string `dynamodbav:"connection_id,omitempty"`
	UpdatedAt    int64  `dynamodbav:"updated_at"`
}
