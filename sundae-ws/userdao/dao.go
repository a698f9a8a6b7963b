package userdao

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

// DAO provides access to the user presence table.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new users DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, User{}),
		api:       api,
		tableName: tableName,
	}
}

// Put stores or overwrites the presence record for a user.
func (d *DAO) Put(ctx context.Context, user User) error {
	if err := d.table.Put(user).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to put user %v into %v: %w", user.UserName, d.tableName, err)
	}
	return nil
}

// Get retrieves the presence record for a user. Returns nil if not found.
func (d *DAO) Get(ctx context.Context, userName string) (*User, error) {
	var user User
	if err := d.table.Get(userName).ConsistentRead(true).ScanWithContext(ctx, &user); err != nil {
		if ddb.IsItemNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %v: %w", userName, err)
	}
	return &user, nil
}

// ClearConnection removes connection_id from the user's record, but only while
// it still equals connectionID; a newer connect always wins. Reports whether
// the record was changed.
func (d *DAO) ClearConnection(ctx context.Context, userName, connectionID string) (bool, error) {
	_, err := d.api.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": {S: aws.String(userName)},
		},
		UpdateExpression:    aws.String("REMOVE connection_id SET updated_at = :now"),
		ConditionExpression: aws.String("connection_id = :conn"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":conn": {S: aws.String(connectionID)},
			":now":  {N: aws.String(strconv.FormatInt(time.Now().Unix(), 10))},
		},
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return false, nil
		}
		return false, fmt.Errorf("failed to clear connection %v for user %v: %w", connectionID, userName, err)
	}
	return true, nil
}

// Each calls fn for every user in the table. Iteration stops at the first
// error returned by fn.
func (d *DAO) Each(ctx context.Context, fn func(User) error) error {
	var callbackErr error
	err := d.api.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(d.tableName),
	}, func(page *dynamodb.ScanOutput, _ bool) bool {
		var users []User
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &users); err != nil {
			callbackErr = fmt.Errorf("failed to unmarshal users: %w", err)
			return false
		}
		for _, user := range users {
			if err := fn(user); err != nil {
				callbackErr = err
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to scan %v: %w", d.tableName, err)
	}
	return callbackErr
}
