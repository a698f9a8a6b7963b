package redisstore

import (
	"context"
	"fmt"

	sundaesecret "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-secret"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/redis/go-redis/v9"
)

// Credentials is the shape of the --redis-secret secret.
type Credentials struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
}

// Build connects to redis using the redis flags and verifies the connection.
// Keys are namespaced by env so environments can share a server.
func Build(ctx context.Context, s *session.Session, env string) (*Store, error) {
	options := &redis.Options{
		Addr: RedisOpts.Addr,
		DB:   RedisOpts.DB,
	}
	if RedisOpts.Secret != "" {
		var creds Credentials
		if err := sundaesecret.LoadSecret(s, RedisOpts.Secret, &creds); err != nil {
			return nil, err
		}
		if creds.Addr != "" {
			options.Addr = creds.Addr
		}
		options.Password = creds.Password
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to reach redis at %v: %w", options.Addr, err)
	}
	return New(client, Prefix(env)), nil
}

// Prefix returns the key prefix for the given environment.
func Prefix(env string) string {
	return env + "-sundae-chat"
}
