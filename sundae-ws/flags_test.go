package sundaews

import (
	"testing"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/tj/assert"
)

func TestCheckConnTTL(t *testing.T) {
	assert.NoError(t, CheckConnTTL(2*time.Hour, GatewayConnectionLifetime))
	assert.NoError(t, CheckConnTTL(3*time.Hour, GatewayConnectionLifetime))
	assert.Error(t, CheckConnTTL(30*time.Minute, GatewayConnectionLifetime))
}

func TestBuild_RejectsShortConnTTL(t *testing.T) {
	defer func(ttl time.Duration) { WSOpts.ConnTTL = ttl }(WSOpts.ConnTTL)
	WSOpts.ConnTTL = time.Minute

	_, err := Build(testContext(), sundaecli.Service{Name: "chat-relay", Version: "test"}, nil, NewManagementTransport(nil))
	assert.Error(t, err)
}

func TestConnTTL(t *testing.T) {
	defer func(ttl time.Duration) { WSOpts.ConnTTL = ttl }(WSOpts.ConnTTL)

	WSOpts.ConnTTL = 0
	assert.Equal(t, 2*time.Hour, ConnTTL())

	WSOpts.ConnTTL = 3 * time.Hour
	assert.Equal(t, 3*time.Hour, ConnTTL())
}
