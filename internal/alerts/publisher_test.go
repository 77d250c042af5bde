package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/govcon-cli/internal/model"
)

type fakeRedis struct {
	channel  string
	messages [][]byte
	failOn   int
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	f.channel = channel
	f.messages = append(f.messages, message.([]byte))
	if f.failOn > 0 && len(f.messages) == f.failOn {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestRedisPublisher_Publish(t *testing.T) {
	fr := &fakeRedis{}
	p := &RedisPublisher{rdb: fr, channel: "govcon:alert-matches"}

	err := p.Publish(context.Background(), []model.AlertMatch{
		{UserID: "u1", AlertID: "a1", AlertName: "Cyber", OpportunityID: "o1"},
		{UserID: "u2", AlertID: "a2", AlertName: "Cloud", OpportunityID: "o1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "govcon:alert-matches", fr.channel)
	require.Len(t, fr.messages, 2)

	var got model.AlertMatch
	require.NoError(t, json.Unmarshal(fr.messages[1], &got))
	assert.Equal(t, "a2", got.AlertID)
	assert.Equal(t, "Cloud", got.AlertName)
}

func TestRedisPublisher_StopsOnError(t *testing.T) {
	fr := &fakeRedis{failOn: 1}
	p := &RedisPublisher{rdb: fr, channel: "c"}

	err := p.Publish(context.Background(), []model.AlertMatch{{AlertID: "a1"}, {AlertID: "a2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts: publish match for alert a1")
	assert.Len(t, fr.messages, 1)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url://")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts: parse redis url")
}
