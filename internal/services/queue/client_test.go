package queue

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgqueue "roleplaychat/pkg/queue"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClient(rdb, slog.Default())
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	job := pkgqueue.NewWorldStateJob(42, 7, 3, pkgqueue.ReasonNewMessage)
	require.NoError(t, c.EnqueueWorldState(ctx, job))

	depth, err := c.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	got, err := c.DequeueWorldState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, pkgqueue.JobTypeWorldState, got.Type)
	assert.Equal(t, int64(42), got.ConversationID)
	assert.Equal(t, int64(7), got.CharacterID)
	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, pkgqueue.ReasonNewMessage, got.Reason)

	depth, err = c.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestDequeueOrderIsFIFO(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first := pkgqueue.NewWorldStateJob(1, 1, 1, pkgqueue.ReasonNewMessage)
	second := pkgqueue.NewWorldStateJob(2, 1, 1, pkgqueue.ReasonSceneChange)
	require.NoError(t, c.EnqueueWorldState(ctx, first))
	require.NoError(t, c.EnqueueWorldState(ctx, second))

	got, err := c.DequeueWorldState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.JobID, got.JobID)

	got, err = c.DequeueWorldState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.JobID, got.JobID)
}

func TestDequeueCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewClient(rdb, slog.Default())
	ctx := context.Background()

	require.NoError(t, rdb.RPush(ctx, WorldStateQueueKey, "not json").Err())

	_, err := c.DequeueWorldState(ctx)
	assert.Error(t, err)
}
