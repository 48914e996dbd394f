package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorldStateJob(t *testing.T) {
	job := NewWorldStateJob(12, 7, 3, ReasonNewMessage)

	_, err := uuid.Parse(job.JobID)
	assert.NoError(t, err)
	assert.Equal(t, JobTypeWorldState, job.Type)
	assert.Equal(t, int64(12), job.ConversationID)
	assert.False(t, job.EnqueuedAt.IsZero())
}

func TestJobJSONRoundTrip(t *testing.T) {
	job := NewWorldStateJob(12, 7, 3, ReasonSceneChange)

	data, err := job.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, job.JobID, parsed.JobID)
	assert.Equal(t, job.ConversationID, parsed.ConversationID)
	assert.Equal(t, ReasonSceneChange, parsed.Reason)
	assert.True(t, job.EnqueuedAt.Equal(parsed.EnqueuedAt))
}

func TestReasonWireValues(t *testing.T) {
	for reason, want := range map[Reason]string{
		ReasonNewMessage:    "new_message",
		ReasonSceneChange:   "scene_change",
		ReasonManualRefresh: "manual_refresh",
	} {
		data, err := NewWorldStateJob(1, 1, 1, reason).ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"reason":"`+want+`"`)
	}
}

func TestFromJSONMalformed(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}
