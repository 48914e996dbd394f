// Package queue defines the wire shape of background jobs exchanged
// between the API and the worker over Redis.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the kind of background job.
type JobType string

const (
	// JobTypeWorldState regenerates a conversation's world state from
	// its recent history.
	JobTypeWorldState JobType = "world_state"
)

// Reason records why a world-state refresh was requested, carried for
// logging and event payloads.
type Reason string

const (
	ReasonNewMessage    Reason = "new_message"
	ReasonSceneChange   Reason = "scene_change"
	ReasonManualRefresh Reason = "manual_refresh"
)

// Job is one queued unit of background work.
type Job struct {
	JobID          string  `json:"job_id"`
	Type           JobType `json:"type"`
	ConversationID int64   `json:"conversation_id"`
	CharacterID    int64   `json:"character_id"`
	UserID         int64   `json:"user_id"`

	Reason     Reason    `json:"reason,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewWorldStateJob builds a world-state refresh job with a fresh id.
func NewWorldStateJob(conversationID, characterID, userID int64, reason Reason) *Job {
	return &Job{
		JobID:          uuid.NewString(),
		Type:           JobTypeWorldState,
		ConversationID: conversationID,
		CharacterID:    characterID,
		UserID:         userID,
		Reason:         reason,
		EnqueuedAt:     time.Now().UTC(),
	}
}

// ToJSON serializes the job for Redis storage.
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// FromJSON parses a job from its Redis representation.
func FromJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
