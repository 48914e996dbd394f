// Package worker runs the background consumer that refreshes
// per-conversation world state off the request path.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roleplaychat/internal/services/events"
	"roleplaychat/internal/store"
	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/prompt"
	"roleplaychat/pkg/queue"
	"roleplaychat/pkg/worldstate"
)

// historyWindow is how many recent messages feed one generation cycle.
const historyWindow = 20

// errorBackoff throttles the loop after a dequeue failure so a broken
// Redis connection does not spin hot.
const errorBackoff = 2 * time.Second

// Dequeuer is the consumer side of the job queue.
type Dequeuer interface {
	DequeueWorldState(ctx context.Context) (*queue.Job, error)
}

// WorldStateWriter persists the generated document.
type WorldStateWriter interface {
	Put(ctx context.Context, conversationID int64, doc worldstate.Document) error
}

// Worker consumes world-state jobs and writes refreshed documents.
type Worker struct {
	Queue       Dequeuer
	DB          *store.DB
	WorldStates WorldStateWriter
	Personas    prompt.PersonaLookup
	Assembler   *prompt.Assembler
	Notifier    events.Notifier
	Settings    prompt.Settings
	Logger      *slog.Logger
}

// Run consumes jobs until ctx is cancelled. Job failures are logged and
// skipped; only context cancellation stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.Logger.Info("worker started")
	for {
		job, err := w.Queue.DequeueWorldState(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				w.Logger.Info("worker stopping")
				return ctx.Err()
			}
			w.Logger.Error("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := w.Process(ctx, job); err != nil {
			w.Logger.Error("job failed",
				"job_id", job.JobID,
				"conversation_id", job.ConversationID,
				"error", err)
		}
	}
}

// Process runs one world-state refresh job end to end.
func (w *Worker) Process(ctx context.Context, job *queue.Job) error {
	started := time.Now()
	w.Logger.Info("processing job",
		"job_id", job.JobID,
		"conversation_id", job.ConversationID,
		"reason", job.Reason)

	conv, err := w.DB.GetConversation(ctx, job.ConversationID)
	if err != nil {
		return err
	}
	char, err := w.DB.GetCharacter(ctx, conv.CharacterID)
	if err != nil {
		return err
	}

	userName := DefaultUserNameFor(ctx, w.Personas, conv.UserID, w.Logger)

	messages, err := w.DB.RecentMessages(ctx, job.ConversationID, historyWindow)
	if err != nil {
		return err
	}
	history := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, chat.Message{
			Role:       m.Role,
			Content:    m.Content,
			SenderName: m.SenderName,
		})
	}

	settings := w.Settings
	settings.UserID = conv.UserID

	doc := w.Assembler.GenerateWorldState(ctx, prompt.GenerationInput{
		ConversationID:       job.ConversationID,
		CharacterName:        char.Name,
		CharacterDescription: char.Description,
		Scenario:             conv.Scenario,
		UserName:             userName,
		History:              chat.Transcript(history, userName, char.Name),
		Settings:             settings,
	})

	if err := w.WorldStates.Put(ctx, job.ConversationID, doc); err != nil {
		return err
	}

	if w.Notifier != nil {
		if err := w.Notifier.Publish(ctx, events.Event{
			Type:           events.EventTypeWorldStateUpdated,
			ConversationID: job.ConversationID,
			Data:           map[string]any{"reason": string(job.Reason)},
		}); err != nil {
			w.Logger.Warn("publish event failed", "error", err)
		}
	}

	w.Logger.Info("job done",
		"job_id", job.JobID,
		"conversation_id", job.ConversationID,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// DefaultUserNameFor resolves the user's display name, tolerating
// lookup failures with the default profile name.
func DefaultUserNameFor(ctx context.Context, personas prompt.PersonaLookup, userID int64, logger *slog.Logger) string {
	if personas == nil {
		return "User"
	}
	info, err := personas.ActiveUserInfo(ctx, userID)
	if err != nil {
		logger.Warn("persona lookup failed, using default name",
			"user_id", userID, "error", err)
		return "User"
	}
	if info.Name == "" {
		return "User"
	}
	return info.Name
}
