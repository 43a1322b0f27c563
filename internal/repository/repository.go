package repository

import (
	"context"

	"socratic-coach/backend/internal/model"
)

// Repository defines the interface for data storage operations.
type Repository interface {
	// CreateThread inserts the thread and its initial messages atomically.
	CreateThread(ctx context.Context, thread *model.Thread, messages []model.Message) error
	GetThread(ctx context.Context, threadID string) (*model.Thread, error)
	// ListThreads returns the threads owned by userID, newest first. A nil
	// userID selects threads saved anonymously.
	ListThreads(ctx context.Context, userID *string) ([]*model.Thread, error)
	// UpdateThread rewrites the thread row wholesale and appends messages.
	UpdateThread(ctx context.Context, thread *model.Thread, messages []model.Message) error
	UpdateThreadStatus(ctx context.Context, threadID string, status model.ThreadStatus) error
	// DeleteThread removes the thread's messages and then the thread.
	DeleteThread(ctx context.Context, threadID string) error

	GetMessages(ctx context.Context, threadID string) ([]model.Message, error)

	UpsertUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
}
