package interfaces

import (
	"context"
	"io"

	"socratic-coach/backend/internal/document"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows for
// decoupling (e.g., API layer from Service layer) and easier testing via mocking.

// CoachService defines the contract for the four language model operations.
type CoachService interface {
	GenerateQuestion(ctx context.Context, req *service.QuestionRequest) (string, error)
	GenerateSummary(ctx context.Context, req *service.SummaryRequest) (string, error)
	GenerateActionPlan(ctx context.Context, req *service.ActionPlanRequest) (string, error)
	CoachingReply(ctx context.Context, req *service.CoachingRequest) (string, error)
}

// ConversationService defines the contract for persisted thinking sessions.
// A nil owner means anonymous use.
type ConversationService interface {
	Save(ctx context.Context, owner *string, req *service.SaveConversationRequest) (string, error)
	List(ctx context.Context, owner *string, query string) ([]*model.Thread, error)
	Get(ctx context.Context, owner *string, threadID string) (*model.FullThread, error)
	Delete(ctx context.Context, owner *string, threadID string) error
	UpdateStatus(ctx context.Context, owner *string, threadID string, status model.ThreadStatus) error
	Export(ctx context.Context, owner *string, threadID string, includeCoaching bool) (*service.ExportedFile, error)
}

// DocumentService defines the contract for turning uploads into text.
type DocumentService interface {
	MaxBytes() int64
	Extract(ctx context.Context, filename, contentType string, r io.Reader) (*document.Result, error)
}
