package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/export"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/repository"
)

const titleLength = 50

// ConversationService persists thinking sessions. Owner ids are nil for
// anonymous use; a thread is only visible to the owner it was saved with.
type ConversationService struct {
	repo repository.Repository
	now  func() time.Time
}

// SaveConversationRequest creates a thread when ThreadID is empty and
// updates it otherwise.
type SaveConversationRequest struct {
	ThreadID         string                  `json:"threadId,omitempty"`
	Problem          string                  `json:"problem" validate:"required"`
	Questions        []model.QuestionAnswer  `json:"questions"`
	Summary          string                  `json:"summary,omitempty"`
	ActionPlan       string                  `json:"actionPlan,omitempty"`
	CoachingMessages []model.CoachingMessage `json:"coachingMessages"`
}

func (r *SaveConversationRequest) transcript() *model.Transcript {
	return &model.Transcript{
		Problem:          r.Problem,
		Questions:        r.Questions,
		Summary:          r.Summary,
		ActionPlan:       r.ActionPlan,
		CoachingMessages: r.CoachingMessages,
	}
}

// ExportedFile is a rendered text export ready to be downloaded.
type ExportedFile struct {
	Filename string
	Content  string
}

func NewConversationService(repo repository.Repository) *ConversationService {
	return &ConversationService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Save upserts the session. Questions and coaching messages may only grow:
// a request that drops or rewrites a stored entry is a conflict.
func (s *ConversationService) Save(ctx context.Context, owner *string, req *SaveConversationRequest) (string, error) {
	tr := req.transcript()
	if !tr.HasContent() {
		return "", fmt.Errorf("%w: nothing to save yet", app_errors.ErrValidation)
	}
	for i, msg := range req.CoachingMessages {
		if !msg.Role.Valid() {
			return "", fmt.Errorf("%w: coaching message %d has invalid role %q", app_errors.ErrValidation, i, msg.Role)
		}
	}

	now := s.now()
	if req.ThreadID == "" {
		return s.create(ctx, owner, req, now)
	}
	return s.update(ctx, owner, req, now)
}

func (s *ConversationService) create(ctx context.Context, owner *string, req *SaveConversationRequest, now time.Time) (string, error) {
	thread := &model.Thread{
		ID:               uuid.NewString(),
		UserID:           owner,
		Title:            makeTitle(req.Problem),
		Problem:          req.Problem,
		Questions:        nonNilQuestions(req.Questions),
		Summary:          optional(req.Summary),
		ActionPlan:       optional(req.ActionPlan),
		CoachingMessages: nonNilCoaching(req.CoachingMessages),
		Status:           statusFor(model.StatusActive, req.ActionPlan),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	messages, err := deriveMessages(thread.ID, &model.Thread{}, thread, now)
	if err != nil {
		return "", err
	}

	if err := s.repo.CreateThread(ctx, thread, messages); err != nil {
		return "", fmt.Errorf("could not create thread: %w", err)
	}
	slog.InfoContext(ctx, "Created conversation thread", "thread_id", thread.ID, "messages", len(messages))
	return thread.ID, nil
}

func (s *ConversationService) update(ctx context.Context, owner *string, req *SaveConversationRequest, now time.Time) (string, error) {
	existing, err := s.owned(ctx, owner, req.ThreadID)
	if err != nil {
		return "", err
	}

	if !questionsExtend(existing.Questions, req.Questions) {
		return "", fmt.Errorf("%w: questions of thread %s can only be appended", app_errors.ErrConflict, existing.ID)
	}
	if !coachingExtends(existing.CoachingMessages, req.CoachingMessages) {
		return "", fmt.Errorf("%w: coaching messages of thread %s can only be appended", app_errors.ErrConflict, existing.ID)
	}

	updated := *existing
	updated.Problem = req.Problem
	updated.Title = makeTitle(req.Problem)
	updated.Questions = nonNilQuestions(req.Questions)
	updated.CoachingMessages = nonNilCoaching(req.CoachingMessages)
	// An omitted summary or plan keeps the stored one; they change only by
	// regeneration.
	if req.Summary != "" {
		updated.Summary = optional(req.Summary)
	}
	if req.ActionPlan != "" {
		updated.ActionPlan = optional(req.ActionPlan)
	}
	plan := ""
	if updated.ActionPlan != nil {
		plan = *updated.ActionPlan
	}
	updated.Status = statusFor(existing.Status, plan)
	updated.UpdatedAt = now

	messages, err := deriveMessages(existing.ID, existing, &updated, now)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateThread(ctx, &updated, messages); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: thread %s", app_errors.ErrNotFound, existing.ID)
		}
		return "", fmt.Errorf("could not update thread: %w", err)
	}
	slog.DebugContext(ctx, "Updated conversation thread", "thread_id", existing.ID, "new_messages", len(messages))
	return existing.ID, nil
}

// List returns the caller's threads, most recently updated first. A non-empty
// query keeps threads whose title, problem or summary contain it, ignoring case.
func (s *ConversationService) List(ctx context.Context, owner *string, query string) ([]*model.Thread, error) {
	threads, err := s.repo.ListThreads(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("could not list threads: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return threads, nil
	}

	filtered := make([]*model.Thread, 0, len(threads))
	for _, t := range threads {
		haystack := strings.ToLower(t.Title + "\n" + t.Problem)
		if t.Summary != nil {
			haystack += "\n" + strings.ToLower(*t.Summary)
		}
		if strings.Contains(haystack, query) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// Get returns the thread with its derived messages.
func (s *ConversationService) Get(ctx context.Context, owner *string, threadID string) (*model.FullThread, error) {
	thread, err := s.owned(ctx, owner, threadID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullThread{Thread: *thread, Messages: messages}, nil
}

// Delete removes the thread and, first, its messages.
func (s *ConversationService) Delete(ctx context.Context, owner *string, threadID string) error {
	if _, err := s.owned(ctx, owner, threadID); err != nil {
		return err
	}
	if err := s.repo.DeleteThread(ctx, threadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: thread %s", app_errors.ErrNotFound, threadID)
		}
		return fmt.Errorf("could not delete thread: %w", err)
	}
	slog.InfoContext(ctx, "Deleted conversation thread", "thread_id", threadID)
	return nil
}

func (s *ConversationService) UpdateStatus(ctx context.Context, owner *string, threadID string, status model.ThreadStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status %q", app_errors.ErrValidation, status)
	}
	if _, err := s.owned(ctx, owner, threadID); err != nil {
		return err
	}
	if err := s.repo.UpdateThreadStatus(ctx, threadID, status); err != nil {
		return fmt.Errorf("could not update status: %w", err)
	}
	return nil
}

// Export renders the stored thread in the session download layout.
func (s *ConversationService) Export(ctx context.Context, owner *string, threadID string, includeCoaching bool) (*ExportedFile, error) {
	thread, err := s.owned(ctx, owner, threadID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &ExportedFile{
		Filename: export.Filename(export.KindSession, now),
		Content:  export.RenderSession(thread.Transcript(), export.Options{IncludeCoaching: includeCoaching, GeneratedAt: now}),
	}, nil
}

// owned loads a thread and hides threads of other owners behind ErrNotFound.
func (s *ConversationService) owned(ctx context.Context, owner *string, threadID string) (*model.Thread, error) {
	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: thread %s", app_errors.ErrNotFound, threadID)
		}
		return nil, fmt.Errorf("could not get thread: %w", err)
	}
	if !sameOwner(thread.UserID, owner) {
		return nil, fmt.Errorf("%w: thread %s", app_errors.ErrNotFound, threadID)
	}
	return thread, nil
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func questionsExtend(stored, incoming []model.QuestionAnswer) bool {
	if len(incoming) < len(stored) {
		return false
	}
	for i := range stored {
		if stored[i] != incoming[i] {
			return false
		}
	}
	return true
}

func coachingExtends(stored, incoming []model.CoachingMessage) bool {
	if len(incoming) < len(stored) {
		return false
	}
	for i := range stored {
		if stored[i] != incoming[i] {
			return false
		}
	}
	return true
}

// statusFor keeps archived threads archived; otherwise a thread is completed
// once it has an action plan.
func statusFor(current model.ThreadStatus, actionPlan string) model.ThreadStatus {
	switch {
	case current == model.StatusArchived:
		return model.StatusArchived
	case actionPlan != "":
		return model.StatusCompleted
	default:
		return model.StatusActive
	}
}

// messageMetadata is stored with each derived message row. Index is the
// position in the questions or coaching list.
type messageMetadata struct {
	Index *int       `json:"index,omitempty"`
	Role  model.Role `json:"role,omitempty"`
}

func at(i int) *int { return &i }

// deriveMessages turns what next adds over prev into message rows.
func deriveMessages(threadID string, prev, next *model.Thread, now time.Time) ([]model.Message, error) {
	var out []model.Message
	add := func(typ model.MessageType, content string, meta messageMetadata) error {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("could not encode %s metadata: %w", typ, err)
		}
		out = append(out, model.Message{
			ID:        uuid.NewString(),
			ThreadID:  threadID,
			Type:      typ,
			Content:   content,
			Metadata:  raw,
			CreatedAt: now,
		})
		return nil
	}

	for i := len(prev.Questions); i < len(next.Questions); i++ {
		qa := next.Questions[i]
		if err := add(model.MessageQuestion, qa.Question, messageMetadata{Index: at(i)}); err != nil {
			return nil, err
		}
		if err := add(model.MessageAnswer, qa.Answer, messageMetadata{Index: at(i)}); err != nil {
			return nil, err
		}
	}
	if changed(prev.Summary, next.Summary) {
		if err := add(model.MessageSummary, *next.Summary, messageMetadata{}); err != nil {
			return nil, err
		}
	}
	if changed(prev.ActionPlan, next.ActionPlan) {
		if err := add(model.MessageActionPlan, *next.ActionPlan, messageMetadata{}); err != nil {
			return nil, err
		}
	}
	for i := len(prev.CoachingMessages); i < len(next.CoachingMessages); i++ {
		msg := next.CoachingMessages[i]
		if err := add(model.MessageCoaching, msg.Content, messageMetadata{Index: at(i), Role: msg.Role}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func changed(prev, next *string) bool {
	if next == nil {
		return false
	}
	return prev == nil || *prev != *next
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilQuestions(q []model.QuestionAnswer) []model.QuestionAnswer {
	if q == nil {
		return []model.QuestionAnswer{}
	}
	return q
}

func nonNilCoaching(c []model.CoachingMessage) []model.CoachingMessage {
	if c == nil {
		return []model.CoachingMessage{}
	}
	return c
}

// makeTitle shortens the problem to a list label.
func makeTitle(problem string) string {
	problem = strings.Join(strings.Fields(problem), " ")
	runes := []rune(problem)
	if len(runes) <= titleLength {
		return problem
	}
	return string(runes[:titleLength]) + "..."
}
