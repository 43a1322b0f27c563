package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/llm"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/prompt"
)

// CoachService builds the coaching prompts and sends them to the language
// model. It keeps no state between calls: every request carries the whole
// transcript.
type CoachService struct {
	llm llm.LLMProvider
}

// QuestionRequest asks for the next Socratic question.
type QuestionRequest struct {
	Problem   string                 `json:"problem" validate:"required"`
	Questions []model.QuestionAnswer `json:"questions"`
	IsFirst   bool                   `json:"isFirst"`
}

// SummaryRequest asks for the insight summary once the dialogue is complete.
type SummaryRequest struct {
	Problem   string                 `json:"problem" validate:"required"`
	Questions []model.QuestionAnswer `json:"questions" validate:"required"`
}

// ActionPlanRequest has the same shape as SummaryRequest; the plan is built
// from the dialogue, not from the summary.
type ActionPlanRequest struct {
	Problem   string                 `json:"problem" validate:"required"`
	Questions []model.QuestionAnswer `json:"questions" validate:"required"`
}

// CoachingRequest carries one new user message plus everything said before.
type CoachingRequest struct {
	Problem          string                  `json:"problem" validate:"required"`
	Questions        []model.QuestionAnswer  `json:"questions"`
	Summary          string                  `json:"summary"`
	CoachingMessages []model.CoachingMessage `json:"coachingMessages"`
	UserMessage      string                  `json:"userMessage" validate:"required"`
}

func NewCoachService(provider llm.LLMProvider) *CoachService {
	return &CoachService{llm: provider}
}

func (s *CoachService) GenerateQuestion(ctx context.Context, req *QuestionRequest) (string, error) {
	p := prompt.Question(req.Problem, req.Questions, req.IsFirst)
	return s.generate(ctx, "question", p, prompt.QuestionMaxTokens)
}

func (s *CoachService) GenerateSummary(ctx context.Context, req *SummaryRequest) (string, error) {
	p := prompt.Summary(req.Problem, req.Questions)
	return s.generate(ctx, "summary", p, prompt.SummaryMaxTokens)
}

func (s *CoachService) GenerateActionPlan(ctx context.Context, req *ActionPlanRequest) (string, error) {
	p := prompt.ActionPlan(req.Problem, req.Questions)
	return s.generate(ctx, "action_plan", p, prompt.ActionPlanMaxTokens)
}

func (s *CoachService) CoachingReply(ctx context.Context, req *CoachingRequest) (string, error) {
	p := prompt.Coaching(req.Problem, req.Questions, req.Summary, req.CoachingMessages, req.UserMessage)
	return s.generate(ctx, "coaching", p, prompt.CoachingMaxTokens)
}

// generate makes exactly one model call. Any failure, including a blank
// completion, is reported as app_errors.ErrUpstream so the API can answer
// with the stage fallback.
func (s *CoachService) generate(ctx context.Context, operation, p string, maxTokens int) (string, error) {
	resp, err := s.llm.Generate(ctx, &llm.GenerateRequest{
		Operation: operation,
		Prompt:    p,
		MaxTokens: maxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Language model call failed", "operation", operation, "provider", s.llm.Name(), "error", err)
		return "", fmt.Errorf("%w: %s: %v", app_errors.ErrUpstream, operation, err)
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		slog.WarnContext(ctx, "Language model returned an empty completion", "operation", operation)
		return "", fmt.Errorf("%w: %s: empty completion", app_errors.ErrUpstream, operation)
	}
	return text, nil
}
