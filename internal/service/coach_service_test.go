package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/llm"
	mock_llm "socratic-coach/backend/internal/llm/mocks"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/prompt"
	"socratic-coach/backend/internal/service"
)

func setupCoachService(t *testing.T) (*service.CoachService, *mock_llm.MockLLMProvider) {
	provider := mock_llm.NewMockLLMProvider(t)
	provider.On("Name").Return("mock").Maybe()
	return service.NewCoachService(provider), provider
}

var history = []model.QuestionAnswer{
	{Question: "What makes you feel stuck?", Answer: "I do the same work every day."},
}

func TestCoachService_GenerateQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("First question uses only the problem", func(t *testing.T) {
		svc, provider := setupCoachService(t)
		provider.On("Generate", ctx, mock.MatchedBy(func(r *llm.GenerateRequest) bool {
			return r.Operation == "question" &&
				r.MaxTokens == prompt.QuestionMaxTokens &&
				strings.Contains(r.Prompt, "Should I change jobs?") &&
				!strings.Contains(r.Prompt, "same work")
		})).Return(&llm.GenerateResponse{Response: "  What matters most to you?\n"}, nil).Once()

		q, err := svc.GenerateQuestion(ctx, &service.QuestionRequest{Problem: "Should I change jobs?", IsFirst: true, Questions: history})

		require.NoError(t, err)
		assert.Equal(t, "What matters most to you?", q)
	})

	t.Run("Follow-up question includes the dialogue", func(t *testing.T) {
		svc, provider := setupCoachService(t)
		provider.On("Generate", ctx, mock.MatchedBy(func(r *llm.GenerateRequest) bool {
			return strings.Contains(r.Prompt, "I do the same work every day.")
		})).Return(&llm.GenerateResponse{Response: "Why?"}, nil).Once()

		_, err := svc.GenerateQuestion(ctx, &service.QuestionRequest{Problem: "Should I change jobs?", Questions: history})
		require.NoError(t, err)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		svc, provider := setupCoachService(t)
		provider.On("Generate", ctx, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		_, err := svc.GenerateQuestion(ctx, &service.QuestionRequest{Problem: "P"})
		assert.ErrorIs(t, err, app_errors.ErrUpstream)
	})

	t.Run("Empty completion is a failure", func(t *testing.T) {
		svc, provider := setupCoachService(t)
		provider.On("Generate", ctx, mock.Anything).Return(&llm.GenerateResponse{Response: "   "}, nil).Once()

		_, err := svc.GenerateQuestion(ctx, &service.QuestionRequest{Problem: "P"})
		assert.ErrorIs(t, err, app_errors.ErrUpstream)
	})
}

func TestCoachService_OutputCeilings(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		operation string
		maxTokens int
		call      func(*service.CoachService) (string, error)
	}{
		{"summary", prompt.SummaryMaxTokens, func(s *service.CoachService) (string, error) {
			return s.GenerateSummary(ctx, &service.SummaryRequest{Problem: "P", Questions: history})
		}},
		{"action_plan", prompt.ActionPlanMaxTokens, func(s *service.CoachService) (string, error) {
			return s.GenerateActionPlan(ctx, &service.ActionPlanRequest{Problem: "P", Questions: history})
		}},
		{"coaching", prompt.CoachingMaxTokens, func(s *service.CoachService) (string, error) {
			return s.CoachingReply(ctx, &service.CoachingRequest{Problem: "P", Questions: history, Summary: "S", UserMessage: "Help me start"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			svc, provider := setupCoachService(t)
			provider.On("Generate", ctx, mock.MatchedBy(func(r *llm.GenerateRequest) bool {
				return r.Operation == tt.operation && r.MaxTokens == tt.maxTokens
			})).Return(&llm.GenerateResponse{Response: "text"}, nil).Once()

			out, err := tt.call(svc)

			require.NoError(t, err)
			assert.Equal(t, "text", out)
		})
	}
}
