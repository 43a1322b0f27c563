package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socratic-coach/backend/internal/api"
	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/interfaces/mocks"
	"socratic-coach/backend/internal/prompt"
	"socratic-coach/backend/internal/service"
)

// addChiURLParams simulates how the chi router injects URL parameters
// (e.g. `{threadID}`) into the request's context.
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func setupCoachHandler(t *testing.T) (*api.CoachHandler, *mocks.MockCoachService) {
	mockCoach := mocks.NewMockCoachService(t)
	return api.NewCoachHandler(mockCoach), mockCoach
}

func TestCoachHandler_HandleGenerateQuestion(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// ARRANGE
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateQuestion", mock.Anything, mock.MatchedBy(func(req *service.QuestionRequest) bool {
			return req.IsFirst && req.Problem == "Should I change jobs?"
		})).Return("What draws you to a new role?", nil).Once()

		body := `{"problem":"Should I change jobs?","questions":[],"isFirst":true}`
		req := httptest.NewRequest(http.MethodPost, "/api/generate-question", strings.NewReader(body))
		rr := httptest.NewRecorder()

		// ACT
		handler.HandleGenerateQuestion(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "What draws you to a new role?", decodeBody(t, rr)["question"])
	})

	t.Run("Missing problem", func(t *testing.T) {
		handler, _ := setupCoachHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/generate-question", strings.NewReader(`{"questions":[]}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateQuestion(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Problem description is required", body["error"])
		assert.NotContains(t, body, "fallbackQuestion")
	})

	t.Run("Upstream failure carries the fallback", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateQuestion", mock.Anything, mock.Anything).
			Return("", fmt.Errorf("%w: timeout", app_errors.ErrUpstream)).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/generate-question", strings.NewReader(`{"problem":"p"}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateQuestion(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed to generate question", body["error"])
		assert.Equal(t, prompt.FallbackQuestion, body["fallbackQuestion"])
	})
}

func TestCoachHandler_HandleGenerateSummary(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateSummary", mock.Anything, mock.MatchedBy(func(req *service.SummaryRequest) bool {
			return len(req.Questions) == 1
		})).Return("You value growth.", nil).Once()

		body := `{"problem":"p","questions":[{"question":"q","answer":"a"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/generate-summary", strings.NewReader(body))
		rr := httptest.NewRecorder()

		handler.HandleGenerateSummary(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "You value growth.", decodeBody(t, rr)["summary"])
	})

	t.Run("Empty question list is accepted", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateSummary", mock.Anything, mock.Anything).Return("ok", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/generate-summary", strings.NewReader(`{"problem":"p","questions":[]}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateSummary(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Missing questions", func(t *testing.T) {
		handler, _ := setupCoachHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/generate-summary", strings.NewReader(`{"problem":"p"}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateSummary(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Problem and questions are required", decodeBody(t, rr)["error"])
	})

	t.Run("Failure", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateSummary", mock.Anything, mock.Anything).Return("", app_errors.ErrUpstream).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/generate-summary", strings.NewReader(`{"problem":"p","questions":[]}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateSummary(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed to generate summary", body["error"])
		assert.Equal(t, prompt.FallbackSummary, body["fallbackSummary"])
	})
}

func TestCoachHandler_HandleGenerateActionPlan(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateActionPlan", mock.Anything, mock.Anything).Return("1. Update CV", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/generate-action-plan", strings.NewReader(`{"problem":"p","questions":[]}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateActionPlan(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "1. Update CV", decodeBody(t, rr)["actionPlan"])
	})

	t.Run("Unexpected failure still carries the fallback", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("GenerateActionPlan", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/generate-action-plan", strings.NewReader(`{"problem":"p","questions":[]}`))
		rr := httptest.NewRecorder()

		handler.HandleGenerateActionPlan(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed to generate action plan", body["error"])
		assert.Equal(t, prompt.FallbackActionPlan, body["fallbackPlan"])
	})
}

func TestCoachHandler_HandleCoachingChat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("CoachingReply", mock.Anything, mock.MatchedBy(func(req *service.CoachingRequest) bool {
			return req.UserMessage == "How do I start?" && len(req.CoachingMessages) == 1
		})).Return("Start small.", nil).Once()

		body := `{"problem":"p","questions":[],"summary":"s","coachingMessages":[{"role":"assistant","content":"Hi"}],"userMessage":"How do I start?"}`
		req := httptest.NewRequest(http.MethodPost, "/api/coaching-chat", strings.NewReader(body))
		rr := httptest.NewRecorder()

		handler.HandleCoachingChat(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Start small.", decodeBody(t, rr)["response"])
	})

	t.Run("Missing user message", func(t *testing.T) {
		handler, _ := setupCoachHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/coaching-chat", strings.NewReader(`{"problem":"p"}`))
		rr := httptest.NewRecorder()

		handler.HandleCoachingChat(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Problem and user message are required", decodeBody(t, rr)["error"])
	})

	t.Run("Invalid role", func(t *testing.T) {
		handler, _ := setupCoachHandler(t)

		body := `{"problem":"p","coachingMessages":[{"role":"system","content":"x"}],"userMessage":"hi"}`
		req := httptest.NewRequest(http.MethodPost, "/api/coaching-chat", strings.NewReader(body))
		rr := httptest.NewRecorder()

		handler.HandleCoachingChat(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Failure", func(t *testing.T) {
		handler, mockCoach := setupCoachHandler(t)
		mockCoach.On("CoachingReply", mock.Anything, mock.Anything).Return("", app_errors.ErrUpstream).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/coaching-chat", strings.NewReader(`{"problem":"p","userMessage":"hi"}`))
		rr := httptest.NewRecorder()

		handler.HandleCoachingChat(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed to generate coaching response", body["error"])
		assert.Equal(t, prompt.FallbackCoaching, body["fallbackResponse"])
	})
}
