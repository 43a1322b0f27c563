package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/prompt"
	"socratic-coach/backend/internal/session"
	"socratic-coach/backend/internal/session/mocks"
)

const jobProblem = "Should I change jobs? I feel stuck in my current role and I'm not growing."

// serverFallbackError mimics a gateway error that carries its own fallback.
type serverFallbackError struct{ text string }

func (e *serverFallbackError) Error() string        { return "500: Failed to generate summary" }
func (e *serverFallbackError) FallbackText() string { return e.text }

func historyLen(n int) interface{} {
	return mock.MatchedBy(func(h []model.QuestionAnswer) bool { return len(h) == n })
}

func TestSession_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("Short typed problem is rejected", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		s := session.New(gateway, nil)
		require.NoError(t, s.SetProblem("Too short"))

		err := s.Start(ctx)

		assert.ErrorIs(t, err, session.ErrProblemTooShort)
		assert.Equal(t, session.StageInitial, s.Snapshot().Stage)
		assert.False(t, s.Snapshot().Busy)
		gateway.AssertNotCalled(t, "GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Twenty characters is enough", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("GenerateQuestion", mock.Anything, "12345678901234567890", historyLen(0), true).Return("Why?", nil).Once()
		s := session.New(gateway, nil)
		require.NoError(t, s.SetProblem("  12345678901234567890  "))

		require.NoError(t, s.Start(ctx))

		state := s.Snapshot()
		assert.Equal(t, session.StageQuestioning, state.Stage)
		assert.Equal(t, "Why?", state.CurrentQuestion)
	})

	t.Run("Document text skips the length check", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("GenerateQuestion", mock.Anything, "Move?", historyLen(0), true).Return("Where to?", nil).Once()
		s := session.New(gateway, nil)
		require.NoError(t, s.SetProblemFrom(session.SourceDocument, "Move?"))

		require.NoError(t, s.Start(ctx))
		assert.Equal(t, session.StageQuestioning, s.Snapshot().Stage)
	})

	t.Run("Empty transcription is still rejected", func(t *testing.T) {
		s := session.New(mocks.NewMockGateway(t), nil)
		require.NoError(t, s.SetProblemFrom(session.SourceSpeech, "   "))

		assert.ErrorIs(t, s.Start(ctx), session.ErrProblemTooShort)
	})

	t.Run("Failure falls back and still advances", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, true).Return("", errors.New("connection refused")).Once()
		s := session.New(gateway, nil)
		require.NoError(t, s.SetProblem(jobProblem))

		require.NoError(t, s.Start(ctx))

		state := s.Snapshot()
		assert.Equal(t, session.StageQuestioning, state.Stage)
		assert.Equal(t, prompt.FallbackQuestion, state.CurrentQuestion)
		assert.Equal(t, []session.Field{session.FieldQuestion}, s.Degraded())
	})
}

func TestSession_JobChangeScenario(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockGateway(t)
	saver := mocks.NewMockSaver(t)

	gateway.On("GenerateQuestion", mock.Anything, jobProblem, historyLen(0), true).Return("What makes you feel stuck?", nil).Once()
	for n := 1; n < session.MaxQuestions; n++ {
		gateway.On("GenerateQuestion", mock.Anything, jobProblem, historyLen(n), false).Return(fmt.Sprintf("Question %d?", n+1), nil).Once()
	}
	gateway.On("GenerateSummary", mock.Anything, jobProblem, historyLen(session.MaxQuestions)).Return("You value growth over stability.", nil).Once()
	gateway.On("GenerateActionPlan", mock.Anything, jobProblem, historyLen(session.MaxQuestions)).Return("1. Talk to your manager.", nil).Once()

	// The first save creates the thread; every later save must reuse its id.
	saver.On("SaveConversation", mock.Anything, "", mock.Anything).Return("thread-1", nil).Once()
	saver.On("SaveConversation", mock.Anything, "thread-1", mock.Anything).Return("thread-1", nil).Times(session.MaxQuestions + 1)

	s := session.New(gateway, saver)
	require.NoError(t, s.SetProblem(jobProblem))
	require.NoError(t, s.Start(ctx))

	for i := 1; i <= session.MaxQuestions; i++ {
		require.NoError(t, s.SubmitAnswer(ctx, fmt.Sprintf("Answer %d", i)))
		if i < session.MaxQuestions {
			assert.Equal(t, session.StageQuestioning, s.Snapshot().Stage)
			assert.Equal(t, fmt.Sprintf("Question %d?", i+1), s.Snapshot().CurrentQuestion)
		}
	}

	state := s.Snapshot()
	assert.Equal(t, session.StageSummary, state.Stage)
	assert.Len(t, state.Questions, session.MaxQuestions)
	assert.Equal(t, "What makes you feel stuck?", state.Questions[0].Question)
	assert.Equal(t, "You value growth over stability.", state.Summary)

	require.NoError(t, s.GenerateActionPlan(ctx))
	s.WaitForSaves()

	state = s.Snapshot()
	assert.Equal(t, session.StageActionPlan, state.Stage)
	assert.Equal(t, "1. Talk to your manager.", state.ActionPlan)
	assert.Equal(t, "thread-1", state.ThreadID)
	assert.Empty(t, s.Degraded())

	// The last save carries the whole session.
	last := saver.Calls[len(saver.Calls)-1].Arguments.Get(2).(*model.Transcript)
	assert.Equal(t, "1. Talk to your manager.", last.ActionPlan)
	assert.Len(t, last.Questions, session.MaxQuestions)
}

func TestSession_SubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("Blank answer", func(t *testing.T) {
		s := session.New(mocks.NewMockGateway(t), nil)
		assert.ErrorIs(t, s.SubmitAnswer(ctx, "  "), session.ErrEmptyInput)
	})

	t.Run("Wrong stage", func(t *testing.T) {
		s := session.New(mocks.NewMockGateway(t), nil)
		assert.ErrorIs(t, s.SubmitAnswer(ctx, "yes"), session.ErrWrongStage)
	})

	t.Run("Summary failure uses the server fallback", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("Q?", nil)
		gateway.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).
			Return("", fmt.Errorf("gateway: %w", &serverFallbackError{text: "Server says thanks."})).Once()
		s := session.New(gateway, nil)
		require.NoError(t, s.SetProblem(jobProblem))
		require.NoError(t, s.Start(ctx))

		for i := 0; i < session.MaxQuestions; i++ {
			require.NoError(t, s.SubmitAnswer(ctx, "a"))
		}

		state := s.Snapshot()
		assert.Equal(t, session.StageSummary, state.Stage)
		assert.Equal(t, "Server says thanks.", state.Summary)
		assert.Equal(t, []session.Field{session.FieldSummary}, s.Degraded())
	})
}

func TestSession_Busy(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockGateway(t)
	started := make(chan struct{})
	release := make(chan struct{})
	gateway.On("GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, true).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return("Q1?", nil).Once()

	s := session.New(gateway, nil)
	require.NoError(t, s.SetProblem(jobProblem))

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	<-started

	assert.True(t, s.Snapshot().Busy)
	assert.ErrorIs(t, s.Start(ctx), session.ErrBusy)
	assert.ErrorIs(t, s.SubmitAnswer(ctx, "early"), session.ErrBusy)
	assert.ErrorIs(t, s.Reset(), session.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().Busy)
	assert.Equal(t, "Q1?", s.Snapshot().CurrentQuestion)
}

// coachingSession returns a session already in the summary stage.
func coachingLen(n int) interface{} {
	return mock.MatchedBy(func(t *model.Transcript) bool { return len(t.CoachingMessages) == n })
}

func coachingSession(t *testing.T, gateway *mocks.MockGateway, saver session.Saver) *session.Session {
	t.Helper()
	summary := "You value growth."
	s := session.New(gateway, saver)
	require.NoError(t, s.Resume(context.Background(), &model.Thread{
		ID:        "thread-9",
		Problem:   jobProblem,
		Questions: []model.QuestionAnswer{{Question: "q", Answer: "a"}},
		Summary:   &summary,
	}))
	return s
}

func TestSession_Coaching(t *testing.T) {
	ctx := context.Background()

	t.Run("Greeting then exchange", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		saver := mocks.NewMockSaver(t)
		gateway.On("CoachingReply", mock.Anything, mock.MatchedBy(func(tr *model.Transcript) bool {
			// Prior messages only: the new message travels separately.
			return len(tr.CoachingMessages) == 1 && tr.Summary == "You value growth."
		}), "Where do I start?").Return("Start with one conversation.", nil).Once()
		saver.On("SaveConversation", mock.Anything, "thread-9", coachingLen(1)).Return("thread-9", nil).Once()
		saver.On("SaveConversation", mock.Anything, "thread-9", coachingLen(3)).Return("thread-9", nil).Once()

		s := coachingSession(t, gateway, saver)
		assert.Equal(t, session.StageSummary, s.Snapshot().Stage)

		require.NoError(t, s.StartCoaching())
		require.NoError(t, s.StartCoaching())
		require.Len(t, s.Snapshot().CoachingMessages, 1, "greeting is seeded once")
		assert.Equal(t, prompt.CoachingGreeting, s.Snapshot().CoachingMessages[0].Content)

		// The greeting is saved on its own, before any exchange.
		s.WaitForSaves()
		saver.AssertNumberOfCalls(t, "SaveConversation", 1)
		greeted := saver.Calls[0].Arguments.Get(2).(*model.Transcript)
		assert.Equal(t, prompt.CoachingGreeting, greeted.CoachingMessages[0].Content)

		require.NoError(t, s.SendCoachingMessage(ctx, "Where do I start?"))
		s.WaitForSaves()

		msgs := s.Snapshot().CoachingMessages
		require.Len(t, msgs, 3)
		assert.Equal(t, model.CoachingMessage{Role: model.RoleUser, Content: "Where do I start?"}, msgs[1])
		assert.Equal(t, model.CoachingMessage{Role: model.RoleAssistant, Content: "Start with one conversation."}, msgs[2])
	})

	t.Run("Failed reply falls back", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("CoachingReply", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

		s := coachingSession(t, gateway, nil)
		require.NoError(t, s.StartCoaching())
		require.NoError(t, s.SendCoachingMessage(ctx, "Help"))

		msgs := s.Snapshot().CoachingMessages
		assert.Equal(t, prompt.FallbackCoaching, msgs[len(msgs)-1].Content)
		assert.Equal(t, []session.Field{session.FieldCoaching}, s.Degraded())
	})

	t.Run("Not before the summary", func(t *testing.T) {
		s := session.New(mocks.NewMockGateway(t), nil)
		assert.ErrorIs(t, s.StartCoaching(), session.ErrWrongStage)
		assert.ErrorIs(t, s.SendCoachingMessage(ctx, "hi"), session.ErrWrongStage)
	})
}

func TestSession_GenerateActionPlan_Regenerates(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockGateway(t)
	gateway.On("GenerateActionPlan", mock.Anything, jobProblem, historyLen(1)).Return("Plan A", nil).Once()
	gateway.On("GenerateActionPlan", mock.Anything, jobProblem, historyLen(1)).Return("Plan B", nil).Once()

	s := coachingSession(t, gateway, nil)
	require.NoError(t, s.GenerateActionPlan(ctx))
	assert.Equal(t, "Plan A", s.Snapshot().ActionPlan)

	require.NoError(t, s.GenerateActionPlan(ctx))
	assert.Equal(t, "Plan B", s.Snapshot().ActionPlan)
	assert.Equal(t, session.StageActionPlan, s.Snapshot().Stage)
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockGateway(t)
	saver := mocks.NewMockSaver(t)
	gateway.On("GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("Q?", nil)
	saver.On("SaveConversation", mock.Anything, "", mock.Anything).Return("thread-1", nil).Once()
	saver.On("SaveConversation", mock.Anything, "", mock.Anything).Return("thread-2", nil).Once()

	s := session.New(gateway, saver)
	require.NoError(t, s.SetProblem(jobProblem))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.SubmitAnswer(ctx, "first"))
	s.WaitForSaves()
	assert.Equal(t, "thread-1", s.Snapshot().ThreadID)

	require.NoError(t, s.Reset())

	state := s.Snapshot()
	assert.Equal(t, session.StageInitial, state.Stage)
	assert.Empty(t, state.Problem)
	assert.Empty(t, state.Questions)
	assert.Empty(t, state.ThreadID)

	require.NoError(t, s.SetProblem(jobProblem))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.SubmitAnswer(ctx, "again"))
	s.WaitForSaves()
	assert.Equal(t, "thread-2", s.Snapshot().ThreadID)
}

func TestSession_SaveFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	gateway := mocks.NewMockGateway(t)
	saver := mocks.NewMockSaver(t)
	gateway.On("GenerateQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("Q?", nil)
	saver.On("SaveConversation", mock.Anything, "", mock.Anything).Return("", errors.New("offline")).Once()
	saver.On("SaveConversation", mock.Anything, "", mock.Anything).Return("thread-1", nil).Once()

	s := session.New(gateway, saver)
	require.NoError(t, s.SetProblem(jobProblem))
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.SubmitAnswer(ctx, "one"))
	require.NoError(t, s.SubmitAnswer(ctx, "two"))
	s.WaitForSaves()

	assert.Equal(t, "thread-1", s.Snapshot().ThreadID)
}

func TestSession_Resume(t *testing.T) {
	ctx := context.Background()

	t.Run("Unfinished dialogue continues", func(t *testing.T) {
		gateway := mocks.NewMockGateway(t)
		gateway.On("GenerateQuestion", mock.Anything, jobProblem, historyLen(2), false).Return("Q3?", nil).Once()

		s := session.New(gateway, nil)
		require.NoError(t, s.Resume(ctx, &model.Thread{
			ID:        "t1",
			Problem:   jobProblem,
			Questions: []model.QuestionAnswer{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}},
		}))

		state := s.Snapshot()
		assert.Equal(t, session.StageQuestioning, state.Stage)
		assert.Equal(t, "Q3?", state.CurrentQuestion)
		assert.Equal(t, "t1", state.ThreadID)
	})

	t.Run("Coaching thread reopens the chat", func(t *testing.T) {
		summary := "s"
		s := session.New(mocks.NewMockGateway(t), nil)
		require.NoError(t, s.Resume(ctx, &model.Thread{
			ID:               "t2",
			Problem:          jobProblem,
			Summary:          &summary,
			CoachingMessages: []model.CoachingMessage{{Role: model.RoleAssistant, Content: "Hi"}},
		}))

		assert.Equal(t, session.StageCoaching, s.Snapshot().Stage)
	})
}
