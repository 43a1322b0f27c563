package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic-coach/backend/internal/client"
	"socratic-coach/backend/internal/document"
	"socratic-coach/backend/internal/export"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/prompt"
)

type fakeBackend struct {
	mu        sync.Mutex
	saves     []string
	threads   []*model.Thread
	uploaded  string
	emailErr  error
	failModel bool
}

func (f *fakeBackend) GenerateQuestion(_ context.Context, _ string, history []model.QuestionAnswer, _ bool) (string, error) {
	if f.failModel {
		return "", errors.New("model offline")
	}
	return fmt.Sprintf("Why does point %d matter?", len(history)+1), nil
}

func (f *fakeBackend) GenerateSummary(context.Context, string, []model.QuestionAnswer) (string, error) {
	return "You value growth over comfort.", nil
}

func (f *fakeBackend) GenerateActionPlan(context.Context, string, []model.QuestionAnswer) (string, error) {
	return "1. Talk to your manager this week.", nil
}

func (f *fakeBackend) CoachingReply(context.Context, *model.Transcript, string) (string, error) {
	return "What would a first small step look like?", nil
}

func (f *fakeBackend) SaveConversation(_ context.Context, threadID string, _ *model.Transcript) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, threadID)
	return "thread-1", nil
}

func (f *fakeBackend) ListConversations(context.Context, string) ([]*model.Thread, error) {
	return f.threads, nil
}

func (f *fakeBackend) UploadDocument(_ context.Context, filename string, r io.Reader) (*document.Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = filename
	return &document.Result{Content: string(raw), OriginalLength: len(raw)}, nil
}

func (f *fakeBackend) SendEmail(_ context.Context, subject, content string) (*client.EmailPreview, error) {
	if f.emailErr != nil {
		return nil, f.emailErr
	}
	return &client.EmailPreview{Success: true, Recipient: "sam@example.com", Subject: subject, EmailContent: content}, nil
}

func script(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestRepl_FullSession(t *testing.T) {
	// ARRANGE
	api := &fakeBackend{}
	dir := t.TempDir()
	var out strings.Builder
	input := []string{"Should I change jobs? I feel stuck in my current role."}
	for i := 1; i <= 6; i++ {
		input = append(input, fmt.Sprintf("answer %d", i))
	}
	input = append(input, "/plan", "/export", "/coach", "I am scared of the conversation.", "/export chat", "/quit")
	r := newRepl(api, script(input...), &out, dir)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	// ACT
	err := r.run(context.Background())

	// ASSERT
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "Question 1 of 6: Why does point 1 matter?")
	assert.Contains(t, text, "Question 6 of 6: Why does point 6 matter?")
	assert.Contains(t, text, "=== INSIGHTS & SUMMARY ===\nYou value growth over comfort.")
	assert.Contains(t, text, "=== ACTION PLAN ===\n1. Talk to your manager this week.")
	assert.Contains(t, text, "coach: "+prompt.CoachingGreeting)
	assert.Contains(t, text, "coach: What would a first small step look like?")
	assert.NotContains(t, text, "standard response")

	session, err := os.ReadFile(filepath.Join(dir, export.Filename(export.KindSession, now)))
	require.NoError(t, err)
	parsed, err := export.ParseSession(string(session))
	require.NoError(t, err)
	assert.Len(t, parsed.Questions, 6)
	assert.Equal(t, "1. Talk to your manager this week.", parsed.ActionPlan)

	_, err = os.Stat(filepath.Join(dir, export.Filename(export.KindCoaching, now)))
	assert.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.NotEmpty(t, api.saves)
	assert.Equal(t, "", api.saves[0])
	for _, id := range api.saves[1:] {
		assert.Equal(t, "thread-1", id)
	}
}

func TestRepl_InputHandling(t *testing.T) {
	t.Run("Short problem is rejected with a hint", func(t *testing.T) {
		var out strings.Builder
		r := newRepl(&fakeBackend{}, script("too short", "/quit"), &out, t.TempDir())

		require.NoError(t, r.run(context.Background()))

		assert.Contains(t, out.String(), "at least 20 characters")
		assert.NotContains(t, out.String(), "Question 1")
	})

	t.Run("Model outage shows the standard question", func(t *testing.T) {
		var out strings.Builder
		r := newRepl(&fakeBackend{failModel: true}, script("Should I change jobs? I feel stuck.", "/quit"), &out, t.TempDir())

		require.NoError(t, r.run(context.Background()))

		assert.Contains(t, out.String(), "Question 1 of 6: "+prompt.FallbackQuestion)
		assert.Contains(t, out.String(), "standard response")
	})

	t.Run("Commands out of stage are refused", func(t *testing.T) {
		var out strings.Builder
		r := newRepl(&fakeBackend{}, script("/plan", "/export", "/bogus", "/quit"), &out, t.TempDir())

		require.NoError(t, r.run(context.Background()))

		assert.Contains(t, out.String(), "That is not available right now.")
		assert.Contains(t, out.String(), "nothing to export yet")
		assert.Contains(t, out.String(), "Unknown command /bogus")
	})
}

func TestRepl_Email(t *testing.T) {
	t.Run("Anonymous users still get a mailto link", func(t *testing.T) {
		var out strings.Builder
		api := &fakeBackend{emailErr: &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}}
		r := newRepl(api, script("Should I change jobs? I feel stuck.", "/email", "/quit"), &out, t.TempDir())

		require.NoError(t, r.run(context.Background()))

		assert.Contains(t, out.String(), "mailto:?subject=Socratic%20Thinking%20Session")
		assert.NotContains(t, out.String(), "Prepared for")
	})

	t.Run("Signed in users also see the formatted draft", func(t *testing.T) {
		var out strings.Builder
		r := newRepl(&fakeBackend{}, script("Should I change jobs? I feel stuck.", "/email", "/quit"), &out, t.TempDir())

		require.NoError(t, r.run(context.Background()))

		assert.Contains(t, out.String(), "Prepared for sam@example.com")
	})
}

func TestRepl_HistoryAndOpen(t *testing.T) {
	// ARRANGE
	summary := "You value growth."
	api := &fakeBackend{threads: []*model.Thread{{
		ID:        "thread-9",
		Title:     "Should I change jobs?",
		Problem:   "Should I change jobs? I feel stuck in my current role.",
		Questions: []model.QuestionAnswer{{Question: "q", Answer: "a"}},
		Summary:   &summary,
		Status:    model.StatusActive,
		UpdatedAt: time.Now(),
	}}}
	var out strings.Builder
	r := newRepl(api, script("/history", "/open 2", "/open 1", "/coach", "/quit"), &out, t.TempDir())

	// ACT
	err := r.run(context.Background())

	// ASSERT
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, " 1. [active] Should I change jobs?")
	assert.Contains(t, text, "pick a number from the last /history listing")
	assert.Contains(t, text, "Resumed: Should I change jobs?")
	assert.Contains(t, text, "=== INSIGHTS & SUMMARY ===\nYou value growth.")
	assert.Contains(t, text, "coach: "+prompt.CoachingGreeting)
}

func TestRepl_LoadDocument(t *testing.T) {
	// ARRANGE
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Move?"), 0o600))
	api := &fakeBackend{}
	var out strings.Builder
	r := newRepl(api, script("/quit"), &out, t.TempDir())

	// ACT
	err := r.loadDocument(context.Background(), path)

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", api.uploaded)
	assert.Contains(t, out.String(), "Question 1 of 6")
	require.NoError(t, r.run(context.Background()))
}
