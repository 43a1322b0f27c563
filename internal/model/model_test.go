package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic-coach/backend/internal/model"
)

func TestCoachingMessage_RejectsUnknownRole(t *testing.T) {
	var msg model.CoachingMessage
	err := json.Unmarshal([]byte(`{"role":"system","content":"hi"}`), &msg)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"hi"}`), &msg))
	assert.Equal(t, model.RoleAssistant, msg.Role)
}

func TestThreadStatus_UnmarshalText(t *testing.T) {
	var s model.ThreadStatus
	assert.NoError(t, s.UnmarshalText([]byte("archived")))
	assert.Equal(t, model.StatusArchived, s)
	assert.Error(t, s.UnmarshalText([]byte("deleted")))
}

func TestMessageType_Valid(t *testing.T) {
	for _, v := range []model.MessageType{
		model.MessageQuestion, model.MessageAnswer, model.MessageSummary,
		model.MessageActionPlan, model.MessageCoaching,
	} {
		assert.True(t, v.Valid(), v)
	}
	assert.False(t, model.MessageType("note").Valid())
}

func TestTranscript_HasContent(t *testing.T) {
	tr := &model.Transcript{Problem: "something"}
	assert.False(t, tr.HasContent())

	tr.Questions = []model.QuestionAnswer{{Question: "q", Answer: "a"}}
	assert.True(t, tr.HasContent())

	assert.True(t, (&model.Transcript{ActionPlan: "plan"}).HasContent())
}

func TestThread_Transcript(t *testing.T) {
	summary := "insight"
	th := &model.Thread{Problem: "p", Summary: &summary}
	tr := th.Transcript()
	assert.Equal(t, "p", tr.Problem)
	assert.Equal(t, "insight", tr.Summary)
	assert.Empty(t, tr.ActionPlan)
}
