package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ThreadStatus is the lifecycle state of a thread.
type ThreadStatus string

const (
	StatusActive    ThreadStatus = "active"
	StatusCompleted ThreadStatus = "completed"
	StatusArchived  ThreadStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s ThreadStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// UnmarshalText rejects unknown statuses at the JSON boundary.
func (s *ThreadStatus) UnmarshalText(b []byte) error {
	v := ThreadStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid thread status %q", string(b))
	}
	*s = v
	return nil
}

// Role identifies the author of a coaching message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

func (r *Role) UnmarshalText(b []byte) error {
	v := Role(b)
	if !v.Valid() {
		return fmt.Errorf("invalid role %q", string(b))
	}
	*r = v
	return nil
}

// MessageType is the kind of turn a stored message represents.
type MessageType string

const (
	MessageQuestion   MessageType = "question"
	MessageAnswer     MessageType = "answer"
	MessageSummary    MessageType = "summary"
	MessageActionPlan MessageType = "action_plan"
	MessageCoaching   MessageType = "coaching"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageQuestion, MessageAnswer, MessageSummary, MessageActionPlan, MessageCoaching:
		return true
	}
	return false
}

func (t *MessageType) UnmarshalText(b []byte) error {
	v := MessageType(b)
	if !v.Valid() {
		return fmt.Errorf("invalid message type %q", string(b))
	}
	*t = v
	return nil
}

// QuestionAnswer is one completed step of the Socratic dialogue.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CoachingMessage is one turn of the open coaching chat.
type CoachingMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the client-held state of a thinking session. It is passed by
// value on every request; the server never keeps it between calls.
type Transcript struct {
	Problem          string            `json:"problem"`
	Questions        []QuestionAnswer  `json:"questions"`
	Summary          string            `json:"summary,omitempty"`
	ActionPlan       string            `json:"actionPlan,omitempty"`
	CoachingMessages []CoachingMessage `json:"coachingMessages"`
}

// HasContent reports whether the transcript carries anything worth persisting.
func (t *Transcript) HasContent() bool {
	return len(t.Questions) > 0 || t.Summary != "" || t.ActionPlan != "" || len(t.CoachingMessages) > 0
}

// Thread is one persisted thinking session.
type Thread struct {
	ID               string            `json:"id"`
	UserID           *string           `json:"userId"`
	Title            string            `json:"title"`
	Problem          string            `json:"problem"`
	Questions        []QuestionAnswer  `json:"questions"`
	Summary          *string           `json:"summary,omitempty"`
	ActionPlan       *string           `json:"actionPlan,omitempty"`
	CoachingMessages []CoachingMessage `json:"coachingMessages"`
	Status           ThreadStatus      `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Transcript returns the thread contents in the shape the exporter and the
// gateway work with.
func (t *Thread) Transcript() *Transcript {
	tr := &Transcript{
		Problem:          t.Problem,
		Questions:        t.Questions,
		CoachingMessages: t.CoachingMessages,
	}
	if t.Summary != nil {
		tr.Summary = *t.Summary
	}
	if t.ActionPlan != nil {
		tr.ActionPlan = *t.ActionPlan
	}
	return tr
}

// Message is a single turn of a thread, derived from the thread on save.
type Message struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"threadId"`
	Type      MessageType     `json:"type"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FullThread includes the thread and all its messages.
type FullThread struct {
	Thread
	Messages []Message `json:"messages"`
}

// User is a record owned by the external identity provider.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
