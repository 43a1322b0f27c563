// Package session is the client side of a thinking session: it walks the
// stages from problem statement to coaching chat, calls the gateway for
// every generated turn and auto-saves the transcript as it grows.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/prompt"
)

// Stage is the step of the session the user is in.
type Stage string

const (
	StageInitial     Stage = "initial"
	StageQuestioning Stage = "questioning"
	StageSummary     Stage = "summary"
	StageActionPlan  Stage = "actionplan"
	StageCoaching    Stage = "coaching"
)

// Source records how the problem text was entered.
type Source int

const (
	SourceTyped Source = iota
	SourceDocument
	SourceSpeech
)

// Field names a piece of generated content.
type Field string

const (
	FieldQuestion   Field = "question"
	FieldSummary    Field = "summary"
	FieldActionPlan Field = "actionPlan"
	FieldCoaching   Field = "coaching"
)

const (
	// MaxQuestions is the number of answered questions after which the
	// dialogue moves on to the summary.
	MaxQuestions = 6
	// MinProblemLength is the shortest typed problem, in characters, that
	// can start a session.
	MinProblemLength = 20

	saveTimeout = 30 * time.Second
)

var (
	ErrProblemTooShort = errors.New("problem description is too short")
	ErrBusy            = errors.New("a generation is already in progress")
	ErrWrongStage      = errors.New("action not available at this stage")
	ErrEmptyInput      = errors.New("input is empty")
)

// Gateway produces the generated turns. Implementations may return an error
// carrying a server-provided fallback text (see FallbackCarrier).
type Gateway interface {
	GenerateQuestion(ctx context.Context, problem string, history []model.QuestionAnswer, isFirst bool) (string, error)
	GenerateSummary(ctx context.Context, problem string, history []model.QuestionAnswer) (string, error)
	GenerateActionPlan(ctx context.Context, problem string, history []model.QuestionAnswer) (string, error)
	CoachingReply(ctx context.Context, t *model.Transcript, userMessage string) (string, error)
}

// Saver persists a snapshot. An empty threadID creates a thread; the
// returned id is used for every later save.
type Saver interface {
	SaveConversation(ctx context.Context, threadID string, t *model.Transcript) (string, error)
}

// FallbackCarrier is implemented by gateway errors that bring their own
// fallback text.
type FallbackCarrier interface {
	FallbackText() string
}

// State is a point-in-time copy of the session.
type State struct {
	Stage            Stage
	Problem          string
	Source           Source
	Questions        []model.QuestionAnswer
	CurrentQuestion  string
	Summary          string
	ActionPlan       string
	CoachingMessages []model.CoachingMessage
	ThreadID         string
	Busy             bool
}

// Transcript returns the parts of the state that are sent to the server.
func (s State) Transcript() *model.Transcript {
	return &model.Transcript{
		Problem:          s.Problem,
		Questions:        s.Questions,
		Summary:          s.Summary,
		ActionPlan:       s.ActionPlan,
		CoachingMessages: s.CoachingMessages,
	}
}

// Session is safe for concurrent use. Only one generation runs at a time;
// triggers arriving meanwhile get ErrBusy.
type Session struct {
	gateway Gateway
	saver   Saver

	mu              sync.Mutex
	stage           Stage
	problem         string
	source          Source
	questions       []model.QuestionAnswer
	currentQuestion string
	summary         string
	actionPlan      string
	coaching        []model.CoachingMessage
	threadID        string
	degraded        map[Field]bool
	busy            bool
	// epoch changes on Reset so saves of a discarded session cannot
	// resurrect its thread id.
	epoch uint64

	saves    sync.WaitGroup
	lastSave chan struct{}
}

// New creates a session in the initial stage. saver may be nil to disable
// auto-save.
func New(gateway Gateway, saver Saver) *Session {
	return &Session{
		gateway:  gateway,
		saver:    saver,
		stage:    StageInitial,
		degraded: map[Field]bool{},
	}
}

// SetProblem records typed problem text.
func (s *Session) SetProblem(text string) error {
	return s.SetProblemFrom(SourceTyped, text)
}

// SetProblemFrom records the problem text together with how it was entered.
// Text from a document or a transcription may start a session regardless
// of its length.
func (s *Session) SetProblemFrom(src Source, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.stage != StageInitial {
		return ErrWrongStage
	}
	s.problem = text
	s.source = src
	return nil
}

// Start asks for the first question.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.acquire(StageInitial); err != nil {
		s.mu.Unlock()
		return err
	}
	problem := strings.TrimSpace(s.problem)
	if problem == "" || (s.source == SourceTyped && utf8.RuneCountInString(problem) < MinProblemLength) {
		s.busy = false
		s.mu.Unlock()
		return ErrProblemTooShort
	}
	s.problem = problem
	s.mu.Unlock()

	question, err := s.gateway.GenerateQuestion(ctx, problem, nil, true)

	s.mu.Lock()
	defer s.release()
	s.currentQuestion = s.resolve(FieldQuestion, question, err, prompt.FallbackQuestion)
	s.stage = StageQuestioning
	return nil
}

// SubmitAnswer records the answer to the current question and fetches the
// next question, or the summary once MaxQuestions answers are in.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) error {
	if strings.TrimSpace(answer) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if err := s.acquire(StageQuestioning); err != nil {
		s.mu.Unlock()
		return err
	}
	s.questions = append(s.questions, model.QuestionAnswer{Question: s.currentQuestion, Answer: answer})
	s.currentQuestion = ""
	delete(s.degraded, FieldQuestion)
	problem, history := s.problem, cloneQuestions(s.questions)
	s.scheduleSave()
	s.mu.Unlock()

	if len(history) >= MaxQuestions {
		summary, err := s.gateway.GenerateSummary(ctx, problem, history)

		s.mu.Lock()
		defer s.release()
		s.summary = s.resolve(FieldSummary, summary, err, prompt.FallbackSummary)
		s.stage = StageSummary
		s.scheduleSave()
		return nil
	}

	question, err := s.gateway.GenerateQuestion(ctx, problem, history, false)

	s.mu.Lock()
	defer s.release()
	s.currentQuestion = s.resolve(FieldQuestion, question, err, prompt.FallbackQuestion)
	return nil
}

// GenerateActionPlan builds the plan from the dialogue. Calling it again
// from the action plan stage regenerates the plan.
func (s *Session) GenerateActionPlan(ctx context.Context) error {
	s.mu.Lock()
	if err := s.acquire(StageSummary, StageActionPlan); err != nil {
		s.mu.Unlock()
		return err
	}
	problem, history := s.problem, cloneQuestions(s.questions)
	s.mu.Unlock()

	plan, err := s.gateway.GenerateActionPlan(ctx, problem, history)

	s.mu.Lock()
	defer s.release()
	s.actionPlan = s.resolve(FieldActionPlan, plan, err, prompt.FallbackActionPlan)
	s.stage = StageActionPlan
	s.scheduleSave()
	return nil
}

// StartCoaching opens the chat. The greeting is only added to an empty chat
// so reopening it never rewrites history. Adding it triggers a save.
func (s *Session) StartCoaching() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	switch s.stage {
	case StageSummary, StageActionPlan, StageCoaching:
	default:
		return ErrWrongStage
	}
	s.stage = StageCoaching
	if len(s.coaching) == 0 {
		s.coaching = append(s.coaching, model.CoachingMessage{Role: model.RoleAssistant, Content: prompt.CoachingGreeting})
		s.scheduleSave()
	}
	return nil
}

// SendCoachingMessage appends the user's message at once and the reply when
// it arrives.
func (s *Session) SendCoachingMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if err := s.acquire(StageCoaching); err != nil {
		s.mu.Unlock()
		return err
	}
	t := &model.Transcript{
		Problem:          s.problem,
		Questions:        cloneQuestions(s.questions),
		Summary:          s.summary,
		ActionPlan:       s.actionPlan,
		CoachingMessages: cloneCoaching(s.coaching),
	}
	s.coaching = append(s.coaching, model.CoachingMessage{Role: model.RoleUser, Content: text})
	s.mu.Unlock()

	reply, err := s.gateway.CoachingReply(ctx, t, text)

	s.mu.Lock()
	defer s.release()
	content := s.resolve(FieldCoaching, reply, err, prompt.FallbackCoaching)
	s.coaching = append(s.coaching, model.CoachingMessage{Role: model.RoleAssistant, Content: content})
	s.scheduleSave()
	return nil
}

// Reset discards everything and returns to the initial stage. The next save
// creates a new thread.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.stage = StageInitial
	s.problem = ""
	s.source = SourceTyped
	s.questions = nil
	s.currentQuestion = ""
	s.summary = ""
	s.actionPlan = ""
	s.coaching = nil
	s.threadID = ""
	s.degraded = map[Field]bool{}
	s.epoch++
	return nil
}

// Resume loads a saved thread so the user can continue where they left off.
// A thread saved mid-dialogue continues with the next question, or with the
// summary when every question was already answered.
func (s *Session) Resume(ctx context.Context, t *model.Thread) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.epoch++
	s.threadID = t.ID
	s.problem = t.Problem
	s.source = SourceTyped
	s.questions = cloneQuestions(t.Questions)
	s.coaching = cloneCoaching(t.CoachingMessages)
	s.summary, s.actionPlan = "", ""
	if t.Summary != nil {
		s.summary = *t.Summary
	}
	if t.ActionPlan != nil {
		s.actionPlan = *t.ActionPlan
	}
	s.currentQuestion = ""
	s.degraded = map[Field]bool{}

	switch {
	case len(s.coaching) > 0:
		s.stage = StageCoaching
	case s.actionPlan != "":
		s.stage = StageActionPlan
	case s.summary != "":
		s.stage = StageSummary
	}
	if s.summary != "" || s.actionPlan != "" || len(s.coaching) > 0 {
		s.release()
		return nil
	}
	problem, history := s.problem, cloneQuestions(s.questions)
	s.mu.Unlock()

	if len(history) >= MaxQuestions {
		summary, err := s.gateway.GenerateSummary(ctx, problem, history)

		s.mu.Lock()
		defer s.release()
		s.summary = s.resolve(FieldSummary, summary, err, prompt.FallbackSummary)
		s.stage = StageSummary
		s.scheduleSave()
		return nil
	}

	question, err := s.gateway.GenerateQuestion(ctx, problem, history, len(history) == 0)

	s.mu.Lock()
	defer s.release()
	s.currentQuestion = s.resolve(FieldQuestion, question, err, prompt.FallbackQuestion)
	s.stage = StageQuestioning
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Degraded lists the fields currently holding fallback text instead of
// generated content.
func (s *Session) Degraded() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fields []Field
	for _, f := range []Field{FieldQuestion, FieldSummary, FieldActionPlan, FieldCoaching} {
		if s.degraded[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

// WaitForSaves blocks until every scheduled save has finished.
func (s *Session) WaitForSaves() {
	s.saves.Wait()
}

func (s *Session) snapshotLocked() State {
	return State{
		Stage:            s.stage,
		Problem:          s.problem,
		Source:           s.source,
		Questions:        cloneQuestions(s.questions),
		CurrentQuestion:  s.currentQuestion,
		Summary:          s.summary,
		ActionPlan:       s.actionPlan,
		CoachingMessages: cloneCoaching(s.coaching),
		ThreadID:         s.threadID,
		Busy:             s.busy,
	}
}

// acquire marks the session busy if it is idle and in one of the allowed
// stages. Must be called with mu held.
func (s *Session) acquire(allowed ...Stage) error {
	if s.busy {
		return ErrBusy
	}
	ok := false
	for _, st := range allowed {
		if s.stage == st {
			ok = true
			break
		}
	}
	if !ok {
		return ErrWrongStage
	}
	s.busy = true
	return nil
}

// release clears the busy flag and unlocks mu.
func (s *Session) release() {
	s.busy = false
	s.mu.Unlock()
}

// resolve picks the generated text or, on failure, the fallback. Must be
// called with mu held.
func (s *Session) resolve(field Field, text string, err error, fallback string) string {
	if err == nil && strings.TrimSpace(text) != "" {
		if field != FieldCoaching {
			delete(s.degraded, field)
		}
		return strings.TrimSpace(text)
	}

	var carrier FallbackCarrier
	if errors.As(err, &carrier) && carrier.FallbackText() != "" {
		fallback = carrier.FallbackText()
	}
	slog.Warn("Generation failed, using fallback", "field", field, "error", err)
	s.degraded[field] = true
	return fallback
}

// scheduleSave queues a save of the current snapshot. Saves run one after
// another in the order they were scheduled, so a later save always sees the
// thread id returned by an earlier one. Must be called with mu held.
func (s *Session) scheduleSave() {
	if s.saver == nil {
		return
	}
	snap := s.snapshotLocked().Transcript()
	epoch := s.epoch
	prev := s.lastSave
	done := make(chan struct{})
	s.lastSave = done

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		s.persist(snap, epoch)
	}()
}

func (s *Session) persist(t *model.Transcript, epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	threadID := s.threadID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	id, err := s.saver.SaveConversation(ctx, threadID, t)
	if err != nil {
		slog.Warn("Auto-save failed", "thread_id", threadID, "error", err)
		return
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.threadID = id
	}
	s.mu.Unlock()
}

func cloneQuestions(q []model.QuestionAnswer) []model.QuestionAnswer {
	if q == nil {
		return nil
	}
	return append([]model.QuestionAnswer(nil), q...)
}

func cloneCoaching(c []model.CoachingMessage) []model.CoachingMessage {
	if c == nil {
		return nil
	}
	return append([]model.CoachingMessage(nil), c...)
}
