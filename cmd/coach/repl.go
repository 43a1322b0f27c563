package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"socratic-coach/backend/internal/client"
	"socratic-coach/backend/internal/document"
	"socratic-coach/backend/internal/export"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/session"
)

// backend is the part of the API client the terminal needs.
type backend interface {
	session.Gateway
	session.Saver
	ListConversations(ctx context.Context, query string) ([]*model.Thread, error)
	UploadDocument(ctx context.Context, filename string, r io.Reader) (*document.Result, error)
	SendEmail(ctx context.Context, subject, content string) (*client.EmailPreview, error)
}

const helpText = `Commands:
  /plan            build an action plan (again) from your answers
  /coach           open the coaching chat
  /export [plan|chat]  write the session (or only the plan or chat) to a file
  /copy            print a short digest to copy
  /email           print a mailto link, and the server-formatted email when signed in
  /share           print a shareable summary
  /history [term]  list saved sessions
  /open N          continue session N from the last /history listing
  /reset           start over
  /quit            leave`

type repl struct {
	api     backend
	session *session.Session
	in      *bufio.Scanner
	out     io.Writer
	outDir  string
	now     func() time.Time
	listed  []*model.Thread
}

func newRepl(api backend, in io.Reader, out io.Writer, outDir string) *repl {
	return &repl{
		api:     api,
		session: session.New(api, api),
		in:      bufio.NewScanner(in),
		out:     out,
		outDir:  outDir,
		now:     time.Now,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// loadDocument uploads a file and starts the session from its text.
func (r *repl) loadDocument(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := r.api.UploadDocument(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	if result.Truncated {
		r.printf("Document text was truncated from %d characters.\n", result.OriginalLength)
	}
	if err := r.session.SetProblemFrom(session.SourceDocument, result.Content); err != nil {
		return err
	}
	return r.start(ctx)
}

func (r *repl) run(ctx context.Context) error {
	defer r.session.WaitForSaves()

	if r.session.Snapshot().Stage == session.StageInitial {
		r.printf("What problem or decision would you like to think through? (/help for commands)\n")
	}
	for {
		r.prompt()
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				r.printf("%s\n", describe(err))
			}
			if quit {
				return nil
			}
			continue
		}
		if err := r.input(ctx, line); err != nil {
			r.printf("%s\n", describe(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) prompt() {
	switch r.session.Snapshot().Stage {
	case session.StageInitial:
		r.printf("problem> ")
	case session.StageQuestioning:
		r.printf("answer> ")
	case session.StageCoaching:
		r.printf("you> ")
	default:
		r.printf("> ")
	}
}

// input handles a line of free text according to the current stage.
func (r *repl) input(ctx context.Context, line string) error {
	switch r.session.Snapshot().Stage {
	case session.StageInitial:
		if err := r.session.SetProblem(line); err != nil {
			return err
		}
		return r.start(ctx)
	case session.StageQuestioning:
		if err := r.session.SubmitAnswer(ctx, line); err != nil {
			return err
		}
		r.showProgress()
		return nil
	case session.StageCoaching:
		if err := r.session.SendCoachingMessage(ctx, line); err != nil {
			return err
		}
		msgs := r.session.Snapshot().CoachingMessages
		r.printf("\ncoach: %s\n\n", msgs[len(msgs)-1].Content)
		r.noteFallback(session.FieldCoaching)
		return nil
	default:
		r.printf("Use /plan for an action plan or /coach to keep talking.\n")
		return nil
	}
}

func (r *repl) start(ctx context.Context) error {
	if err := r.session.Start(ctx); err != nil {
		return err
	}
	r.showProgress()
	return nil
}

// showProgress prints whatever the last step produced.
func (r *repl) showProgress() {
	state := r.session.Snapshot()
	switch state.Stage {
	case session.StageQuestioning:
		r.printf("\nQuestion %d of %d: %s\n", len(state.Questions)+1, session.MaxQuestions, state.CurrentQuestion)
		r.noteFallback(session.FieldQuestion)
	case session.StageSummary:
		r.printf("\n=== INSIGHTS & SUMMARY ===\n%s\n\n", state.Summary)
		r.noteFallback(session.FieldSummary)
		r.printf("Use /plan for an action plan or /coach to talk it through.\n")
	case session.StageActionPlan:
		r.printf("\n=== ACTION PLAN ===\n%s\n\n", state.ActionPlan)
		r.noteFallback(session.FieldActionPlan)
	}
}

func (r *repl) noteFallback(field session.Field) {
	for _, f := range r.session.Degraded() {
		if f == field {
			r.printf("(the coach is unavailable right now; this is a standard response)\n")
			return
		}
	}
}

// command runs a slash command and reports whether the user asked to quit.
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		r.session.WaitForSaves()
		return true, nil
	case "/help":
		r.printf("%s\n", helpText)
	case "/plan":
		if err := r.session.GenerateActionPlan(ctx); err != nil {
			return false, err
		}
		r.showProgress()
	case "/coach":
		if err := r.session.StartCoaching(); err != nil {
			return false, err
		}
		msgs := r.session.Snapshot().CoachingMessages
		r.printf("\ncoach: %s\n\n", msgs[len(msgs)-1].Content)
	case "/reset":
		if err := r.session.Reset(); err != nil {
			return false, err
		}
		r.printf("Starting over. What would you like to think through?\n")
	case "/export":
		return false, r.export(args)
	case "/copy":
		r.printf("----- copy below -----\n%s\n----------------------\n", export.RenderBrief(r.transcript()))
	case "/email":
		return false, r.email(ctx)
	case "/share":
		t := r.transcript()
		r.printf("Subject: %s\n\n%s\n", export.ShareSubject(r.now()), export.ShareContent(t, r.now()))
	case "/history":
		return false, r.history(ctx, strings.Join(args, " "))
	case "/open":
		return false, r.open(ctx, args)
	default:
		r.printf("Unknown command %s. /help lists the commands.\n", name)
	}
	return false, nil
}

func (r *repl) transcript() *model.Transcript {
	return r.session.Snapshot().Transcript()
}

func (r *repl) export(args []string) error {
	t := r.transcript()
	if strings.TrimSpace(t.Problem) == "" {
		return errors.New("nothing to export yet")
	}
	now := r.now()

	var kind export.Kind
	var content string
	switch {
	case len(args) > 0 && args[0] == "plan":
		if t.ActionPlan == "" {
			return errors.New("there is no action plan yet")
		}
		kind, content = export.KindActionPlan, export.RenderActionPlan(t, now)
	case len(args) > 0 && args[0] == "chat":
		if len(t.CoachingMessages) == 0 {
			return errors.New("there is no coaching conversation yet")
		}
		kind, content = export.KindCoaching, export.RenderCoaching(t, now)
	default:
		kind = export.KindSession
		content = export.RenderSession(t, export.Options{IncludeCoaching: len(t.CoachingMessages) > 0, GeneratedAt: now})
	}

	path := filepath.Join(r.outDir, export.Filename(kind, now))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write export: %w", err)
	}
	r.printf("Saved %s\n", path)
	return nil
}

func (r *repl) email(ctx context.Context) error {
	t := r.transcript()
	if strings.TrimSpace(t.Problem) == "" {
		return errors.New("nothing to send yet")
	}
	subject := export.EmailSubject(t.Problem)
	body := export.RenderSession(t, export.Options{IncludeCoaching: len(t.CoachingMessages) > 0, GeneratedAt: r.now()})

	preview, err := r.api.SendEmail(ctx, subject, body)
	if err == nil {
		r.printf("Prepared for %s:\n%s\n\n", preview.Recipient, preview.EmailContent)
	}
	r.printf("Open in your mail client:\n%s\n", export.MailtoLink(subject, body))
	return nil
}

func (r *repl) history(ctx context.Context, query string) error {
	threads, err := r.api.ListConversations(ctx, query)
	if err != nil {
		return err
	}
	r.listed = threads
	if len(threads) == 0 {
		r.printf("No saved sessions.\n")
		return nil
	}
	for i, t := range threads {
		r.printf("%2d. [%s] %s (%s)\n", i+1, t.Status, t.Title, t.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

func (r *repl) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /open N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(r.listed) {
		return errors.New("pick a number from the last /history listing")
	}
	if err := r.session.Resume(ctx, r.listed[n-1]); err != nil {
		return err
	}
	state := r.session.Snapshot()
	r.printf("Resumed: %s\n", state.Problem)
	if state.Stage == session.StageCoaching {
		msgs := state.CoachingMessages
		r.printf("\ncoach: %s\n\n", msgs[len(msgs)-1].Content)
		return nil
	}
	r.showProgress()
	return nil
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// describe turns session errors into something a person can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrProblemTooShort):
		return fmt.Sprintf("Please describe the problem in at least %d characters.", session.MinProblemLength)
	case errors.Is(err, session.ErrBusy):
		return "Still working on the last request."
	case errors.Is(err, session.ErrWrongStage):
		return "That is not available right now."
	case errors.Is(err, session.ErrEmptyInput):
		return "Please type something first."
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return "Sign in first: pass -cookie or -token."
	}
	return "Error: " + err.Error()
}
