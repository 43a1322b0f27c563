// Package export renders sessions as plain text for download, clipboard
// copy and email drafts, and reads downloaded sessions back.
package export

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"socratic-coach/backend/internal/model"
)

const (
	sessionTitle = "SOCRATIC THINKING SESSION"

	headerProblem  = "=== ORIGINAL PROBLEM ==="
	headerDialogue = "=== REFLECTION DIALOGUE ==="
	headerSummary  = "=== INSIGHTS & SUMMARY ==="
	headerPlan     = "=== ACTION PLAN ==="
	headerCoaching = "=== COACHING CONVERSATION ==="

	timestampLayout = "1/2/2006, 3:04:05 PM"
)

// sectionOrder is the fixed order sections appear in.
var sectionOrder = []string{headerProblem, headerDialogue, headerSummary, headerPlan, headerCoaching}

type Options struct {
	IncludeCoaching bool
	GeneratedAt     time.Time
}

func (o Options) timestamp() string {
	at := o.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return at.Format(timestampLayout)
}

// RenderSession lays out the whole session. Sections without content are
// left out; the coaching conversation only appears when asked for.
func RenderSession(t *model.Transcript, opts Options) string {
	var b strings.Builder
	b.WriteString(sessionTitle + "\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", opts.timestamp())
	fmt.Fprintf(&b, "%s\n%s\n\n", headerProblem, t.Problem)

	if len(t.Questions) > 0 {
		b.WriteString(headerDialogue + "\n")
		for i, qa := range t.Questions {
			fmt.Fprintf(&b, "Q%d: %s\n", i+1, qa.Question)
			fmt.Fprintf(&b, "A%d: %s\n\n", i+1, qa.Answer)
		}
	}
	if t.Summary != "" {
		fmt.Fprintf(&b, "%s\n%s\n\n", headerSummary, t.Summary)
	}
	if t.ActionPlan != "" {
		fmt.Fprintf(&b, "%s\n%s\n\n", headerPlan, t.ActionPlan)
	}
	if opts.IncludeCoaching && len(t.CoachingMessages) > 0 {
		b.WriteString(headerCoaching + "\n")
		writeCoaching(&b, t.CoachingMessages)
	}
	return b.String()
}

// RenderActionPlan exports the action plan on its own.
func RenderActionPlan(t *model.Transcript, generatedAt time.Time) string {
	opts := Options{GeneratedAt: generatedAt}
	return fmt.Sprintf("ACTION PLAN\nGenerated: %s\n\nOriginal Problem: %s\n\n%s", opts.timestamp(), t.Problem, t.ActionPlan)
}

// RenderCoaching exports the coaching conversation on its own.
func RenderCoaching(t *model.Transcript, generatedAt time.Time) string {
	opts := Options{GeneratedAt: generatedAt}
	var b strings.Builder
	fmt.Fprintf(&b, "COACHING CONVERSATION\nGenerated: %s\n\nOriginal Problem: %s\n\n", opts.timestamp(), t.Problem)
	writeCoaching(&b, t.CoachingMessages)
	return b.String()
}

func writeCoaching(b *strings.Builder, messages []model.CoachingMessage) {
	for _, msg := range messages {
		fmt.Fprintf(b, "%s: %s\n\n", strings.ToUpper(string(msg.Role)), msg.Content)
	}
}

// RenderBrief is the short digest copied from the history view.
func RenderBrief(t *model.Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n\n", t.Problem)
	if len(t.Questions) > 0 {
		b.WriteString("Key Questions & Insights:\n")
		for i, qa := range t.Questions {
			fmt.Fprintf(&b, "%d. %s\n   → %s\n\n", i+1, qa.Question, qa.Answer)
		}
	}
	if t.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", t.Summary)
	}
	if t.ActionPlan != "" {
		fmt.Fprintf(&b, "Action Plan: %s", t.ActionPlan)
	}
	return b.String()
}

// Kind selects which export a file name is built for.
type Kind string

const (
	KindSession    Kind = "socratic-session"
	KindActionPlan Kind = "action-plan"
	KindCoaching   Kind = "coaching-conversation"
)

// Filename returns the download name for an export made at the given time,
// dated in UTC.
func Filename(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s-%s.txt", kind, at.UTC().Format(time.DateOnly))
}

// EmailSubject is the subject line of a session shared by email.
func EmailSubject(problem string) string {
	return "Socratic Thinking Session - " + firstRunes(problem, 50) + "..."
}

// MailtoLink builds a compose link with the subject and body percent-encoded.
func MailtoLink(subject, body string) string {
	return "mailto:?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

// encodeComponent escapes spaces as %20 rather than '+', which mail clients
// would show literally.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ShareSubject and ShareContent build the insight email offered from the
// history view.
func ShareSubject(createdAt time.Time) string {
	return "Thinking Session Insights - " + createdAt.Format("Jan 2, 2006")
}

func ShareContent(t *model.Transcript, createdAt time.Time) string {
	var b strings.Builder
	b.WriteString("I wanted to share insights from my recent thinking session:\n\n")
	fmt.Fprintf(&b, "**Problem I worked through:**\n%s\n\n", t.Problem)
	if t.Summary != "" {
		fmt.Fprintf(&b, "**Key Insights:**\n%s\n\n", t.Summary)
	}
	if t.ActionPlan != "" {
		fmt.Fprintf(&b, "**My Action Plan:**\n%s\n\n", t.ActionPlan)
	}
	fmt.Fprintf(&b, "Generated through Socratic coaching on %s", longDate(createdAt))
	return b.String()
}

// FormatEmail renders the draft returned by the email endpoint. Nothing is
// sent; the client copies the text.
func FormatEmail(subject, content, recipient string) string {
	var b strings.Builder
	if recipient != "" {
		fmt.Fprintf(&b, "To: %s\n", recipient)
	}
	fmt.Fprintf(&b, "Subject: %s\n\n%s", subject, content)
	return b.String()
}

func longDate(t time.Time) string {
	day := t.Day()
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%s %d%s, %d", t.Month(), day, suffix, t.Year())
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var ErrMalformed = errors.New("export: not a session export")

// ParseSession reads a RenderSession export back into a transcript. It is
// the inverse of RenderSession for any transcript whose fields do not
// themselves contain section header lines.
func ParseSession(text string) (*model.Transcript, error) {
	if !strings.HasPrefix(text, sessionTitle+"\n") {
		return nil, ErrMalformed
	}
	sections, err := splitSections(text)
	if err != nil {
		return nil, err
	}
	problem, ok := sections[headerProblem]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, headerProblem)
	}

	t := &model.Transcript{
		Problem:          problem,
		Questions:        []model.QuestionAnswer{},
		Summary:          sections[headerSummary],
		ActionPlan:       sections[headerPlan],
		CoachingMessages: []model.CoachingMessage{},
	}
	if body, ok := sections[headerDialogue]; ok {
		if t.Questions, err = parseDialogue(body); err != nil {
			return nil, err
		}
	}
	if body, ok := sections[headerCoaching]; ok {
		t.CoachingMessages = parseCoaching(body)
	}
	return t, nil
}

// splitSections maps each header to the text between it and the next one.
// Headers are only recognised in their canonical order.
func splitSections(text string) (map[string]string, error) {
	sections := make(map[string]string)
	next := 0
	current := ""
	start := 0

	offset := 0
	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		lineEnd := len(text)
		if end >= 0 {
			lineEnd = offset + end
		}
		line := text[offset:lineEnd]

		for i := next; i < len(sectionOrder); i++ {
			if line != sectionOrder[i] {
				continue
			}
			if current != "" {
				sections[current] = strings.TrimSuffix(text[start:offset], "\n\n")
			}
			current = line
			start = min(lineEnd+1, len(text))
			next = i + 1
			break
		}
		offset = lineEnd + 1
	}
	if current == "" {
		return nil, fmt.Errorf("%w: no sections", ErrMalformed)
	}
	sections[current] = strings.TrimSuffix(text[start:], "\n\n")
	return sections, nil
}

func parseDialogue(body string) ([]model.QuestionAnswer, error) {
	var out []model.QuestionAnswer
	rest := body
	for n := 1; rest != ""; n++ {
		qPrefix := fmt.Sprintf("Q%d: ", n)
		aMarker := fmt.Sprintf("\nA%d: ", n)
		if !strings.HasPrefix(rest, qPrefix) {
			return nil, fmt.Errorf("%w: expected %q", ErrMalformed, qPrefix)
		}
		rest = rest[len(qPrefix):]

		ai := strings.Index(rest, aMarker)
		if ai < 0 {
			return nil, fmt.Errorf("%w: question %d has no answer", ErrMalformed, n)
		}
		question := rest[:ai]
		rest = rest[ai+len(aMarker):]

		answer := rest
		nextMarker := fmt.Sprintf("\n\nQ%d: ", n+1)
		if ni := strings.Index(rest, nextMarker); ni >= 0 {
			answer = rest[:ni]
			rest = rest[ni+2:]
		} else {
			rest = ""
		}
		out = append(out, model.QuestionAnswer{Question: question, Answer: answer})
	}
	return out, nil
}

func parseCoaching(body string) []model.CoachingMessage {
	prefixes := map[model.Role]string{
		model.RoleUser:      "USER: ",
		model.RoleAssistant: "ASSISTANT: ",
	}
	var out []model.CoachingMessage
	rest := body
	for rest != "" {
		var role model.Role
		for r, p := range prefixes {
			if strings.HasPrefix(rest, p) {
				role = r
				rest = rest[len(p):]
				break
			}
		}
		if role == "" {
			break
		}
		cut := len(rest)
		for _, p := range prefixes {
			if i := strings.Index(rest, "\n\n"+p); i >= 0 && i < cut {
				cut = i
			}
		}
		out = append(out, model.CoachingMessage{Role: role, Content: rest[:cut]})
		rest = strings.TrimPrefix(rest[cut:], "\n\n")
	}
	return out
}
