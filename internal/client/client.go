// Package client talks to the coaching backend over HTTP. It implements
// session.Gateway and session.Saver so a terminal front end can drive a
// session against a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"socratic-coach/backend/internal/document"
	"socratic-coach/backend/internal/model"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// GenerationError is a failed gateway call. Fallback holds the text the
// server suggested in its place, if any.
type GenerationError struct {
	APIError
	Fallback string
}

func (e *GenerationError) Error() string {
	return e.APIError.Error()
}

// FallbackText returns the server-provided fallback.
func (e *GenerationError) FallbackText() string {
	return e.Fallback
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
	cookies []*http.Cookie
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to change the timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionCookie sends the identity provider session cookie on every call.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		c.cookies = append(c.cookies, &http.Cookie{Name: name, Value: value})
	}
}

// WithBearerToken sends an Authorization header on every call.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.header.Set("Authorization", "Bearer "+token) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
		header:  http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GenerateQuestion(ctx context.Context, problem string, history []model.QuestionAnswer, isFirst bool) (string, error) {
	req := map[string]interface{}{"problem": problem, "questions": nonNil(history), "isFirst": isFirst}
	var resp struct {
		Question string `json:"question"`
	}
	if err := c.generate(ctx, "/api/generate-question", "fallbackQuestion", req, &resp); err != nil {
		return "", err
	}
	return resp.Question, nil
}

func (c *Client) GenerateSummary(ctx context.Context, problem string, history []model.QuestionAnswer) (string, error) {
	req := map[string]interface{}{"problem": problem, "questions": nonNil(history)}
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.generate(ctx, "/api/generate-summary", "fallbackSummary", req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func (c *Client) GenerateActionPlan(ctx context.Context, problem string, history []model.QuestionAnswer) (string, error) {
	req := map[string]interface{}{"problem": problem, "questions": nonNil(history)}
	var resp struct {
		ActionPlan string `json:"actionPlan"`
	}
	if err := c.generate(ctx, "/api/generate-action-plan", "fallbackPlan", req, &resp); err != nil {
		return "", err
	}
	return resp.ActionPlan, nil
}

func (c *Client) CoachingReply(ctx context.Context, t *model.Transcript, userMessage string) (string, error) {
	messages := t.CoachingMessages
	if messages == nil {
		messages = []model.CoachingMessage{}
	}
	req := map[string]interface{}{
		"problem":          t.Problem,
		"questions":        nonNil(t.Questions),
		"summary":          t.Summary,
		"coachingMessages": messages,
		"userMessage":      userMessage,
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.generate(ctx, "/api/coaching-chat", "fallbackResponse", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// generate posts a gateway request. Error bodies are turned into a
// GenerationError carrying the fallback found under fallbackKey.
func (c *Client) generate(ctx context.Context, path, fallbackKey string, body, out interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var fields map[string]string
		_ = json.Unmarshal(raw, &fields)
		return &GenerationError{
			APIError: APIError{StatusCode: resp.StatusCode, Message: errorMessage(fields, raw)},
			Fallback: fields[fallbackKey],
		}
	}
	return decode(resp, out)
}

// SaveConversation creates a thread when threadID is empty and updates it
// otherwise, returning the thread id.
func (c *Client) SaveConversation(ctx context.Context, threadID string, t *model.Transcript) (string, error) {
	body := map[string]interface{}{
		"problem":          t.Problem,
		"questions":        nonNil(t.Questions),
		"coachingMessages": nonNilCoaching(t.CoachingMessages),
	}
	if threadID != "" {
		body["threadId"] = threadID
	}
	if t.Summary != "" {
		body["summary"] = t.Summary
	}
	if t.ActionPlan != "" {
		body["actionPlan"] = t.ActionPlan
	}

	var out struct {
		ThreadID string `json:"threadId"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/conversations", body, &out); err != nil {
		return "", err
	}
	return out.ThreadID, nil
}

// ListConversations returns the caller's threads, newest first.
func (c *Client) ListConversations(ctx context.Context, query string) ([]*model.Thread, error) {
	path := "/api/conversations"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var threads []*model.Thread
	if err := c.call(ctx, http.MethodGet, path, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *Client) GetConversation(ctx context.Context, threadID string) (*model.FullThread, error) {
	var thread model.FullThread
	if err := c.call(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(threadID), nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) DeleteConversation(ctx context.Context, threadID string) error {
	return c.call(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(threadID), nil, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, threadID string, status model.ThreadStatus) error {
	path := "/api/conversations/" + url.PathEscape(threadID) + "/status"
	return c.call(ctx, http.MethodPatch, path, map[string]model.ThreadStatus{"status": status}, nil)
}

// ExportConversation downloads the server-rendered text export.
func (c *Client) ExportConversation(ctx context.Context, threadID string, includeCoaching bool) (string, error) {
	path := "/api/conversations/" + url.PathEscape(threadID) + "/export?coaching=" + strconv.FormatBool(includeCoaching)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read export: %w", err)
	}
	return string(b), nil
}

// UploadDocument sends a file for text extraction.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*document.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("could not read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload-document", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var result document.Result
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EmailPreview is the server's formatted email.
type EmailPreview struct {
	Success      bool   `json:"success"`
	EmailContent string `json:"emailContent"`
	Recipient    string `json:"recipient"`
	Subject      string `json:"subject"`
}

func (c *Client) SendEmail(ctx context.Context, subject, content string) (*EmailPreview, error) {
	var out EmailPreview
	body := map[string]string{"subject": subject, "content": content}
	if err := c.call(ctx, http.MethodPost, "/api/email/send", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.call(ctx, http.MethodGet, "/api/auth/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// call performs a JSON round trip. out may be nil.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return decode(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func decode(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var fields map[string]string
	_ = json.Unmarshal(raw, &fields)
	return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(fields, raw)}
}

func errorMessage(fields map[string]string, raw []byte) string {
	if msg := fields["error"]; msg != "" {
		return msg
	}
	return strings.TrimSpace(string(raw))
}

func nonNil(q []model.QuestionAnswer) []model.QuestionAnswer {
	if q == nil {
		return []model.QuestionAnswer{}
	}
	return q
}

func nonNilCoaching(c []model.CoachingMessage) []model.CoachingMessage {
	if c == nil {
		return []model.CoachingMessage{}
	}
	return c
}
