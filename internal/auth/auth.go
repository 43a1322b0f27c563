// Package auth resolves the caller's identity. The identity provider is
// external: this package only asks it who the session belongs to.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/model"
)

// Provider identifies the user behind a request. It returns an error
// wrapping app_errors.ErrUnauthorized when there is no valid session.
type Provider interface {
	CurrentUser(r *http.Request) (*model.User, error)
}

// UserStore mirrors identity provider records locally.
type UserStore interface {
	UpsertUser(ctx context.Context, user *model.User) error
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*model.User)
	return u, ok && u != nil
}

// OwnerID is the owner reference stored on threads: the user id, or nil for
// anonymous requests.
func OwnerID(ctx context.Context) *string {
	if u, ok := UserFromContext(ctx); ok {
		id := u.ID
		return &id
	}
	return nil
}

// Middleware rejects requests without a session and records the user in the
// request context. Users are upserted on every request so the local copy
// follows profile changes.
func Middleware(p Provider, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := p.CurrentUser(r)
			if err != nil {
				if errors.Is(err, app_errors.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				slog.ErrorContext(r.Context(), "Identity provider lookup failed", "error", err)
				writeError(w, http.StatusBadGateway, "Could not verify the session.")
				return
			}
			if store != nil {
				if err := store.UpsertUser(r.Context(), user); err != nil {
					slog.ErrorContext(r.Context(), "Failed to store user record", "user_id", user.ID, "error", err)
					writeError(w, http.StatusInternalServerError, "An unexpected internal server error occurred.")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// DevProvider authenticates every request as one fixed user. It stands in
// for the identity provider during local development.
type DevProvider struct {
	UserID string
	Email  string
}

func (p *DevProvider) CurrentUser(*http.Request) (*model.User, error) {
	return &model.User{ID: p.UserID, Email: p.Email, FirstName: "Dev", LastName: "User"}, nil
}

// RemoteProvider asks the identity provider's userinfo endpoint about the
// session, forwarding the session cookie and any bearer token.
type RemoteProvider struct {
	client     *http.Client
	url        string
	cookieName string
}

func NewRemoteProvider(userInfoURL, cookieName string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		client:     &http.Client{Timeout: timeout},
		url:        userInfoURL,
		cookieName: cookieName,
	}
}

type userInfo struct {
	ID              string `json:"id"`
	Sub             string `json:"sub"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	GivenName       string `json:"given_name"`
	FamilyName      string `json:"family_name"`
	ProfileImageURL string `json:"profileImageUrl"`
	Picture         string `json:"picture"`
}

func (p *RemoteProvider) CurrentUser(r *http.Request) (*model.User, error) {
	cookie, cookieErr := r.Cookie(p.cookieName)
	bearer := r.Header.Get("Authorization")
	if cookieErr != nil && bearer == "" {
		return nil, fmt.Errorf("%w: no session", app_errors.ErrUnauthorized)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create userinfo request: %w", err)
	}
	if cookieErr == nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: identity provider rejected the session", app_errors.ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("could not decode userinfo: %w", err)
	}
	user := &model.User{
		ID:              firstNonEmpty(info.ID, info.Sub),
		Email:           info.Email,
		FirstName:       firstNonEmpty(info.FirstName, info.GivenName),
		LastName:        firstNonEmpty(info.LastName, info.FamilyName),
		ProfileImageURL: firstNonEmpty(info.ProfileImageURL, info.Picture),
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: userinfo has no subject", app_errors.ErrUnauthorized)
	}
	return user, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
