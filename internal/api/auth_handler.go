package api

import (
	"fmt"
	"net/http"

	"socratic-coach/backend/internal/auth"
	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/export"
)

// AuthHandler exposes the caller's identity and the email preview route,
// both of which only make sense for a signed-in user.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// SendEmailRequest is the body of the email route.
type SendEmailRequest struct {
	Subject string `json:"subject" validate:"required" example:"Thinking Session: Should I change jobs?"`
	Content string `json:"content" validate:"required"`
}

// SendEmailResponse echoes the formatted message. Nothing is dispatched.
type SendEmailResponse struct {
	Success      bool   `json:"success"`
	EmailContent string `json:"emailContent"`
	Recipient    string `json:"recipient"`
	Subject      string `json:"subject"`
}

// HandleCurrentUser godoc
// @Summary      Get the signed-in user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  model.User
// @Failure      401  {object}  api.ErrorResponse
// @Router       /auth/user [get]
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, app_errors.ErrUnauthorized)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// HandleSendEmail godoc
// @Summary      Prepare a session email
// @Description  Formats the email for the signed-in user's address and returns it. No mail is sent.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      api.SendEmailRequest  true  "Subject and body"
// @Success      200      {object}  api.SendEmailResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /email/send [post]
func (h *AuthHandler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, app_errors.ErrUnauthorized)
		return
	}

	var req SendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if user.Email == "" {
		respondWithError(w, fmt.Errorf("%w: user email not found", app_errors.ErrValidation))
		return
	}

	respondWithJSON(w, http.StatusOK, SendEmailResponse{
		Success:      true,
		EmailContent: export.FormatEmail(req.Subject, req.Content, user.Email),
		Recipient:    user.Email,
		Subject:      req.Subject,
	})
}
