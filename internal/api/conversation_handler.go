package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"socratic-coach/backend/internal/auth"
	"socratic-coach/backend/internal/interfaces"
	"socratic-coach/backend/internal/model"
	"socratic-coach/backend/internal/service"
)

// ConversationHandler serves the persisted thread routes. Every call is
// scoped to the owner found in the request context.
type ConversationHandler struct {
	conversations interfaces.ConversationService
}

func NewConversationHandler(svc interfaces.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: svc}
}

// SaveConversationResponse returns the id of the created or updated thread.
type SaveConversationResponse struct {
	ThreadID string `json:"threadId"`
}

// UpdateStatusRequest is the body of the status route.
type UpdateStatusRequest struct {
	Status model.ThreadStatus `json:"status" validate:"required" example:"archived"`
}

// HandleSaveConversation godoc
// @Summary      Save a thinking session
// @Description  Creates a thread when threadId is absent, otherwise updates it. Questions and coaching messages may only be appended to.
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        request  body      service.SaveConversationRequest  true  "Session snapshot"
// @Success      200      {object}  api.SaveConversationResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /conversations [post]
func (h *ConversationHandler) HandleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req service.SaveConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	h.save(w, r, &req)
}

// HandleUpdateConversation godoc
// @Summary      Update a thinking session
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        threadID  path      string                           true  "Thread ID"
// @Param        request   body      service.SaveConversationRequest  true  "Session snapshot"
// @Success      200       {object}  api.SaveConversationResponse
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Failure      409       {object}  api.ErrorResponse
// @Router       /conversations/{threadID} [put]
func (h *ConversationHandler) HandleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req service.SaveConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	req.ThreadID = chi.URLParam(r, "threadID")
	h.save(w, r, &req)
}

func (h *ConversationHandler) save(w http.ResponseWriter, r *http.Request, req *service.SaveConversationRequest) {
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	threadID, err := h.conversations.Save(r.Context(), auth.OwnerID(r.Context()), req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SaveConversationResponse{ThreadID: threadID})
}

// HandleListConversations godoc
// @Summary      List the caller's threads
// @Description  Newest first. q filters case-insensitively over title, problem and summary.
// @Tags         Conversations
// @Produce      json
// @Param        q    query     string  false  "Search term"
// @Success      200  {array}   model.Thread
// @Failure      500  {object}  api.ErrorResponse
// @Router       /conversations [get]
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	threads, err := h.conversations.List(r.Context(), auth.OwnerID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, threads)
}

// HandleGetConversation godoc
// @Summary      Get a thread with its messages
// @Tags         Conversations
// @Produce      json
// @Param        threadID  path      string  true  "Thread ID"
// @Success      200       {object}  model.FullThread
// @Failure      404       {object}  api.ErrorResponse
// @Router       /conversations/{threadID} [get]
func (h *ConversationHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	thread, err := h.conversations.Get(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "threadID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, thread)
}

// HandleDeleteConversation godoc
// @Summary      Delete a thread and its messages
// @Tags         Conversations
// @Produce      json
// @Param        threadID  path      string  true  "Thread ID"
// @Success      200       {object}  api.StatusResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /conversations/{threadID} [delete]
func (h *ConversationHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if err := h.conversations.Delete(r.Context(), auth.OwnerID(r.Context()), threadID); err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Thread deleted", "thread_id", threadID)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleUpdateStatus godoc
// @Summary      Change a thread's status
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        threadID  path      string                   true  "Thread ID"
// @Param        request   body      api.UpdateStatusRequest  true  "New status"
// @Success      200       {object}  api.StatusResponse
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /conversations/{threadID}/status [patch]
func (h *ConversationHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	err := h.conversations.UpdateStatus(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "threadID"), req.Status)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleExportConversation godoc
// @Summary      Download a thread as plain text
// @Tags         Conversations
// @Produce      plain
// @Param        threadID  path      string  true   "Thread ID"
// @Param        coaching  query     bool    false  "Include the coaching conversation"
// @Success      200       {string}  string  "Session export"
// @Failure      404       {object}  api.ErrorResponse
// @Router       /conversations/{threadID}/export [get]
func (h *ConversationHandler) HandleExportConversation(w http.ResponseWriter, r *http.Request) {
	includeCoaching, _ := strconv.ParseBool(r.URL.Query().Get("coaching"))

	file, err := h.conversations.Export(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "threadID"), includeCoaching)
	if err != nil {
		respondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(file.Content)); err != nil {
		slog.Error("Failed to write export", "error", err)
	}
}
