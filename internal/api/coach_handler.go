package api

import (
	"log/slog"
	"net/http"

	"socratic-coach/backend/internal/interfaces"
	"socratic-coach/backend/internal/prompt"
	"socratic-coach/backend/internal/service"
)

// CoachHandler serves the four language model routes. Every response is
// either the generated text or a 500 carrying the stage fallback, so the
// client can always advance.
type CoachHandler struct {
	coach interfaces.CoachService
}

func NewCoachHandler(coach interfaces.CoachService) *CoachHandler {
	return &CoachHandler{coach: coach}
}

// QuestionResponse is the body of a successful generate-question call.
type QuestionResponse struct {
	Question string `json:"question"`
}

// SummaryResponse is the body of a successful generate-summary call.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ActionPlanResponse is the body of a successful generate-action-plan call.
type ActionPlanResponse struct {
	ActionPlan string `json:"actionPlan"`
}

// CoachingResponse is the body of a successful coaching-chat call.
type CoachingResponse struct {
	Response string `json:"response"`
}

// decodeGatewayRequest decodes and validates a gateway body. On failure it
// writes a 400 with the route's fixed message and returns false.
func decodeGatewayRequest(w http.ResponseWriter, r *http.Request, dst interface{}, message string) bool {
	err := decodeJSON(r, dst)
	if err == nil {
		err = validateRequest(dst)
	}
	if err != nil {
		slog.Warn("Rejecting gateway request", "path", r.URL.Path, "error", err)
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: message})
		return false
	}
	return true
}

// HandleGenerateQuestion godoc
// @Summary      Generate the next Socratic question
// @Description  Builds the first-question prompt when isFirst is set or there is no history, otherwise includes the full dialogue.
// @Tags         Coach
// @Accept       json
// @Produce      json
// @Param        request  body      service.QuestionRequest  true  "Problem and dialogue so far"
// @Success      200      {object}  api.QuestionResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  map[string]string "error and fallbackQuestion"
// @Router       /generate-question [post]
func (h *CoachHandler) HandleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionRequest
	if !decodeGatewayRequest(w, r, &req, "Problem description is required") {
		return
	}

	question, err := h.coach.GenerateQuestion(r.Context(), &req)
	if err != nil {
		respondWithFallback(w, err, "Failed to generate question", "fallbackQuestion", prompt.FallbackQuestion)
		return
	}
	respondWithJSON(w, http.StatusOK, QuestionResponse{Question: question})
}

// HandleGenerateSummary godoc
// @Summary      Summarize the completed dialogue
// @Tags         Coach
// @Accept       json
// @Produce      json
// @Param        request  body      service.SummaryRequest  true  "Problem and answered questions"
// @Success      200      {object}  api.SummaryResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  map[string]string "error and fallbackSummary"
// @Router       /generate-summary [post]
func (h *CoachHandler) HandleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req service.SummaryRequest
	if !decodeGatewayRequest(w, r, &req, "Problem and questions are required") {
		return
	}

	summary, err := h.coach.GenerateSummary(r.Context(), &req)
	if err != nil {
		respondWithFallback(w, err, "Failed to generate summary", "fallbackSummary", prompt.FallbackSummary)
		return
	}
	respondWithJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
}

// HandleGenerateActionPlan godoc
// @Summary      Build an action plan from the dialogue
// @Tags         Coach
// @Accept       json
// @Produce      json
// @Param        request  body      service.ActionPlanRequest  true  "Problem and answered questions"
// @Success      200      {object}  api.ActionPlanResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  map[string]string "error and fallbackPlan"
// @Router       /generate-action-plan [post]
func (h *CoachHandler) HandleGenerateActionPlan(w http.ResponseWriter, r *http.Request) {
	var req service.ActionPlanRequest
	if !decodeGatewayRequest(w, r, &req, "Problem and questions are required") {
		return
	}

	plan, err := h.coach.GenerateActionPlan(r.Context(), &req)
	if err != nil {
		respondWithFallback(w, err, "Failed to generate action plan", "fallbackPlan", prompt.FallbackActionPlan)
		return
	}
	respondWithJSON(w, http.StatusOK, ActionPlanResponse{ActionPlan: plan})
}

// HandleCoachingChat godoc
// @Summary      Reply in the open coaching chat
// @Tags         Coach
// @Accept       json
// @Produce      json
// @Param        request  body      service.CoachingRequest  true  "Full context plus the new user message"
// @Success      200      {object}  api.CoachingResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  map[string]string "error and fallbackResponse"
// @Router       /coaching-chat [post]
func (h *CoachHandler) HandleCoachingChat(w http.ResponseWriter, r *http.Request) {
	var req service.CoachingRequest
	if !decodeGatewayRequest(w, r, &req, "Problem and user message are required") {
		return
	}

	reply, err := h.coach.CoachingReply(r.Context(), &req)
	if err != nil {
		respondWithFallback(w, err, "Failed to generate coaching response", "fallbackResponse", prompt.FallbackCoaching)
		return
	}
	respondWithJSON(w, http.StatusOK, CoachingResponse{Response: reply})
}
