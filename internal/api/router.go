package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "socratic-coach/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"socratic-coach/backend/internal/metrics"
)

// RouterDeps bundles the handlers and cross-cutting pieces the router wires
// together. RequireUser may be nil, in which case every route is served
// anonymously.
type RouterDeps struct {
	Coach         *CoachHandler
	Conversations *ConversationHandler
	Documents     *DocumentHandler
	Auth          *AuthHandler
	RequireUser   func(http.Handler) http.Handler
	Metrics       *metrics.Metrics
	RouteTimeout  time.Duration
}

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// --- Public Routes ---

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// A simple health check endpoint for liveness and readiness probes.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	timeout := deps.RouteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Route("/api", func(r chi.Router) {
		// Every API call is bounded so a hung model call cannot hold the
		// connection open indefinitely.
		r.Use(middleware.Timeout(timeout))

		// --- Language model gateway ---
		r.Post("/generate-question", deps.Coach.HandleGenerateQuestion)
		r.Post("/generate-summary", deps.Coach.HandleGenerateSummary)
		r.Post("/generate-action-plan", deps.Coach.HandleGenerateActionPlan)
		r.Post("/coaching-chat", deps.Coach.HandleCoachingChat)

		// --- Documents ---
		r.Post("/upload-document", deps.Documents.HandleUploadDocument)

		// --- Routes scoped to the signed-in user ---
		r.Group(func(r chi.Router) {
			if deps.RequireUser != nil {
				r.Use(deps.RequireUser)
			}

			r.Get("/auth/user", deps.Auth.HandleCurrentUser)
			r.Post("/email/send", deps.Auth.HandleSendEmail)

			r.Post("/conversations", deps.Conversations.HandleSaveConversation)
			r.Get("/conversations", deps.Conversations.HandleListConversations)
			r.Get("/conversations/{threadID}", deps.Conversations.HandleGetConversation)
			r.Put("/conversations/{threadID}", deps.Conversations.HandleUpdateConversation)
			r.Delete("/conversations/{threadID}", deps.Conversations.HandleDeleteConversation)
			r.Patch("/conversations/{threadID}/status", deps.Conversations.HandleUpdateStatus)
			r.Get("/conversations/{threadID}/export", deps.Conversations.HandleExportConversation)
		})
	})

	return r
}
