package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stylingadventures/moderation-service/internal/application"
	"github.com/stylingadventures/moderation-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for moderation use-cases.
type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// NewRouter registers the moderation HTTP routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/submissions", handler.submitContent)
			r.Get("/submissions/{item_id}", handler.getSubmission)
			r.Post("/stories", handler.startStoryPublish)
			r.Post("/moderation/analyze", handler.analyzeAndDecide)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Use(handler.moderatorMiddleware)
			r.Get("/reviews/pending", handler.listPendingReviews)
			r.Get("/moderation/submissions", handler.listSubmissionsByStatus)
			r.Get("/moderation/audit/{item_id}", handler.getAuditTrail)
		})
	})

	// The admin completion callback lives at the root path; it is the sole
	// external trigger that resumes a suspended run.
	r.Group(func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Use(handler.moderatorMiddleware)
		r.Post("/approvals", handler.completeApproval)
	})

	return r
}
