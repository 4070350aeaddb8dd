package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stylingadventures/moderation-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(r.Context(), w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := h.verifier.Verify(raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) moderatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !strings.EqualFold(claims.Role, "moderator") {
			logModeratorDenied(r.Context(), claims.SubjectID, claims.Role)
			writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", "moderator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) submitContent(w http.ResponseWriter, r *http.Request) {
	const operation = "submit_content"

	var req application.SubmitContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	applyOwnerFromClaims(r.Context(), &req.OwnerID)

	res, err := h.service.SubmitContent(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, res)
}

func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	const operation = "get_submission"

	itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
	res, err := h.service.GetSubmission(r.Context(), itemID)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) startStoryPublish(w http.ResponseWriter, r *http.Request) {
	const operation = "start_story_publish"

	var req application.StoryPublishRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	applyOwnerFromClaims(r.Context(), &req.OwnerID)

	res, err := h.service.StartStoryPublish(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, res)
}

func (h *Handler) analyzeAndDecide(w http.ResponseWriter, r *http.Request) {
	const operation = "analyze_and_decide"

	var req application.AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	applyOwnerFromClaims(r.Context(), &req.OwnerID)

	decision, err := h.service.AnalyzeAndDecide(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, decision)
}

func (h *Handler) listPendingReviews(w http.ResponseWriter, r *http.Request) {
	const operation = "list_pending_reviews"

	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	items, err := h.service.ListPendingReviews(r.Context(), limit)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"reviews": items,
		"count":   len(items),
	})
}

func (h *Handler) listSubmissionsByStatus(w http.ResponseWriter, r *http.Request) {
	const operation = "list_submissions_by_status"

	status := r.URL.Query().Get("status")
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	items, err := h.service.ListSubmissionsByStatus(r.Context(), status, limit)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"submissions": items,
		"count":       len(items),
	})
}

func (h *Handler) getAuditTrail(w http.ResponseWriter, r *http.Request) {
	const operation = "get_audit_trail"

	itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
	limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
	entries, err := h.service.AuditTrail(r.Context(), itemID, limit)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"item_id": itemID,
		"entries": entries,
	})
}

func (h *Handler) completeApproval(w http.ResponseWriter, r *http.Request) {
	const operation = "complete_approval"

	var req application.ApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	if claims, ok := claimsFromContext(r.Context()); ok && req.ReviewedBy == "" {
		req.ReviewedBy = claims.SubjectID
	}

	res, err := h.service.CompleteApproval(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func applyOwnerFromClaims(ctx context.Context, ownerID *string) {
	if *ownerID != "" {
		return
	}
	if claims, ok := claimsFromContext(ctx); ok {
		*ownerID = claims.SubjectID
	}
}
