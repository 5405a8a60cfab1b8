package documentshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrkyc/internal/domain/directory"
	"hrkyc/internal/domain/documents"
	"hrkyc/internal/platform/requestctx"
	"hrkyc/internal/transport/http/api"
	"hrkyc/internal/transport/http/middleware"
)

// OwnerLookup answers whether the acting user owns the employee record.
type OwnerLookup interface {
	Get(ctx context.Context, empID string) (*directory.Employee, error)
}

type Handler struct {
	Service        *documents.Service
	Owners         OwnerLookup
	MaxUploadBytes int64
	PresignTTL     time.Duration
}

func NewHandler(service *documents.Service, owners OwnerLookup, maxUploadBytes int64, presignTTL time.Duration) *Handler {
	return &Handler{Service: service, Owners: owners, MaxUploadBytes: maxUploadBytes, PresignTTL: presignTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{empID}/documents", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/{docType}", h.handleUpload)
		r.Get("/{docType}/url", h.handleDownloadURL)
	})
	r.Route("/documents/{docID}", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/approve", h.handleApprove)
		r.Post("/reject", h.handleReject)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")
	if !h.authorizeOwner(w, r, empID) {
		return
	}

	entries, err := h.Service.List(r.Context(), empID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "document_list_failed", "failed to list documents", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, entries, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")
	docType := chi.URLParam(r, "docType")
	if !h.authorizeOwner(w, r, empID) {
		return
	}

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestctx.GetRequestID(r.Context()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "file_required", "a file is required", requestctx.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	doc, err := h.Service.Upload(r.Context(), empID, docType, header.Filename, file)
	if err != nil {
		if errors.Is(err, documents.ErrUnknownType) {
			api.Fail(w, http.StatusBadRequest, "unknown_document_type", "unknown document type", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to upload document", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Created(w, doc, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")
	docType := chi.URLParam(r, "docType")
	if !h.authorizeOwner(w, r, empID) {
		return
	}

	url, err := h.Service.DownloadURL(r.Context(), empID, docType, h.PresignTTL)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "document_not_found", "document not uploaded", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "url_failed", "failed to create download link", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"url": url}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	doc, err := h.Service.Approve(r.Context(), docID)
	if err != nil {
		h.failTransition(w, r, err, "approve_failed", "failed to approve document")
		return
	}

	api.Success(w, doc, requestctx.GetRequestID(r.Context()))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	doc, err := h.Service.Reject(r.Context(), docID, payload.Reason)
	if err != nil {
		if errors.Is(err, documents.ErrReasonRequired) {
			api.Fail(w, http.StatusBadRequest, "reason_required", "a rejection reason is required", requestctx.GetRequestID(r.Context()))
			return
		}
		h.failTransition(w, r, err, "reject_failed", "failed to reject document")
		return
	}

	api.Success(w, doc, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) failTransition(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "document_not_found", "document not found", requestctx.GetRequestID(r.Context()))
	case errors.Is(err, documents.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "document is not pending review", requestctx.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestctx.GetRequestID(r.Context()))
	}
}

// authorizeOwner allows admins and the employee the record belongs to.
func (h *Handler) authorizeOwner(w http.ResponseWriter, r *http.Request, empID string) bool {
	user, _ := middleware.GetUser(r.Context())
	if user.IsAdmin {
		return true
	}

	emp, err := h.Owners.Get(r.Context(), empID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
		return false
	}
	if (emp.UserID != "" && emp.UserID == user.UserID) || strings.EqualFold(emp.OfficialEmail, user.Email) {
		return true
	}

	api.Fail(w, http.StatusForbidden, "forbidden", "access denied", requestctx.GetRequestID(r.Context()))
	return false
}
