package reportshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrkyc/internal/domain/directory"
	"hrkyc/internal/domain/reports"
	"hrkyc/internal/platform/requestctx"
	"hrkyc/internal/transport/http/api"
	"hrkyc/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Get("/reports/kyc-summary/{empID}", h.handleKYCSummary)
}

func (h *Handler) handleKYCSummary(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")

	pdf, err := h.Service.KYCSummary(r.Context(), empID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestctx.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="kyc-summary-`+empID+`.pdf"`)
	_, _ = w.Write(pdf)
}
