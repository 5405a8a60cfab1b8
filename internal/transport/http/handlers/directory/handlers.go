package directoryhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrkyc/internal/domain/directory"
	"hrkyc/internal/platform/requestctx"
	"hrkyc/internal/transport/http/api"
	"hrkyc/internal/transport/http/middleware"
	"hrkyc/internal/transport/http/shared"
)

// UserLookup resolves a login email to its user id for identity binding.
type UserLookup interface {
	UserIDByEmail(ctx context.Context, email string) (string, error)
}

type Handler struct {
	Service        *directory.Service
	Users          UserLookup
	MaxUploadBytes int64
}

func NewHandler(service *directory.Service, users UserLookup, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, Users: users, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.With(middleware.RequireAdmin).Post("/", h.handleCreate)
		r.Route("/{empID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(middleware.RequireAdmin).Put("/", h.handleUpdate)
			r.With(middleware.RequireAdmin).Post("/bind", h.handleBind)
			r.With(middleware.RequireAdmin).Post("/unbind", h.handleUnbind)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	employees, err := h.Service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", requestctx.GetRequestID(r.Context()))
		return
	}

	if !user.IsAdmin {
		own := make([]directory.Employee, 0, 1)
		for _, emp := range employees {
			if isSelf(emp, user.UserID, user.Email) {
				own = append(own, emp)
			}
		}
		employees = own
	}

	api.Success(w, employees, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	empID := chi.URLParam(r, "empID")

	emp, err := h.Service.Get(r.Context(), empID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", requestctx.GetRequestID(r.Context()))
		return
	}

	if !user.IsAdmin && !isSelf(*emp, user.UserID, user.Email) {
		api.Fail(w, http.StatusForbidden, "forbidden", "access denied", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, emp, requestctx.GetRequestID(r.Context()))
}

// handleCreate accepts a multipart form so the cropped profile picture can
// ride along with the profile fields.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestctx.GetRequestID(r.Context()))
		return
	}

	emp, ok := h.employeeFromForm(w, r)
	if !ok {
		return
	}

	var avatar io.Reader
	file, _, err := r.FormFile("profilePicture")
	if err == nil {
		defer file.Close()
		avatar = file
	} else if !errors.Is(err, http.ErrMissingFile) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid profile picture", requestctx.GetRequestID(r.Context()))
		return
	}

	created, err := h.Service.Create(r.Context(), emp, avatar)
	if err != nil {
		var verr *directory.ValidationError
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &verr):
			shared.FailValidation(w, requestctx.GetRequestID(r.Context()), toIssues(verr))
		case errors.As(err, &pgErr) && pgErr.Code == "23505":
			api.Fail(w, http.StatusConflict, "employee_exists", "employee id or official email already in use", requestctx.GetRequestID(r.Context()))
		case created != nil:
			// row inserted, storage provisioning failed; the record
			// exists without its storage scaffold
			api.Fail(w, http.StatusInternalServerError, "storage_provisioning_failed", "employee created but storage provisioning failed", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	api.Created(w, created, requestctx.GetRequestID(r.Context()))
}

type employeeRequest struct {
	EmpID            string `json:"empId"`
	Name             string `json:"name"`
	PersonalEmail    string `json:"personalEmail"`
	OfficialEmail    string `json:"officialEmail"`
	Designation      string `json:"designation"`
	DateOfJoining    string `json:"dateOfJoining"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergencyContact"`
	DateOfBirth      string `json:"dateOfBirth"`
	Address          string `json:"address"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")

	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	emp, ok := employeeFromRequest(w, r, payload)
	if !ok {
		return
	}

	updated, err := h.Service.Update(r.Context(), empID, emp)
	if err != nil {
		var verr *directory.ValidationError
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &verr):
			shared.FailValidation(w, requestctx.GetRequestID(r.Context()), toIssues(verr))
		case errors.As(err, &pgErr) && pgErr.Code == "23505":
			api.Fail(w, http.StatusConflict, "employee_exists", "official email already in use", requestctx.GetRequestID(r.Context()))
		case errors.Is(err, directory.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", requestctx.GetRequestID(r.Context()))
		}
		return
	}

	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

type bindRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleBind(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")

	var payload bindRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email is required", requestctx.GetRequestID(r.Context()))
		return
	}

	userID, err := h.Users.UserIDByEmail(r.Context(), strings.ToLower(strings.TrimSpace(payload.Email)))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "user_not_found", "no login account with that email", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.BindUser(r.Context(), empID, userID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "bind_failed", "failed to bind user", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"empId": empID, "userId": userID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUnbind(w http.ResponseWriter, r *http.Request) {
	empID := chi.URLParam(r, "empID")

	if err := h.Service.UnbindUser(r.Context(), empID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestctx.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "unbind_failed", "failed to unbind user", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"empId": empID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) employeeFromForm(w http.ResponseWriter, r *http.Request) (directory.Employee, bool) {
	payload := employeeRequest{
		EmpID:            r.FormValue("empId"),
		Name:             r.FormValue("name"),
		PersonalEmail:    r.FormValue("personalEmail"),
		OfficialEmail:    r.FormValue("officialEmail"),
		Designation:      r.FormValue("designation"),
		DateOfJoining:    r.FormValue("dateOfJoining"),
		Phone:            r.FormValue("phone"),
		EmergencyContact: r.FormValue("emergencyContact"),
		DateOfBirth:      r.FormValue("dateOfBirth"),
		Address:          r.FormValue("address"),
	}
	return employeeFromRequest(w, r, payload)
}

// employeeFromRequest parses the date fields up front so a malformed date is
// rejected before any remote call, same as a missing required field.
func employeeFromRequest(w http.ResponseWriter, r *http.Request, payload employeeRequest) (directory.Employee, bool) {
	v := shared.NewValidator()

	var dateOfJoining, dateOfBirth *time.Time
	if strings.TrimSpace(payload.DateOfJoining) != "" {
		if parsed, ok := v.Date("dateOfJoining", payload.DateOfJoining); ok {
			dateOfJoining = &parsed
		}
	}
	if strings.TrimSpace(payload.DateOfBirth) != "" {
		if parsed, ok := v.Date("dateOfBirth", payload.DateOfBirth); ok {
			dateOfBirth = &parsed
		}
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return directory.Employee{}, false
	}

	return directory.Employee{
		EmpID:            strings.TrimSpace(payload.EmpID),
		Name:             strings.TrimSpace(payload.Name),
		PersonalEmail:    strings.TrimSpace(payload.PersonalEmail),
		OfficialEmail:    strings.TrimSpace(payload.OfficialEmail),
		Designation:      strings.TrimSpace(payload.Designation),
		DateOfJoining:    dateOfJoining,
		Phone:            strings.TrimSpace(payload.Phone),
		EmergencyContact: strings.TrimSpace(payload.EmergencyContact),
		DateOfBirth:      dateOfBirth,
		Address:          strings.TrimSpace(payload.Address),
	}, true
}

func toIssues(verr *directory.ValidationError) []shared.ValidationIssue {
	issues := make([]shared.ValidationIssue, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
	}
	return issues
}

func isSelf(emp directory.Employee, userID, email string) bool {
	if emp.UserID != "" && emp.UserID == userID {
		return true
	}
	return strings.EqualFold(emp.OfficialEmail, email)
}
