package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/staffdesk/staffdesk-backend/internal/leave/service"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
)

// LeaveHandler handles leave HTTP requests
type LeaveHandler struct {
	service *service.LeaveService
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Create handles POST /api/v1/leave
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.service.Create(r.Context(), req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, leave)
}

// ListAll handles GET /api/v1/leave
func (h *LeaveHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leaves)
}

// ListForEmployee handles GET /api/v1/leave/employee/{employeeId}
func (h *LeaveHandler) ListForEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	leaves, err := h.service.ListForEmployee(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leaves)
}

// Review handles PUT /api/v1/leave/{id}
func (h *LeaveHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.service.Review(r.Context(), id, req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leave)
}

// Delete handles DELETE /api/v1/leave/{id}
func (h *LeaveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"message": "leave request deleted successfully",
	})
}
