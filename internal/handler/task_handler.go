package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"task-tracker/internal/middleware"
	"task-tracker/internal/model"
	"task-tracker/internal/pagination"
	"task-tracker/internal/service"
	"task-tracker/pkg/apierror"
)

var taskSortFields = []string{"id", "dueDate", "title", "description", "priority", "status"}

const defaultTaskSort = "dueDate"

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NotAuthorized("Authentication required"))
		return
	}

	page := pagination.ParseQuery(r.URL.Query(), taskSortFields, defaultTaskSort)
	result, err := h.service.List(r.Context(), principal.User.ID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "No tasks found for this user."
	if result.TotalElements > 0 {
		message = fmt.Sprintf("Successfully retrieved %d tasks (sorted by: %s)", result.TotalElements, page.SortBy)
	}

	writeEnvelope(w, http.StatusOK, message, result)
}

func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NotAuthorized("Authentication required"))
		return
	}

	title := r.URL.Query().Get("title")
	page := pagination.ParseQuery(r.URL.Query(), taskSortFields, defaultTaskSort)
	result, err := h.service.Search(r.Context(), principal.User.ID, title, page)
	if err != nil {
		writeError(w, err)
		return
	}

	message := fmt.Sprintf("No tasks found matching '%s'.", title)
	if result.TotalElements > 0 {
		message = fmt.Sprintf("Found %d tasks matching '%s' (sorted by: %s)", result.TotalElements, title, page.SortBy)
	}

	writeEnvelope(w, http.StatusOK, message, result)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NotAuthorized("Authentication required"))
		return
	}

	var payload model.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	fieldErrs := validateTaskFields(payload.Title, payload.Priority)
	if payload.DueDate != nil && payload.DueDate.Before(model.NewDate(time.Now().UTC()).Time) {
		if fieldErrs == nil {
			fieldErrs = map[string]string{}
		}
		fieldErrs["dueDate"] = "Due date cannot be in the past"
	}
	if fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return
	}

	created, err := h.service.Create(r.Context(), principal.User.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusCreated, "Task created successfully", created)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NotAuthorized("Authentication required"))
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var payload model.TaskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	fieldErrs := validateTaskFields(payload.Title, payload.Priority)
	if payload.Status != "" && !model.ValidStatus(payload.Status) {
		if fieldErrs == nil {
			fieldErrs = map[string]string{}
		}
		fieldErrs["status"] = "Status must be one of PENDING, IN_PROGRESS, COMPLETED"
	}
	if payload.Status == "" {
		if fieldErrs == nil {
			fieldErrs = map[string]string{}
		}
		fieldErrs["status"] = "Status is required"
	}
	if fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return
	}

	updated, err := h.service.Update(r.Context(), principal.User.ID, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Task updated successfully", updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.NotAuthorized("Authentication required"))
		return
	}

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), principal.User.ID, id); err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Task deleted successfully", nil)
}

func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		writeValidationError(w, map[string]string{"id": fmt.Sprintf("'%s' is not a valid UUID", raw)})
		return "", false
	}
	return raw, true
}
