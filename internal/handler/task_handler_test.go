package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/middleware"
	"task-tracker/internal/model"
	"task-tracker/internal/pagination"
	"task-tracker/internal/service"
)

type memTaskStore struct {
	mu    sync.Mutex
	tasks map[string]model.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: map[string]model.Task{}}
}

func (s *memTaskStore) Create(_ context.Context, t model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *memTaskStore) FindByIDForUser(_ context.Context, id string, userID string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, model.ErrTaskNotFound
	}
	return t, nil
}

func (s *memTaskStore) Update(_ context.Context, t model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return model.ErrTaskNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *memTaskStore) Delete(_ context.Context, id string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return model.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memTaskStore) ListByUser(_ context.Context, userID string, page pagination.Request) ([]model.Task, int64, error) {
	return s.filter(userID, "", page)
}

func (s *memTaskStore) SearchByTitle(_ context.Context, userID string, title string, page pagination.Request) ([]model.Task, int64, error) {
	return s.filter(userID, title, page)
}

func (s *memTaskStore) filter(userID string, title string, page pagination.Request) ([]model.Task, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(title)) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func newTaskFixture(t *testing.T) (*TaskHandler, *memTaskStore, *model.Principal) {
	t.Helper()
	store := newMemTaskStore()
	principal := &model.Principal{
		User:        model.User{ID: uuid.NewString(), Email: "jane@example.com", Role: model.RoleUser},
		Authorities: model.AuthoritiesFor(model.RoleUser),
	}
	return NewTaskHandler(service.NewTaskService(store)), store, principal
}

func taskRequest(t *testing.T, method string, target string, principal *model.Principal, payload any, urlParams map[string]string) *http.Request {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	ctx := req.Context()
	if principal != nil {
		ctx = middleware.ContextWithPrincipal(ctx, principal)
	}

	rctx := chi.NewRouteContext()
	for key, value := range urlParams {
		rctx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

func decodeTaskEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var envelope model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func createTask(t *testing.T, h *TaskHandler, principal *model.Principal, title string) model.TaskResponse {
	t.Helper()
	req := taskRequest(t, http.MethodPost, "/api/task-management/v1/new-task", principal, model.TaskRequest{
		Title:    title,
		Priority: model.PriorityMedium,
	}, nil)

	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeTaskEnvelope(t, rec)
	raw, err := json.Marshal(envelope.Response)
	require.NoError(t, err)

	var created model.TaskResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	return created
}

func TestTaskHandler_Create(t *testing.T) {
	h, store, principal := newTaskFixture(t)

	created := createTask(t, h, principal, "Write quarterly summary")
	assert.Equal(t, model.StatusPending, created.Status)

	stored, err := store.FindByIDForUser(context.Background(), created.ID, principal.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write quarterly summary", stored.Title)

	t.Run("validation failure", func(t *testing.T) {
		req := taskRequest(t, http.MethodPost, "/api/task-management/v1/new-task", principal, model.TaskRequest{
			Title:    "",
			Priority: "URGENT",
		}, nil)

		rec := httptest.NewRecorder()
		h.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		envelope := decodeTaskEnvelope(t, rec)
		assert.Equal(t, "Validation failed", envelope.Message)
	})

	t.Run("past due date", func(t *testing.T) {
		past := model.NewDate(time.Now().UTC().AddDate(0, 0, -1))
		req := taskRequest(t, http.MethodPost, "/api/task-management/v1/new-task", principal, model.TaskRequest{
			Title:    "late",
			Priority: model.PriorityLow,
			DueDate:  &past,
		}, nil)

		rec := httptest.NewRecorder()
		h.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no principal", func(t *testing.T) {
		req := taskRequest(t, http.MethodPost, "/api/task-management/v1/new-task", nil, model.TaskRequest{
			Title:    "x",
			Priority: model.PriorityLow,
		}, nil)

		rec := httptest.NewRecorder()
		h.Create(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTaskHandler_List(t *testing.T) {
	h, _, principal := newTaskFixture(t)

	t.Run("empty", func(t *testing.T) {
		req := taskRequest(t, http.MethodGet, "/api/task-management/v1/tasks", principal, nil, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No tasks found for this user.", decodeTaskEnvelope(t, rec).Message)
	})

	createTask(t, h, principal, "alpha")
	createTask(t, h, principal, "beta")

	req := taskRequest(t, http.MethodGet, "/api/task-management/v1/tasks?sortBy=title", principal, nil, nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully retrieved 2 tasks (sorted by: title)", decodeTaskEnvelope(t, rec).Message)
}

func TestTaskHandler_Search(t *testing.T) {
	h, _, principal := newTaskFixture(t)
	createTask(t, h, principal, "alpha report")
	createTask(t, h, principal, "beta notes")

	req := taskRequest(t, http.MethodGet, "/api/task-management/v1/tasks/search?title=report", principal, nil, nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Found 1 tasks matching 'report' (sorted by: dueDate)", decodeTaskEnvelope(t, rec).Message)

	t.Run("no match", func(t *testing.T) {
		req := taskRequest(t, http.MethodGet, "/api/task-management/v1/tasks/search?title=nothing", principal, nil, nil)
		rec := httptest.NewRecorder()
		h.Search(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No tasks found matching 'nothing'.", decodeTaskEnvelope(t, rec).Message)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	h, _, principal := newTaskFixture(t)
	created := createTask(t, h, principal, "draft")

	payload := model.TaskUpdateRequest{
		Title:    "final",
		Priority: model.PriorityHigh,
		Status:   model.StatusCompleted,
	}
	target := fmt.Sprintf("/api/task-management/v1/tasks/%s", created.ID)

	req := taskRequest(t, http.MethodPut, target, principal, payload, map[string]string{"id": created.ID})
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task updated successfully", decodeTaskEnvelope(t, rec).Message)

	t.Run("missing status", func(t *testing.T) {
		req := taskRequest(t, http.MethodPut, target, principal, model.TaskUpdateRequest{
			Title:    "final",
			Priority: model.PriorityHigh,
		}, map[string]string{"id": created.ID})

		rec := httptest.NewRecorder()
		h.Update(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		req := taskRequest(t, http.MethodPut, "/api/task-management/v1/tasks/not-a-uuid", principal, payload,
			map[string]string{"id": "not-a-uuid"})

		rec := httptest.NewRecorder()
		h.Update(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		envelope := decodeTaskEnvelope(t, rec)
		assert.Equal(t, "Validation failed", envelope.Message)
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := uuid.NewString()
		req := taskRequest(t, http.MethodPut, "/api/task-management/v1/tasks/"+missing, principal, payload,
			map[string]string{"id": missing})

		rec := httptest.NewRecorder()
		h.Update(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	h, _, principal := newTaskFixture(t)
	created := createTask(t, h, principal, "to remove")

	target := "/api/task-management/v1/tasks/" + created.ID
	req := taskRequest(t, http.MethodDelete, target, principal, nil, map[string]string{"id": created.ID})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted successfully", decodeTaskEnvelope(t, rec).Message)

	second := taskRequest(t, http.MethodDelete, target, principal, nil, map[string]string{"id": created.ID})
	rec = httptest.NewRecorder()
	h.Delete(rec, second)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
