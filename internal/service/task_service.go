package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-tracker/internal/model"
	"task-tracker/internal/pagination"
	"task-tracker/pkg/apierror"
)

type TaskStore interface {
	Create(ctx context.Context, t model.Task) error
	FindByIDForUser(ctx context.Context, id string, userID string) (model.Task, error)
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, id string, userID string) error
	ListByUser(ctx context.Context, userID string, page pagination.Request) ([]model.Task, int64, error)
	SearchByTitle(ctx context.Context, userID string, title string, page pagination.Request) ([]model.Task, int64, error)
}

// TaskService owns per-user task CRUD and search. Every operation is scoped
// to the owning user id; a task belonging to someone else is indistinguishable
// from a missing one.
type TaskService struct {
	tasks TaskStore
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) List(ctx context.Context, userID string, page pagination.Request) (pagination.Response, error) {
	tasks, total, err := s.tasks.ListByUser(ctx, userID, page)
	if err != nil {
		return pagination.Response{}, err
	}
	return pagination.NewResponse(page, total, toResponses(tasks)), nil
}

func (s *TaskService) Search(ctx context.Context, userID string, title string, page pagination.Request) (pagination.Response, error) {
	tasks, total, err := s.tasks.SearchByTitle(ctx, userID, title, page)
	if err != nil {
		return pagination.Response{}, err
	}
	return pagination.NewResponse(page, total, toResponses(tasks)), nil
}

// Create stores a new task for the user. Status always starts as PENDING.
func (s *TaskService) Create(ctx context.Context, userID string, req model.TaskRequest) (model.TaskResponse, error) {
	if !model.ValidPriority(req.Priority) {
		return model.TaskResponse{}, apierror.BadRequest("Priority must be one of LOW, MEDIUM, HIGH")
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return model.TaskResponse{}, err
	}
	return model.TaskToResponse(task), nil
}

func (s *TaskService) Update(ctx context.Context, userID string, id string, req model.TaskUpdateRequest) (model.TaskResponse, error) {
	if !model.ValidPriority(req.Priority) {
		return model.TaskResponse{}, apierror.BadRequest("Priority must be one of LOW, MEDIUM, HIGH")
	}
	if !model.ValidStatus(req.Status) {
		return model.TaskResponse{}, apierror.BadRequest("Status must be one of PENDING, IN_PROGRESS, COMPLETED")
	}

	task, err := s.tasks.FindByIDForUser(ctx, id, userID)
	if errors.Is(err, model.ErrTaskNotFound) {
		return model.TaskResponse{}, apierror.NotFound("Task not found")
	}
	if err != nil {
		return model.TaskResponse{}, err
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.DueDate = req.DueDate
	task.Priority = req.Priority
	task.Status = req.Status
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return model.TaskResponse{}, apierror.NotFound("Task not found")
		}
		return model.TaskResponse{}, err
	}
	return model.TaskToResponse(task), nil
}

func (s *TaskService) Delete(ctx context.Context, userID string, id string) error {
	err := s.tasks.Delete(ctx, id, userID)
	if errors.Is(err, model.ErrTaskNotFound) {
		return apierror.NotFound("Task not found")
	}
	return err
}

func toResponses(tasks []model.Task) []model.TaskResponse {
	out := make([]model.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, model.TaskToResponse(t))
	}
	return out
}
