package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-tracker/internal/model"
	"task-tracker/internal/pagination"
)

// sortColumns maps the API's sortBy fields to real columns. Input is
// whitelisted by the pagination package before it reaches this map.
var sortColumns = map[string]string{
	"id":          "id",
	"dueDate":     "due_date",
	"title":       "title",
	"description": "description",
	"priority":    "priority",
	"status":      "status",
}

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, t model.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, description, due_date, priority, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.Title, t.Description, dueDateParam(t.DueDate), t.Priority, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByIDForUser(ctx context.Context, id string, userID string) (model.Task, error) {
	var t model.Task
	var due *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at
		 FROM tasks WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, model.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("find task: %w", err)
	}
	t.DueDate = dueDateValue(due)
	return t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t model.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET title = $3, description = $4, due_date = $5, priority = $6, status = $7, updated_at = $8
		 WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, t.Title, t.Description, dueDateParam(t.DueDate), t.Priority, t.Status, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string, page pagination.Request) ([]model.Task, int64, error) {
	return r.queryPage(ctx, page,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1`,
		`SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at
		 FROM tasks WHERE user_id = $1`,
		userID)
}

func (r *TaskRepository) SearchByTitle(ctx context.Context, userID string, title string, page pagination.Request) ([]model.Task, int64, error) {
	pattern := "%" + title + "%"
	return r.queryPage(ctx, page,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND title ILIKE $2`,
		`SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at
		 FROM tasks WHERE user_id = $1 AND title ILIKE $2`,
		userID, pattern)
}

func (r *TaskRepository) queryPage(ctx context.Context, page pagination.Request, countSQL string, listSQL string, args ...any) ([]model.Task, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = "due_date"
	}

	query := fmt.Sprintf("%s ORDER BY %s ASC NULLS LAST LIMIT %d OFFSET %d",
		listSQL, column, page.Size, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		var due *time.Time
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		t.DueDate = dueDateValue(due)
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func dueDateParam(d *model.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func dueDateValue(t *time.Time) *model.Date {
	if t == nil {
		return nil
	}
	d := model.NewDate(*t)
	return &d
}
