package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// ==== TodoStore implementation ====

// ListTodos lists a user's todos, newest first.
func (s *SQLiteStore) ListTodos(ctx context.Context, userID int64) ([]*store.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, is_completed, created_at
		FROM todos
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*store.Todo, 0)
	for rows.Next() {
		var todo store.Todo
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.IsCompleted, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, &todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}

	return todos, nil
}

// CreateTodo creates a todo owned by userID.
func (s *SQLiteStore) CreateTodo(ctx context.Context, userID int64, title, description string) (*store.Todo, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (user_id, title, description)
		VALUES (?, ?, ?)
	`, userID, title, description)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetTodo(ctx, id, userID)
}

// GetTodo retrieves a todo owned by userID.
func (s *SQLiteStore) GetTodo(ctx context.Context, id, userID int64) (*store.Todo, error) {
	var todo store.Todo
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, is_completed, created_at
		FROM todos
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.IsCompleted, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query todo: %w", err)
	}

	return &todo, nil
}

// UpdateTodo overwrites title, description and completion state of a todo owned by userID.
func (s *SQLiteStore) UpdateTodo(ctx context.Context, id, userID int64, title, description string, isCompleted bool) (*store.Todo, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, is_completed = ?
		WHERE id = ? AND user_id = ?
	`, title, description, isCompleted, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetTodo(ctx, id, userID)
}

// DeleteTodo removes a todo owned by userID.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM todos
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}
