package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// TodoHandlers provides HTTP handlers for todo CRUD endpoints.
type TodoHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewTodoHandlers creates a new todo handlers instance.
func NewTodoHandlers(st store.Store, logger *zerolog.Logger) *TodoHandlers {
	return &TodoHandlers{
		store: st,
		log:   logger,
	}
}

// TodoRequest represents the create/update todo request body.
type TodoRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
	CreatedAt   string `json:"created_at"`
}

func todoResponse(t *store.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid todo id"})
		return 0, false
	}
	return id, true
}

// ListTodos handles listing the user's todos, newest first.
// GET /api/todos
func (h *TodoHandlers) ListTodos(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	todos, err := h.store.ListTodos(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list todos")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		response = append(response, todoResponse(t))
	}
	c.JSON(http.StatusOK, response)
}

// CreateTodo handles todo creation.
// POST /api/todos
func (h *TodoHandlers) CreateTodo(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create todo request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	todo, err := h.store.CreateTodo(c.Request.Context(), uid, req.Title, req.Description)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create todo")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("todo_id", todo.ID).Int64("user_id", uid).Msg("todo created")
	c.JSON(http.StatusCreated, todoResponse(todo))
}

// GetTodo handles fetching a single todo. Rows owned by other users look
// like missing rows.
// GET /api/todos/:id
func (h *TodoHandlers) GetTodo(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.store.GetTodo(c.Request.Context(), id, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "todo not found"})
			return
		}
		h.log.Error().Err(err).Int64("todo_id", id).Msg("failed to get todo")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, todoResponse(todo))
}

// UpdateTodo handles overwriting a todo's title, description and completion.
// PUT /api/todos/:id
func (h *TodoHandlers) UpdateTodo(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update todo request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	todo, err := h.store.UpdateTodo(c.Request.Context(), id, uid, req.Title, req.Description, req.IsCompleted)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "todo not found"})
			return
		}
		h.log.Error().Err(err).Int64("todo_id", id).Msg("failed to update todo")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, todoResponse(todo))
}

// DeleteTodo handles deleting a todo.
// DELETE /api/todos/:id
func (h *TodoHandlers) DeleteTodo(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteTodo(c.Request.Context(), id, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "todo not found"})
			return
		}
		h.log.Error().Err(err).Int64("todo_id", id).Msg("failed to delete todo")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "todo deleted"})
}
