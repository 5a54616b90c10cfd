package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/tracker"
)

const (
	TodoServiceName = "streakly.v1.TodoService"

	TodoServiceListTodosProcedure  = "/streakly.v1.TodoService/ListTodos"
	TodoServiceAddTodoProcedure    = "/streakly.v1.TodoService/AddTodo"
	TodoServiceUpdateTodoProcedure = "/streakly.v1.TodoService/UpdateTodo"
	TodoServiceToggleTodoProcedure = "/streakly.v1.TodoService/ToggleTodo"
	TodoServiceDeleteTodoProcedure = "/streakly.v1.TodoService/DeleteTodo"
)

type ListTodosRequest struct {
	Filter models.TodoFilter `json:"filter"`
}

type ListTodosResponse struct {
	Todos []models.Todo `json:"todos"`
}

type AddTodoRequest struct {
	Todo tracker.TodoInput `json:"todo"`
}

type UpdateTodoRequest struct {
	TodoID string            `json:"todoId"`
	Todo   tracker.TodoInput `json:"todo"`
}

type ToggleTodoRequest struct {
	TodoID string `json:"todoId"`
}

type DeleteTodoRequest struct {
	TodoID string `json:"todoId"`
}

type TodoResponse struct {
	Todo models.Todo `json:"todo"`
}

type DeleteTodoResponse struct{}

// TodoService implements the TodoService RPCs.
type TodoService struct {
	tracker *tracker.Tracker
}

// NewTodoService creates a new TodoService backed by t.
func NewTodoService(t *tracker.Tracker) *TodoService {
	return &TodoService{tracker: t}
}

// Register mounts every TodoService procedure on mux.
func (s *TodoService) Register(mux Mux, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	mux.Handle(TodoServiceListTodosProcedure, connect.NewUnaryHandler(TodoServiceListTodosProcedure, s.ListTodos, opts...))
	mux.Handle(TodoServiceAddTodoProcedure, connect.NewUnaryHandler(TodoServiceAddTodoProcedure, s.AddTodo, opts...))
	mux.Handle(TodoServiceUpdateTodoProcedure, connect.NewUnaryHandler(TodoServiceUpdateTodoProcedure, s.UpdateTodo, opts...))
	mux.Handle(TodoServiceToggleTodoProcedure, connect.NewUnaryHandler(TodoServiceToggleTodoProcedure, s.ToggleTodo, opts...))
	mux.Handle(TodoServiceDeleteTodoProcedure, connect.NewUnaryHandler(TodoServiceDeleteTodoProcedure, s.DeleteTodo, opts...))
}

// ListTodos returns the todos matching the filter, in display order.
func (s *TodoService) ListTodos(ctx context.Context, req *connect.Request[ListTodosRequest]) (*connect.Response[ListTodosResponse], error) {
	slog.Info("ListTodos request received",
		"status", req.Msg.Filter.Status,
		"category", req.Msg.Filter.Category,
		"priority", req.Msg.Filter.Priority,
	)

	todos := s.tracker.ListTodos(req.Msg.Filter)
	slog.Info("ListTodos successful", "count", len(todos))

	return connect.NewResponse(&ListTodosResponse{Todos: todos}), nil
}

// AddTodo creates a todo.
func (s *TodoService) AddTodo(ctx context.Context, req *connect.Request[AddTodoRequest]) (*connect.Response[TodoResponse], error) {
	slog.Info("AddTodo request received", "title", req.Msg.Todo.Title, "priority", req.Msg.Todo.Priority)

	todo, err := s.tracker.AddTodo(ctx, req.Msg.Todo)
	if err != nil {
		return nil, fail("AddTodo failed", err)
	}

	slog.Info("Todo created", "todo_id", todo.ID)
	return connect.NewResponse(&TodoResponse{Todo: todo}), nil
}

// UpdateTodo edits a todo.
func (s *TodoService) UpdateTodo(ctx context.Context, req *connect.Request[UpdateTodoRequest]) (*connect.Response[TodoResponse], error) {
	slog.Info("UpdateTodo request received", "todo_id", req.Msg.TodoID)

	todo, err := s.tracker.UpdateTodo(ctx, req.Msg.TodoID, req.Msg.Todo)
	if err != nil {
		return nil, fail("UpdateTodo failed", err, "todo_id", req.Msg.TodoID)
	}
	return connect.NewResponse(&TodoResponse{Todo: todo}), nil
}

// ToggleTodo flips a todo's completed state.
func (s *TodoService) ToggleTodo(ctx context.Context, req *connect.Request[ToggleTodoRequest]) (*connect.Response[TodoResponse], error) {
	slog.Info("ToggleTodo request received", "todo_id", req.Msg.TodoID)

	todo, err := s.tracker.ToggleTodo(ctx, req.Msg.TodoID)
	if err != nil {
		return nil, fail("ToggleTodo failed", err, "todo_id", req.Msg.TodoID)
	}
	return connect.NewResponse(&TodoResponse{Todo: todo}), nil
}

// DeleteTodo removes a todo.
func (s *TodoService) DeleteTodo(ctx context.Context, req *connect.Request[DeleteTodoRequest]) (*connect.Response[DeleteTodoResponse], error) {
	slog.Info("DeleteTodo request received", "todo_id", req.Msg.TodoID)

	if err := s.tracker.DeleteTodo(ctx, req.Msg.TodoID); err != nil {
		return nil, fail("DeleteTodo failed", err, "todo_id", req.Msg.TodoID)
	}

	slog.Info("Todo deleted", "todo_id", req.Msg.TodoID)
	return connect.NewResponse(&DeleteTodoResponse{}), nil
}
