package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"todo-tree/app/logger"
	"todo-tree/app/models"
)

// TodoService is the set of operations the controller exposes over HTTP.
type TodoService interface {
	Create(ctx context.Context, in models.CreateTodoInput) (*models.Todo, error)
	FindAll(ctx context.Context, order string) ([]models.Todo, error)
	FindOne(ctx context.Context, id string) (*models.Todo, error)
	Update(ctx context.Context, id string, in models.UpdateTodoInput) (*models.Todo, error)
	Remove(ctx context.Context, id string, cascade bool) (*models.RemoveResult, error)
	DetachFromParent(ctx context.Context, id string) (*models.Todo, error)
	FindChildrenByParentID(ctx context.Context, parentID string) ([]models.Todo, error)
	GenerateChildren(ctx context.Context, parentID string) ([]models.Todo, error)
}

// TodoController handles HTTP requests for todos.
type TodoController struct {
	Service TodoService
	log     *logger.Logger
}

// NewTodoController creates a new TodoController.
func NewTodoController(service TodoService, log *logger.Logger) *TodoController {
	if log == nil {
		log = logger.Nop()
	}
	return &TodoController{Service: service, log: log}
}

// Create handles POST /todos.
func (c *TodoController) Create(w http.ResponseWriter, r *http.Request) {
	var in models.CreateTodoInput
	if !c.decode(w, r, &in) {
		return
	}

	todo, err := c.Service.Create(r.Context(), in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// FindAll handles GET /todos?order=asc|desc.
func (c *TodoController) FindAll(w http.ResponseWriter, r *http.Request) {
	todos, err := c.Service.FindAll(r.Context(), r.URL.Query().Get("order"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// FindOne handles GET /todos/{id}.
func (c *TodoController) FindOne(w http.ResponseWriter, r *http.Request) {
	todo, err := c.Service.FindOne(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// Update handles PATCH /todos/{id}.
func (c *TodoController) Update(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateTodoInput
	if !c.decode(w, r, &in) {
		return
	}

	todo, err := c.Service.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// Remove handles DELETE /todos/{id}. Children are deleted only with
// cascade=true; otherwise they become top-level.
func (c *TodoController) Remove(w http.ResponseWriter, r *http.Request) {
	cascade := r.URL.Query().Get("cascade") == "true"

	result, err := c.Service.Remove(r.Context(), mux.Vars(r)["id"], cascade)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Detach handles PATCH /todos/{id}/detach.
func (c *TodoController) Detach(w http.ResponseWriter, r *http.Request) {
	todo, err := c.Service.DetachFromParent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// FindChildren handles GET /todos/{id}/children.
func (c *TodoController) FindChildren(w http.ResponseWriter, r *http.Request) {
	todos, err := c.Service.FindChildrenByParentID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// GenerateChildren handles POST /todos/{id}/generate-children.
func (c *TodoController) GenerateChildren(w http.ResponseWriter, r *http.Request) {
	todos, err := c.Service.GenerateChildren(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, todos)
}

func (c *TodoController) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		c.log.Debug().Err(err).Str("path", r.URL.Path).Msg("invalid request payload")
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
