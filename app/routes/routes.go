package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"todo-tree/app/controllers"
	"todo-tree/app/logger"
)

// Prefix is the path prefix of every API route.
const Prefix = "/api/v1"

// RegisterRoutes sets up all todo routes on router.
func RegisterRoutes(router *mux.Router, todoController *controllers.TodoController) {
	router.HandleFunc("/todos", todoController.Create).Methods(http.MethodPost)
	router.HandleFunc("/todos", todoController.FindAll).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id}", todoController.FindOne).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id}", todoController.Update).Methods(http.MethodPatch)
	router.HandleFunc("/todos/{id}", todoController.Remove).Methods(http.MethodDelete)
	router.HandleFunc("/todos/{id}/detach", todoController.Detach).Methods(http.MethodPatch)
	router.HandleFunc("/todos/{id}/children", todoController.FindChildren).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id}/generate-children", todoController.GenerateChildren).Methods(http.MethodPost)
}

// NewHandler builds the full HTTP handler: the API routes under Prefix,
// wrapped in access logging and CORS.
func NewHandler(todoController *controllers.TodoController, origins []string, log *logger.Logger) http.Handler {
	router := mux.NewRouter()
	RegisterRoutes(router.PathPrefix(Prefix).Subrouter(), todoController)

	return CORS(origins)(AccessLog(log)(router))
}
