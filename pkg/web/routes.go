package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the API handlers on router.
func RegisterRoutes(router *fiber.App, handlers *APIHandlers) {
	router.Post("/scrape", handlers.ScrapeURL)
	router.Post("/scrape/batch", handlers.ScrapeMultipleURLs)
	router.Post("/variables", handlers.GetNodeVariables)

	w := router.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/executions", handlers.GetExecutions)

	router.Get("/executions/:id", handlers.GetExecution)
	router.Get("/nodes", handlers.GetNodeTypes)
	router.Get("/health", handlers.HealthCheck)
}
