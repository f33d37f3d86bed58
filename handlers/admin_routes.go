package handlers

import (
	"task-bounty-system/middleware"
	"task-bounty-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(
	app *fiber.App,
	userService *services.UserService,
	projectService *services.ProjectService,
	taskService *services.TaskService,
	bountyService *services.BountyService,
	submissionService *services.SubmissionService,
	exportService *services.ExportService,
) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	// Users
	admin.Get("/users", userService.GetUsers)
	admin.Put("/users/:id/status", userService.UpdateUserStatus)

	// Projects
	admin.Post("/projects", projectService.CreateProject)
	admin.Get("/projects", projectService.GetProjects)
	admin.Put("/projects/:id", projectService.UpdateProject)
	admin.Delete("/projects/:id", projectService.DeleteProject)
	admin.Put("/projects/:id/assign-users", projectService.AssignUsers)

	// Tasks
	admin.Post("/projects/:projectId/tasks", taskService.CreateTask)
	admin.Get("/projects/:projectId/tasks", taskService.GetTasks)
	admin.Put("/tasks/:taskId", taskService.UpdateTask)
	admin.Put("/tasks/:taskId/toggle", taskService.ToggleTaskActive)

	// Bounties
	admin.Post("/bounties", bountyService.CreateBounty)
	admin.Get("/bounties", bountyService.GetBounties)
	admin.Put("/bounties/:id", bountyService.UpdateBounty)
	admin.Put("/bounties/:id/close", bountyService.CloseBounty)

	// Task submissions
	admin.Get("/submissions", taskService.GetSubmissions)
	admin.Put("/submissions/:id", taskService.UpdateSubmissionStatus)

	// Bounty submissions
	admin.Get("/bounty-submissions", submissionService.GetBountySubmissions)
	admin.Put("/bounty-submissions/:id", submissionService.UpdateBountySubmissionStatus)

	// Export
	admin.Get("/export-data", exportService.GetExportData)
}
