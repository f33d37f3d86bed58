package handlers

import (
	"task-bounty-system/middleware"
	"task-bounty-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(
	app *fiber.App,
	userService *services.UserService,
	projectService *services.ProjectService,
	taskService *services.TaskService,
	bountyService *services.BountyService,
	submissionService *services.SubmissionService,
) {
	user := app.Group("/user", middleware.UserContextMiddleware())

	// Profile
	user.Get("/profile", userService.GetProfile)
	user.Put("/profile", userService.UpdateProfile)

	// Projects and tasks
	user.Get("/projects", projectService.GetAssignedProjects)
	user.Get("/projects/:id/tasks", taskService.GetProjectTasks)
	user.Post("/tasks/:taskId/submit", taskService.SubmitTask)
	user.Get("/submissions", taskService.GetUserSubmissions)

	// Bounties
	user.Get("/bounties/all", bountyService.GetAllBountiesDebug)
	user.Get("/bounties/active", bountyService.GetActiveBounties)
	user.Post("/bounties/:bountyId/submit", submissionService.SubmitBounty)
	user.Get("/bounty-submissions", submissionService.GetUserBountySubmissions)
}
