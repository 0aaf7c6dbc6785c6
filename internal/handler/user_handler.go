package handler

import (
	"errors"

	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

const usersPath = "/users/"

type UserHandler struct {
	userService service.UserService
	view        *View
}

func NewUserHandler(userService service.UserService, view *View) *UserHandler {
	return &UserHandler{userService: userService, view: view}
}

// List renders users and the create form
// GET /users/
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers()
	if err != nil {
		return err
	}
	roles, err := h.userService.GetRoles()
	if err != nil {
		return err
	}
	return h.view.Render(c, "users/list", "users", fiber.Map{
		"Title": "Users",
		"Users": users,
		"Roles": roles,
	})
}

// CreateUser handles user creation
// POST /users/
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return h.view.Redirect(c, usersPath, "danger", "Invalid form submission")
	}

	user, err := h.userService.CreateUser(&req, getUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			return h.view.Redirect(c, usersPath, "danger", "A user with this email already exists")
		case errors.Is(err, service.ErrRoleNotFound):
			return h.view.Redirect(c, usersPath, "danger", "Unknown role")
		}
		return h.view.Fail(c, usersPath, err)
	}
	return h.view.Redirect(c, usersPath, "success", "User: "+user.Email+" created successfully!")
}

// SetActive enables or disables a user
// POST /users/:id/active/
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return h.view.Redirect(c, usersPath, "danger", "User not found")
	}
	if id.String() == getUserID(c) {
		return h.view.Redirect(c, usersPath, "warning", "You cannot change your own account status")
	}
	active := c.FormValue("active") == "true"
	if err := h.userService.SetActive(id, active); err != nil {
		return h.view.Fail(c, usersPath, err)
	}
	msg := "User deactivated"
	if active {
		msg = "User activated"
	}
	return h.view.Redirect(c, usersPath, "success", msg)
}
