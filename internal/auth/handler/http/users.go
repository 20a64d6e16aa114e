package http

import (
	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/gofiber/fiber/v2"
)

type UsersHandler struct {
	authService *service.AuthService
}

func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{authService: authService}
}

// ListUsers pages through accounts: ?after=<cursor>&limit=<n>.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	pagination := &model.PaginationInput{}
	if after := c.Query("after"); after != "" {
		pagination.After = &after
	}
	if limit := c.QueryInt("limit", 0); limit > 0 {
		pagination.Limit = &limit
	}

	page, err := h.authService.FindUsers(c.UserContext(), pagination)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"users":       page.Users,
		"nextCursor":  page.NextCursor,
		"hasNextPage": page.HasNextPage,
	})
}

func (h *UsersHandler) UpdateStatus(c *fiber.Ctx) error {
	var input model.UpdateStatusInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.authService.UpdateUserStatus(c.UserContext(), c.Params("id"), input.Status)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": user})
}
