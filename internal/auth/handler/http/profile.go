package http

import (
	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	authService *service.AuthService
}

func NewProfileHandler(authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{authService: authService}
}

func (h *ProfileHandler) GetUserProfile(c *fiber.Ctx) error {
	userID, err := currentSubject(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": user})
}

func (h *ProfileHandler) HandlePasswordChange(c *fiber.Ctx) error {
	userID, err := currentSubject(c)
	if err != nil {
		return err
	}

	var input model.ChangePasswordInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.ChangePassword(c.UserContext(), userID, input)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": res.Message})
}
