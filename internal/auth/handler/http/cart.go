package http

import (
	"context"

	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	authService *service.AuthService
}

func NewCartHandler(authService *service.AuthService) *CartHandler {
	return &CartHandler{authService: authService}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, err := currentSubject(c)
	if err != nil {
		return err
	}

	cart, err := h.authService.GetCart(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"cartData": cart})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	return h.mutate(c, h.authService.AddToCart)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	return h.mutate(c, h.authService.UpdateCart)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, err := currentSubject(c)
	if err != nil {
		return err
	}

	if err := h.authService.ClearCart(c.UserContext(), userID); err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"cartData": model.Cart{}})
}

func (h *CartHandler) mutate(c *fiber.Ctx, apply func(context.Context, string, model.CartItemInput) (model.Cart, error)) error {
	userID, err := currentSubject(c)
	if err != nil {
		return err
	}

	var input model.CartItemInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	cart, err := apply(c.UserContext(), userID, input)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": "Cart updated", "cartData": cart})
}
