package http

import (
	"github.com/abisalde/storefront-auth/internal/auth"
	"github.com/abisalde/storefront-auth/internal/auth/cookies"
	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	cookies     cookies.Options
}

func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies: cookies.Options{
			Secure:     secureCookies,
			AccessTTL:  authService.Tokens().AccessTTL(),
			RefreshTTL: authService.Tokens().RefreshTTL(),
		},
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input model.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusCreated, withEmailStatus(fiber.Map{
		"message": res.Message,
		"id":      res.ID,
	}, res.EmailStatus))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input model.LoginInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	tokens, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	cookies.CreateBrowserSession(c, cookies.TokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, h.cookies)

	return success(c, fiber.StatusOK, fiber.Map{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var input model.LoginInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	tokens, err := h.authService.AdminLogin(c.UserContext(), input)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"accessToken": tokens.AccessToken})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	cookies.ClearBrowserSession(c, h.cookies)
	return success(c, fiber.StatusOK, fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	res, err := h.authService.RefreshToken(c.UserContext(), auth.RefreshToken(c))
	if err != nil {
		return err
	}

	cookies.CreateBrowserSession(c, cookies.TokenPair{AccessToken: res.AccessToken}, h.cookies)
	return success(c, fiber.StatusOK, fiber.Map{"accessToken": res.AccessToken})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input model.ForgotPasswordInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.ForgotPassword(c.UserContext(), input.Email)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, withEmailStatus(fiber.Map{"message": res.Message}, res.EmailStatus))
}

func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var input model.VerifyOtpInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.VerifyOtp(c.UserContext(), input)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"message":    res.Message,
		"resetToken": res.ResetToken,
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input model.ResetPasswordInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.ResetPassword(c.UserContext(), input)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": res.Message})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	res, err := h.authService.VerifyEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": res.Message})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var input model.ForgotPasswordInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := h.authService.ResendVerification(c.UserContext(), input.Email)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, withEmailStatus(fiber.Map{"message": res.Message}, res.EmailStatus))
}
