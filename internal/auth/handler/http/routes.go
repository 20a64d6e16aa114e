package http

import (
	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the storefront API. limiter guards the endpoints
// that accept credentials or send mail.
func RegisterRoutes(app fiber.Router, authService *service.AuthService, cfg *configs.Config, limiter fiber.Handler) {
	authHandler := NewAuthHandler(authService, cfg.App.CookieSecure)
	profileHandler := NewProfileHandler(authService)
	cartHandler := NewCartHandler(authService)
	usersHandler := NewUsersHandler(authService)

	userAuth := middleware.UserAuth(authService.Tokens())
	adminAuth := middleware.AdminAuth(authService.Tokens(), cfg.Admin.Email)

	user := app.Group("/api/user")
	user.Post("/register", limiter, authHandler.Register)
	user.Post("/login", limiter, authHandler.Login)
	user.Post("/admin", limiter, authHandler.AdminLogin)
	user.Post("/logout", authHandler.Logout)
	user.Post("/forgot-password", limiter, authHandler.ForgotPassword)
	user.Post("/verify-otp", limiter, authHandler.VerifyOtp)
	user.Post("/reset-password", limiter, authHandler.ResetPassword)
	user.Post("/refresh-token", authHandler.RefreshToken)
	user.Post("/resend-verification", limiter, authHandler.ResendVerification)
	user.Get("/verify-email", authHandler.VerifyEmail)
	user.Get("/me", userAuth, profileHandler.GetUserProfile)
	user.Post("/change-password", userAuth, profileHandler.HandlePasswordChange)

	legacy := app.Group("/api/auth")
	legacy.Post("/refresh-token", authHandler.RefreshToken)
	legacy.Post("/forgot-password", limiter, authHandler.ForgotPassword)
	legacy.Post("/verify-forgot-password-otp", limiter, authHandler.VerifyOtp)
	legacy.Post("/reset-password", limiter, authHandler.ResetPassword)

	cart := app.Group("/api/cart", userAuth)
	cart.Post("/get", cartHandler.Get)
	cart.Post("/add", cartHandler.Add)
	cart.Post("/update", cartHandler.Update)
	cart.Post("/clear", cartHandler.Clear)

	admin := app.Group("/api/admin", adminAuth)
	admin.Get("/users", usersHandler.ListUsers)
	admin.Patch("/users/:id/status", usersHandler.UpdateStatus)
}
