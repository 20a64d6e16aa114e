package model

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

type VerifyOtpInput struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordInput struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
	ResetToken      string `json:"resetToken"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type CartItemInput struct {
	ItemID   string `json:"itemId"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type UpdateStatusInput struct {
	Status string `json:"status"`
}

// EmailStatus reports the outcome of the mail dispatch attached to an
// operation. Empty means delivered.
type EmailStatus string

const (
	EmailStatusSent           EmailStatus = ""
	EmailStatusDeliveryFailed EmailStatus = "EmailDeliveryFailed"
)

type RegisterResponse struct {
	ID          string      `json:"id"`
	Message     string      `json:"message"`
	EmailStatus EmailStatus `json:"emailStatus,omitempty"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type MessageResponse struct {
	Message     string      `json:"message"`
	EmailStatus EmailStatus `json:"emailStatus,omitempty"`
}

type VerifyOtpResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}
