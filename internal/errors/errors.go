package errors

import "github.com/abisalde/storefront-auth/internal/model"

var (
	EmailExists        = NewTypedError("User already exists", model.ErrorTypeConflict)
	AlreadyVerified    = NewTypedError("Email is already verified", model.ErrorTypeConflict)
	InvalidCredentials = NewTypedError("Invalid email or password", model.ErrorTypeInvalidCredentials)
	UserNotFound       = NewTypedError("User not found", model.ErrorTypeNotFound)
	OTPExpired         = NewTypedError("OTP has expired", model.ErrorTypeExpired)
	InvalidOTP         = NewTypedError("Invalid OTP", model.ErrorTypeInvalidOtp)
	TooManyOTPAttempts = NewTypedError("Too many invalid attempts. Request a new OTP", model.ErrorTypeTooManyAttempts)
	ResetGrantExpired  = NewTypedError("Password reset session has expired. Verify the OTP again", model.ErrorTypeExpired)
	InvalidResetToken  = NewTypedError("Invalid or already used reset token", model.ErrorTypeInvalidToken)
	InvalidVerifyToken = NewTypedError("Invalid or expired verification token", model.ErrorTypeInvalidToken)
	PasswordMismatch   = NewTypedError("New password and confirm password must be the same", model.ErrorTypeMismatch)
	ShortPassword      = NewTypedError("Password must be at least 8 characters long", model.ErrorTypeValidation)
	LongPassword       = NewTypedError("Password must be at most 72 bytes long", model.ErrorTypeValidation)
	InvalidEmail       = NewTypedError("Please enter a valid email", model.ErrorTypeValidation)
	MissingFields      = NewTypedError("Please provide all required fields", model.ErrorTypeValidation)
	InvalidCartItem    = NewTypedError("Invalid cart item", model.ErrorTypeValidation)
	InvalidStatus      = NewTypedError("Invalid account status", model.ErrorTypeValidation)
	InvalidCursor      = NewTypedError("Invalid pagination cursor", model.ErrorTypeValidation)
	NotAuthorized      = NewTypedError("Not Authorized. Login Again", model.ErrorTypeUnauthorized)
	RefreshTokenNeeded = NewTypedError("Refresh token is required", model.ErrorTypeUnauthorized)
	AccountSuspended   = NewTypedError("Your account has been suspended. Contact support", model.ErrorTypeAccountSuspended)
	EmailNotVerified   = NewTypedError("Please verify your email before logging in", model.ErrorTypeEmailNotVerified)
	RateLimitExceeded  = NewTypedError("Too many attempts. Please try again later.", model.ErrorTypeRateLimited)
	SomethingWentWrong = NewTypedError("Something went wrong! Please try again", model.ErrorTypeServer)
)
