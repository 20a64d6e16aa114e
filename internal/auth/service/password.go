package service

import (
	"context"
	"errors"
	"strings"

	"github.com/abisalde/storefront-auth/internal/auth/repository"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/abisalde/storefront-auth/pkg/verification"
)

// ForgotPassword replaces any pending OTP and resets its attempt counter.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*model.MessageResponse, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	otp, err := verification.GenerateOTP()
	if err != nil {
		return nil, customErrors.InternalServerError(err, "forgot password: generate otp")
	}

	expiry := s.now().Add(s.cfg.Auth.OTPTTL)
	if err := s.userRepo.SetOTP(ctx, user.ID, s.digests.Hash(otp), expiry); err != nil {
		return nil, customErrors.InternalServerError(err, "forgot password: store otp")
	}
	s.resetOTPAttempts(ctx, user.ID)

	return &model.MessageResponse{
		Message:     "OTP sent to your email",
		EmailStatus: s.dispatch(ctx, s.otpEmail(user, otp)),
	}, nil
}

// VerifyOtp trades a valid OTP for a single-use reset grant. Every attempt
// is counted before the code is compared, and the exchange only succeeds
// while the stored OTP still matches.
func (s *AuthService) VerifyOtp(ctx context.Context, input model.VerifyOtpInput) (*model.VerifyOtpResponse, error) {
	code := strings.TrimSpace(input.OTP)
	if code == "" || strings.TrimSpace(input.Email) == "" {
		return nil, customErrors.MissingFields
	}

	user, err := s.lookupByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if !user.HasPendingOTP() {
		return nil, customErrors.InvalidOTP
	}
	now := s.now()
	if now.After(*user.OTPExpiry) {
		return nil, customErrors.OTPExpired
	}

	attempts, err := s.cache.Increment(ctx, otpAttemptsPrefix+user.ID, user.OTPExpiry.Sub(now))
	if err != nil {
		return nil, customErrors.InternalServerError(err, "verify otp: count attempt")
	}
	if attempts > int64(s.cfg.Auth.OTPMaxAttempts) {
		if err := s.userRepo.ClearOTP(ctx, user.ID); err != nil {
			return nil, customErrors.InternalServerError(err, "verify otp: clear %s", user.ID)
		}
		if attempts == int64(s.cfg.Auth.OTPMaxAttempts)+1 {
			s.log.Warn(ctx, "otp attempts exhausted", "user_id", user.ID)
		}
		return nil, customErrors.TooManyOTPAttempts
	}

	if !s.digests.Verify(code, *user.OTP) {
		return nil, customErrors.InvalidOTP
	}

	grant, err := verification.GenerateToken(verification.TokenBytes)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "verify otp: reset grant")
	}
	err = s.userRepo.ExchangeOTP(ctx, user.ID, *user.OTP, now, s.digests.Hash(grant), now.Add(s.cfg.Auth.ResetGrantTTL))
	if errors.Is(err, repository.ErrInvalidOTP) {
		return nil, customErrors.InvalidOTP
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "verify otp: store grant")
	}
	s.resetOTPAttempts(ctx, user.ID)

	return &model.VerifyOtpResponse{
		Message:    "OTP verified successfully",
		ResetToken: grant,
	}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, input model.ResetPasswordInput) (*model.MessageResponse, error) {
	if input.NewPassword != input.ConfirmPassword {
		return nil, customErrors.PasswordMismatch
	}
	if strings.TrimSpace(input.Email) == "" || input.NewPassword == "" {
		return nil, customErrors.MissingFields
	}
	if err := checkPassword(input.NewPassword); err != nil {
		return nil, err
	}

	user, err := s.lookupByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if !user.HasResetGrant() || input.ResetToken == "" {
		return nil, customErrors.InvalidResetToken
	}
	now := s.now()
	if now.After(*user.ResetTokenExpiry) {
		return nil, customErrors.ResetGrantExpired
	}
	if !s.digests.Verify(input.ResetToken, *user.ResetToken) {
		return nil, customErrors.InvalidResetToken
	}

	hash, err := s.passwords.Hash(input.NewPassword)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "reset password: hash")
	}

	err = s.userRepo.ConsumeResetToken(ctx, user.ID, s.digests.Hash(input.ResetToken), now, hash)
	if errors.Is(err, repository.ErrInvalidResetToken) {
		return nil, customErrors.InvalidResetToken
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "reset password: consume grant")
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return &model.MessageResponse{Message: "Password updated successfully"}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, input model.ChangePasswordInput) (*model.MessageResponse, error) {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return nil, customErrors.MissingFields
	}
	if input.NewPassword != input.ConfirmPassword {
		return nil, customErrors.PasswordMismatch
	}
	if err := checkPassword(input.NewPassword); err != nil {
		return nil, err
	}
	if input.NewPassword == input.CurrentPassword {
		return nil, customErrors.Validation("New password must be different from the current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "change password: lookup %s", userID)
	}

	if err := s.passwords.Check(input.CurrentPassword, user.PasswordHash); err != nil {
		return nil, customErrors.InvalidCredentials
	}

	hash, err := s.passwords.Hash(input.NewPassword)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "change password: hash")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, customErrors.InternalServerError(err, "change password: update %s", user.ID)
	}

	return &model.MessageResponse{Message: "Password updated successfully"}, nil
}

func (s *AuthService) resetOTPAttempts(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, otpAttemptsPrefix+userID); err != nil {
		s.log.Warn(ctx, "failed to reset otp attempts", "user_id", userID, "error", err)
	}
}
