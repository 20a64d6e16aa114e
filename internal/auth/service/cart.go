package service

import (
	"context"
	"errors"

	"github.com/abisalde/storefront-auth/internal/auth/repository"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/internal/model"
)

func (s *AuthService) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	user, err := s.cartOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return model.Cart{}, nil
	}
	return user.Cart, nil
}

// AddToCart bumps the quantity of one size by one.
func (s *AuthService) AddToCart(ctx context.Context, userID string, input model.CartItemInput) (model.Cart, error) {
	if err := validateCartItem(input); err != nil {
		return nil, err
	}
	return s.mutateCart(ctx, userID, func(c model.Cart) {
		c.Add(input.ItemID, input.Size)
	})
}

func (s *AuthService) UpdateCart(ctx context.Context, userID string, input model.CartItemInput) (model.Cart, error) {
	if err := validateCartItem(input); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, customErrors.InvalidCartItem
	}
	return s.mutateCart(ctx, userID, func(c model.Cart) {
		c.Set(input.ItemID, input.Size, input.Quantity)
	})
}

func (s *AuthService) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.cartOwner(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateCart(ctx, userID, model.Cart{}); err != nil {
		return customErrors.InternalServerError(err, "clear cart %s", userID)
	}
	return nil
}

func (s *AuthService) mutateCart(ctx context.Context, userID string, apply func(model.Cart)) (model.Cart, error) {
	user, err := s.cartOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := user.Cart.Clone()
	apply(cart)

	if err := s.userRepo.UpdateCart(ctx, userID, cart); err != nil {
		return nil, customErrors.InternalServerError(err, "update cart %s", userID)
	}
	return cart, nil
}

func (s *AuthService) cartOwner(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, customErrors.UserNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "cart: lookup %s", userID)
	}
	return user, nil
}

func validateCartItem(input model.CartItemInput) error {
	if model.ValidateCartKey(input.ItemID) != nil || model.ValidateCartKey(input.Size) != nil {
		return customErrors.InvalidCartItem
	}
	return nil
}
