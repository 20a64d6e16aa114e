package repository

import (
	"context"
	"testing"
	"time"

	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func userDoc(id primitive.ObjectID, email string) bson.D {
	now := time.Now().UTC()
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Alice"},
		{Key: "email", Value: email},
		{Key: "password", Value: "$2a$04$hash"},
		{Key: "isVerified", Value: false},
		{Key: "verificationToken", Value: "vt-digest"},
		{Key: "cartData", Value: bson.D{{Key: "prod-1", Value: bson.D{{Key: "M", Value: int32(2)}}}}},
		{Key: "status", Value: "Active"},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(context.Background(), model.NewUser{
			Name:                  "Alice",
			Email:                 "Alice@Example.com",
			PasswordHash:          "hash",
			VerificationTokenHash: "vt-digest",
		})
		require.NoError(mt, err)
		assert.Len(mt, u.ID, 24)
		assert.Equal(mt, "alice@example.com", u.Email)
		assert.Equal(mt, model.UserStatusActive, u.Status)
		require.NotNil(mt, u.VerificationToken)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: ecommerce.users index: email_unique",
		}))

		_, err := repo.Create(context.Background(), model.NewUser{Name: "Alice", Email: "alice@example.com"})
		assert.ErrorIs(mt, err, ErrEmailExists)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecommerce.users", mtest.FirstBatch, userDoc(id, "alice@example.com")))

		u, err := repo.GetByEmail(context.Background(), "ALICE@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), u.ID)
		assert.Equal(mt, "$2a$04$hash", u.PasswordHash)
		assert.Equal(mt, model.Cart{"prod-1": {"M": 2}}, u.Cart)
		assert.Nil(mt, u.OTP)
	})

	mt.Run("get by email missing", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecommerce.users", mtest.FirstBatch))

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("get by malformed id", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)

		_, err := repo.GetByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("update matched", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.SetOTP(context.Background(), primitive.NewObjectID().Hex(), "otp-digest", time.Now().Add(time.Hour))
		assert.NoError(mt, err)
	})

	mt.Run("update unmatched", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ClearOTP(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("exchange otp already redeemed", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ExchangeOTP(context.Background(), primitive.NewObjectID().Hex(), "otp-digest", time.Now(), "grant", time.Now().Add(time.Minute))
		assert.ErrorIs(mt, err, ErrInvalidOTP)
	})

	mt.Run("exchange otp", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.ExchangeOTP(context.Background(), primitive.NewObjectID().Hex(), "otp-digest", time.Now(), "grant", time.Now().Add(time.Minute))
		assert.NoError(mt, err)
	})

	mt.Run("consume reset token used", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ConsumeResetToken(context.Background(), primitive.NewObjectID().Hex(), "grant", time.Now(), "new-hash")
		assert.ErrorIs(mt, err, ErrInvalidResetToken)
	})

	mt.Run("consume reset token", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.ConsumeResetToken(context.Background(), primitive.NewObjectID().Hex(), "grant", time.Now(), "new-hash")
		assert.NoError(mt, err)
	})

	mt.Run("find all users", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		first := primitive.NewObjectID()
		second := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecommerce.users", mtest.FirstBatch,
			userDoc(first, "a@example.com"),
			userDoc(second, "b@example.com"),
		))

		limit := 1
		page, err := repo.FindAllUsers(context.Background(), &model.PaginationInput{Limit: &limit})
		require.NoError(mt, err)
		require.Len(mt, page.Users, 1)
		assert.True(mt, page.HasNextPage)
		require.NotNil(mt, page.NextCursor)
		assert.Equal(mt, first.Hex(), *page.NextCursor)
	})

	mt.Run("find all users bad cursor", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		after := "zzz"

		_, err := repo.FindAllUsers(context.Background(), &model.PaginationInput{After: &after})
		assert.ErrorIs(mt, err, ErrInvalidCursor)
	})
}
