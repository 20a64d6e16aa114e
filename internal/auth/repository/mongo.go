package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abisalde/storefront-auth/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument keeps the field names of the storefront's existing users
// collection so both services can share it.
type userDocument struct {
	ID                  primitive.ObjectID        `bson:"_id,omitempty"`
	Name                string                    `bson:"name"`
	Email               string                    `bson:"email"`
	Password            string                    `bson:"password"`
	IsVerified          bool                      `bson:"isVerified"`
	VerificationToken   *string                   `bson:"verificationToken,omitempty"`
	ResetPasswordToken  *string                   `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time                `bson:"resetPasswordExpire,omitempty"`
	ForgotPasswordOTP   *string                   `bson:"forgot_password_otp,omitempty"`
	ForgotPasswordExp   *time.Time                `bson:"forgot_password_expiry,omitempty"`
	CartData            map[string]map[string]int `bson:"cartData"`
	Status              string                    `bson:"status"`
	LastLoginDate       *time.Time                `bson:"last_login_date,omitempty"`
	CreatedAt           time.Time                 `bson:"createdAt"`
	UpdatedAt           time.Time                 `bson:"updatedAt"`
}

func (d *userDocument) toModel() *model.User {
	cart := model.Cart(d.CartData)
	if cart == nil {
		cart = model.Cart{}
	}
	status := model.UserStatus(d.Status)
	if status == "" {
		status = model.UserStatusActive
	}
	return &model.User{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Email:             d.Email,
		PasswordHash:      d.Password,
		IsVerified:        d.IsVerified,
		VerificationToken: d.VerificationToken,
		ResetToken:        d.ResetPasswordToken,
		ResetTokenExpiry:  d.ResetPasswordExpire,
		OTP:               d.ForgotPasswordOTP,
		OTPExpiry:         d.ForgotPasswordExp,
		Cart:              cart,
		Status:            status,
		LastLoginAt:       d.LastLoginDate,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type mongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(coll *mongo.Collection) UserRepository {
	return &mongoUserRepository{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique email index the store relies on for
// duplicate detection.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "verificationToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("verification_token"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) Create(ctx context.Context, input model.NewUser) (*model.User, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:         primitive.NewObjectID(),
		Name:       input.Name,
		Email:      NormalizeEmail(input.Email),
		Password:   input.PasswordHash,
		IsVerified: false,
		CartData:   map[string]map[string]int{},
		Status:     string(model.UserStatusActive),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.VerificationTokenHash != "" {
		token := input.VerificationTokenHash
		doc.VerificationToken = &token
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *mongoUserRepository) GetByVerificationToken(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"verificationToken": tokenHash})
}

func (r *mongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": NormalizeEmail(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (r *mongoUserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": r.now().UTC()},
		"$unset": bson.M{"verificationToken": ""},
	})
}

func (r *mongoUserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"verificationToken": tokenHash, "updatedAt": r.now().UTC()},
	})
}

func (r *mongoUserRepository) SetOTP(ctx context.Context, id, otpHash string, expiry time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"forgot_password_otp":    otpHash,
			"forgot_password_expiry": expiry.UTC(),
			"updatedAt":              r.now().UTC(),
		},
	})
}

func (r *mongoUserRepository) ClearOTP(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"updatedAt": r.now().UTC()},
		"$unset": bson.M{"forgot_password_otp": "", "forgot_password_expiry": ""},
	})
}

func (r *mongoUserRepository) ExchangeOTP(ctx context.Context, id, otpHash string, now time.Time, tokenHash string, expiry time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidOTP
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"_id":                    oid,
			"forgot_password_otp":    otpHash,
			"forgot_password_expiry": bson.M{"$gt": now.UTC()},
		},
		bson.M{
			"$set": bson.M{
				"resetPasswordToken":  tokenHash,
				"resetPasswordExpire": expiry.UTC(),
				"updatedAt":           r.now().UTC(),
			},
			"$unset": bson.M{"forgot_password_otp": "", "forgot_password_expiry": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("exchange otp: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrInvalidOTP
	}
	return nil
}

func (r *mongoUserRepository) ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidResetToken
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"_id":                 oid,
			"resetPasswordToken":  tokenHash,
			"resetPasswordExpire": bson.M{"$gt": now.UTC()},
		},
		bson.M{
			"$set":   bson.M{"password": passwordHash, "updatedAt": r.now().UTC()},
			"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrInvalidResetToken
	}
	return nil
}

func (r *mongoUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": r.now().UTC()},
	})
}

func (r *mongoUserRepository) UpdateLoginTime(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"last_login_date": at.UTC(), "updatedAt": r.now().UTC()},
	})
}

func (r *mongoUserRepository) UpdateCart(ctx context.Context, id string, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	if err := cart.Validate(); err != nil {
		return err
	}
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"cartData": map[string]map[string]int(cart), "updatedAt": r.now().UTC()},
	})
}

func (r *mongoUserRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"status": string(status), "updatedAt": r.now().UTC()},
	})
}

func (r *mongoUserRepository) FindAllUsers(ctx context.Context, pagination *model.PaginationInput) (*model.UserPage, error) {
	limit, after := validatePagination(pagination)

	filter := bson.M{}
	if after != "" {
		oid, err := primitive.ObjectIDFromHex(after)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit + 1))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*model.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return buildUserPage(users, limit), nil
}

func (r *mongoUserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
