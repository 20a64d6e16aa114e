package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abisalde/storefront-auth/internal/model"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const userColumns = `id, name, email, password_hash, is_verified, verification_token,
	reset_token, reset_token_expiry, otp, otp_expiry, cart_data, status,
	last_login_at, created_at, updated_at`

const mysqlDuplicateEntry = 1062

type sqlUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLUserRepository works against both MySQL and SQLite; the queries stick
// to the dialect subset the two share.
func NewSQLUserRepository(db *sql.DB) UserRepository {
	return &sqlUserRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                 model.User
		verificationToken sql.NullString
		resetToken        sql.NullString
		resetExpiry       sql.NullTime
		otp               sql.NullString
		otpExpiry         sql.NullTime
		cartData          string
		status            string
		lastLogin         sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsVerified, &verificationToken,
		&resetToken, &resetExpiry, &otp, &otpExpiry, &cartData, &status,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.VerificationToken = nullString(verificationToken)
	u.ResetToken = nullString(resetToken)
	u.ResetTokenExpiry = nullTime(resetExpiry)
	u.OTP = nullString(otp)
	u.OTPExpiry = nullTime(otpExpiry)
	u.LastLoginAt = nullTime(lastLogin)
	u.Status = model.UserStatus(status)

	u.Cart = model.Cart{}
	if cartData != "" {
		if err := json.Unmarshal([]byte(cartData), &u.Cart); err != nil {
			return nil, fmt.Errorf("decode cart for user %s: %w", u.ID, err)
		}
	}

	return &u, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return false
}

func (r *sqlUserRepository) Create(ctx context.Context, input model.NewUser) (*model.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	now := r.now().UTC()

	u := &model.User{
		ID:           id.String(),
		Name:         input.Name,
		Email:        NormalizeEmail(input.Email),
		PasswordHash: input.PasswordHash,
		Cart:         model.Cart{},
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.VerificationTokenHash != "" {
		token := input.VerificationTokenHash
		u.VerificationToken = &token
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_verified, verification_token,
			cart_data, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, false,
		sql.NullString{String: input.VerificationTokenHash, Valid: input.VerificationTokenHash != ""},
		"{}", string(u.Status), now, now,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *sqlUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *sqlUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, NormalizeEmail(email))
	return scanUser(row)
}

func (r *sqlUserRepository) GetByVerificationToken(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, ErrUserNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = ?`, tokenHash)
	return scanUser(row)
}

func (r *sqlUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, NormalizeEmail(email)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (r *sqlUserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE users SET is_verified = ?, verification_token = NULL, updated_at = ? WHERE id = ?`,
		true, r.now().UTC(), id)
}

func (r *sqlUserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string) error {
	return r.update(ctx, `UPDATE users SET verification_token = ?, updated_at = ? WHERE id = ?`,
		tokenHash, r.now().UTC(), id)
}

func (r *sqlUserRepository) SetOTP(ctx context.Context, id, otpHash string, expiry time.Time) error {
	return r.update(ctx, `UPDATE users SET otp = ?, otp_expiry = ?, updated_at = ? WHERE id = ?`,
		otpHash, expiry.UTC(), r.now().UTC(), id)
}

func (r *sqlUserRepository) ClearOTP(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE users SET otp = NULL, otp_expiry = NULL, updated_at = ? WHERE id = ?`,
		r.now().UTC(), id)
}

func (r *sqlUserRepository) ExchangeOTP(ctx context.Context, id, otpHash string, now time.Time, tokenHash string, expiry time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token = ?, reset_token_expiry = ?, otp = NULL, otp_expiry = NULL, updated_at = ?
		WHERE id = ? AND otp = ? AND otp_expiry > ?`,
		tokenHash, expiry.UTC(), r.now().UTC(), id, otpHash, now.UTC())
	if err != nil {
		return fmt.Errorf("exchange otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("exchange otp: %w", err)
	}
	if n == 0 {
		return ErrInvalidOTP
	}
	return nil
}

func (r *sqlUserRepository) ConsumeResetToken(ctx context.Context, id, tokenHash string, now time.Time, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_token_expiry = NULL, updated_at = ?
		WHERE id = ? AND reset_token = ? AND reset_token_expiry > ?`,
		passwordHash, r.now().UTC(), id, tokenHash, now.UTC())
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if n == 0 {
		return ErrInvalidResetToken
	}
	return nil
}

func (r *sqlUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, r.now().UTC(), id)
}

func (r *sqlUserRepository) UpdateLoginTime(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), r.now().UTC(), id)
}

func (r *sqlUserRepository) UpdateCart(ctx context.Context, id string, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	if err := cart.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return r.update(ctx, `UPDATE users SET cart_data = ?, updated_at = ? WHERE id = ?`,
		string(data), r.now().UTC(), id)
}

func (r *sqlUserRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	return r.update(ctx, `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), r.now().UTC(), id)
}

func (r *sqlUserRepository) FindAllUsers(ctx context.Context, pagination *model.PaginationInput) (*model.UserPage, error) {
	limit, after := validatePagination(pagination)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id > ? ORDER BY id ASC LIMIT ?`,
		after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return buildUserPage(users, limit), nil
}

func (r *sqlUserRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
