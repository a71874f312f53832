package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/core/port"
	"github.com/itoshi/membership-service/internal/repository"
)

const uniqueViolationCode = "23505"

var userColumns = []string{
	"id",
	"username",
	"email",
	"phone",
	"password_hash",
	"referral_code",
	"referred_by",
	"balance",
	"referral_count",
	"level",
	"is_active",
	"created_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	var phoneValue any
	if user.Phone != nil && *user.Phone != "" {
		phoneValue = *user.Phone
	}

	var referredByValue any
	if user.ReferredBy != nil {
		referredByValue = *user.ReferredBy
	}

	stmt, args, err := r.builder.Insert("membership.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			phoneValue,
			user.PasswordHash,
			user.ReferralCode,
			referredByValue,
			user.Balance,
			user.ReferralCount,
			user.Level,
			user.IsActive,
			user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("membership.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmailOrUsername retrieves a user colliding with either field.
func (r *UserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("membership.users").
		Where(squirrel.Or{
			squirrel.Eq{"email": email},
			squirrel.Eq{"username": username},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by identity sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByReferralCode resolves a referral code to its owner.
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("membership.users").
		Where(squirrel.Eq{"referral_code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by referral code sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// Update writes the mutable ledger fields back. Identity fields are immutable.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("membership.users").
		Set("balance", user.Balance).
		Set("referral_count", user.ReferralCount).
		Set("level", user.Level).
		Set("is_active", user.IsActive).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListReferrals returns users directly referred by userID, oldest first.
func (r *UserRepository) ListReferrals(ctx context.Context, userID string) ([]domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("membership.users").
		Where(squirrel.Eq{"referred_by": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list referrals sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", err)
	}

	return users, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		phone      sql.NullString
		referredBy sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&phone,
		&user.PasswordHash,
		&user.ReferralCode,
		&referredBy,
		&user.Balance,
		&user.ReferralCount,
		&user.Level,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if phone.Valid {
		val := phone.String
		user.Phone = &val
	}
	if referredBy.Valid {
		val := referredBy.String
		user.ReferredBy = &val
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
