package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/loveos/couple-api/internal/core/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, username, password_hash, role, display_name, partner_id,
		anniversary_date, relationship_start, created_at, updated_at`

// UserRepository implements ports.UserRepository on PostgreSQL. A NULL
// partner_id is exposed as "".
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (id, username, password_hash, role, display_name, partner_id,
		anniversary_date, relationship_start, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	created := *user
	created.ID = uuid.NewString()

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		created.ID, created.Username, created.PasswordHash, created.Role, created.DisplayName,
		nullable(created.PartnerID), created.AnniversaryDate, created.RelationshipStart,
		created.CreatedAt, created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// UpdatePartner is a compare-and-set on partner_id.
func (r *UserRepository) UpdatePartner(ctx context.Context, userID, expected, next string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return domain.ErrUserNotFound
	}

	query := `UPDATE users SET partner_id = $1, updated_at = $2
		WHERE id = $3 AND partner_id IS NOT DISTINCT FROM $4::uuid`

	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		nullable(next), time.Now().UTC(), userID, nullable(expected))
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if n == 0 {
		return domain.ErrLinkConflict
	}
	return nil
}

func (r *UserRepository) ListLinked(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE partner_id IS NOT NULL ORDER BY id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		partnerID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.DisplayName, &partnerID,
		&u.AnniversaryDate, &u.RelationshipStart, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PartnerID = partnerID.String
	return &u, nil
}

func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}
