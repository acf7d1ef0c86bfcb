package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"uservault/internal/users/models"
	"uservault/pkg/platform/sentinel"
	txcontext "uservault/pkg/platform/tx"
)

// PostgresUserStore persists user records in PostgreSQL. Statements pick up
// a transaction from context when the service runs inside RunInTx, so
// check-then-act sequences stay atomic per id.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresUserStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the users table and its owner indexes. The seq column
// captures insertion order for deterministic sort tie-breaks.
func (s *PostgresUserStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			seq BIGSERIAL NOT NULL,
			name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			birthday DATE NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			owner TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS users_owner_idx ON users (owner);
		CREATE INDEX IF NOT EXISTS users_owner_birthday_idx ON users (owner, birthday);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

const userColumns = `id, name, last_name, email, birthday, phone_number, address, owner`

func (s *PostgresUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id), "find user by id")
}

func (s *PostgresUserStore) FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND owner = $2`
	// Inside a transaction the row is locked so a concurrent delete cannot
	// slip in between this read and a following write.
	if _, ok := txcontext.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id, owner), "find user by id and owner")
}

func (s *PostgresUserStore) ExistsByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND owner = $2)`
	var exists bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, id, owner).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresUserStore) Save(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			birthday = EXCLUDED.birthday,
			phone_number = EXCLUDED.phone_number,
			address = EXCLUDED.address
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.LastName,
		user.Email,
		user.Birthday,
		user.PhoneNumber,
		user.Address,
		user.Owner,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) ListByOwner(ctx context.Context, owner string, page Page) ([]*models.User, error) {
	page = page.Normalize()

	direction := "ASC"
	if page.Sort.Desc {
		direction = "DESC"
	}
	// Column resolved through a fixed map, never interpolated from input.
	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users WHERE owner = $1 ORDER BY %s %s, seq ASC LIMIT $2 OFFSET $3`,
		sortColumn(page.Sort.Field), direction,
	)

	rows, err := s.execer(ctx).QueryContext(ctx, query, owner, page.Size, page.Number*page.Size)
	if err != nil {
		return nil, fmt.Errorf("list users by owner: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows, "list users by owner")
}

func (s *PostgresUserStore) ListByOwnerAndBirthdayBetween(ctx context.Context, owner string, start, end models.Date) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE owner = $1 AND birthday BETWEEN $2 AND $3
		ORDER BY birthday ASC, seq ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list users by birthday range: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows, "list users by birthday range")
}

func sortColumn(field SortField) string {
	switch field {
	case SortByLastName:
		return "last_name"
	case SortByEmail:
		return "email"
	case SortByBirthday:
		return "birthday"
	default:
		return "name"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.LastName,
		&u.Email,
		&u.Birthday,
		&u.PhoneNumber,
		&u.Address,
		&u.Owner,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresUserStore) scanOne(row *sql.Row, op string) (*models.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUsers(rows *sql.Rows, op string) ([]*models.User, error) {
	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
