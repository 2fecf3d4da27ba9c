package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

const userColumns = `id, login, password_hash, name, role, created_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a user with the next sequential id and returns the
// stored record.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if strings.TrimSpace(user.Login) == "" || user.PasswordHash == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		id, err := r.helper.nextID(ctx, tx, "users")
		if err != nil {
			return r.mapper.MapError(err)
		}
		_, err = r.helper.ExecTx(ctx, tx, `
			INSERT INTO users (id, login, password_hash, name, role, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			user.Login,
			user.PasswordHash,
			user.Name,
			user.Role,
			formatTime(user.CreatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		user.ID = id
		return nil
	})
	if err != nil {
		return persistence.User{}, err
	}

	user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Second)
	return user, nil
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	if id <= 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByLogin retrieves a user by exact login.
func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (persistence.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE login = ?`, login)
	return r.scanUser(row)
}

// ListUsers returns every user ordered by id.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// CountUsers returns the number of stored users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

func (r *UserRepository) scanUser(row scanner) (persistence.User, error) {
	var (
		user      persistence.User
		createdAt string
	)
	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &user.Name, &user.Role, &createdAt); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return user, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
