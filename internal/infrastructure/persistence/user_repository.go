package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, email, name, password, role, created_date, last_modified_date"

func scanUser(row Scannable) (*models.User, error) {
	var u models.User
	var password sql.NullString
	var createdRaw, modifiedRaw []byte
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &password, &u.Role, &createdRaw, &modifiedRaw); err != nil {
		return nil, err
	}
	u.Password = password.String
	u.CreatedDate = parseTime(createdRaw)
	u.LastModifiedDate = parseTime(modifiedRaw)
	return &u, nil
}

// GetByEmail retrieves a user by email, nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = ? LIMIT 1", userColumns, constants.TableUser)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by id, nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", userColumns, constants.TableUser)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_date DESC", userColumns, constants.TableUser)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Insert creates a new user row.
func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, name, password, role, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`,
		constants.TableUser)

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.Password, u.Role)
	return err
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET password = ?, last_modified_date = NOW() WHERE id = ?",
		constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// CountByRole returns user counts grouped by role, for the admin overview.
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	query := fmt.Sprintf("SELECT role, COUNT(*) FROM %s GROUP BY role", constants.TableUser)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}
