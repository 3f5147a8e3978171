package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"heatpump_monitor/internal/models"
)

// ErrUsernameTaken is returned by Create when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ Authorization = (*UserRepository)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
)

// Create inserts an operator account and returns its ID.
func (r *UserRepository) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(insertUserSQL, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", username, ErrUsernameTaken)
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername returns (nil, nil) if the user does not exist.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}

// modernc sqlite reports constraint failures only through the message text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
