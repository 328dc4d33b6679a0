package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an account the session service can issue encryption sessions for.
type User struct {
	ID                  string
	Email               string
	DisplayName         string
	TOTPSecretEncrypted []byte
	TOTPEnabled         bool
	CreatedAt           time.Time
}

// CreateUser inserts a new user with a generated id.
func CreateUser(db *sql.DB, email, displayName string) (*User, error) {
	user := &User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO users (id, email, display_name, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID loads a user by id.
func GetUserByID(db *sql.DB, id string) (*User, error) {
	user := &User{}
	err := db.QueryRow(
		`SELECT id, email, display_name, totp_secret_encrypted, totp_enabled, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.TOTPSecretEncrypted, &user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetTOTPSecret stores the encrypted TOTP secret for a user. Enrollment is
// not enabled until the first code verifies.
func SetTOTPSecret(db *sql.DB, userID string, secretEncrypted []byte) error {
	result, err := db.Exec(
		`UPDATE users SET totp_secret_encrypted = ?, totp_enabled = 0 WHERE id = ?`,
		secretEncrypted, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to store TOTP secret: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// EnableTOTP marks a user's TOTP enrollment as verified.
func EnableTOTP(db *sql.DB, userID string) error {
	if _, err := db.Exec(`UPDATE users SET totp_enabled = 1 WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}
	return nil
}
