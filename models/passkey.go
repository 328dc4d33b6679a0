package models

import (
	"database/sql"
	"fmt"
	"time"
)

// RegisteredPasskey records a passkey credential a user created for share
// recovery. The credential id is stored base64url-encoded.
type RegisteredPasskey struct {
	CredentialID string
	UserID       string
	DisplayName  string
	CreatedAt    time.Time
}

// SavePasskey inserts or replaces a registered passkey.
func SavePasskey(db *sql.DB, passkey *RegisteredPasskey) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO passkeys (credential_id, user_id, display_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		passkey.CredentialID, passkey.UserID, passkey.DisplayName, passkey.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save passkey: %w", err)
	}
	return nil
}

// ListUserPasskeys returns a user's registered passkeys, newest first.
func ListUserPasskeys(db *sql.DB, userID string) ([]RegisteredPasskey, error) {
	rows, err := db.Query(
		`SELECT credential_id, user_id, display_name, created_at
		 FROM passkeys WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list passkeys: %w", err)
	}
	defer rows.Close()

	var passkeys []RegisteredPasskey
	for rows.Next() {
		var pk RegisteredPasskey
		if err := rows.Scan(&pk.CredentialID, &pk.UserID, &pk.DisplayName, &pk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan passkey: %w", err)
		}
		passkeys = append(passkeys, pk)
	}
	return passkeys, rows.Err()
}
