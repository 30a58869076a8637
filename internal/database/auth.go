package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"labtrack/internal/logger"
	"labtrack/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrCSRFNotFound    = errors.New("CSRF token not found or expired")
)

const (
	csrfTokenLifetime = 1 * time.Hour
	lastSeenInterval  = 5 * time.Minute
)

func CreateSession(db *sql.DB, username, userAgent string, sessionDuration time.Duration) (*models.Session, error) {
	sessionID, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(sessionDuration)

	query := `
		INSERT INTO sessions (id, username, expires_at, created_at, user_agent)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = db.Exec(query, sessionID, username, expiresAt, now, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		Username:  username,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateSession returns the username owning a live session and slides its
// expiry forward.
func ValidateSession(db *sql.DB, sessionID string, sessionDuration time.Duration) (string, error) {
	var username string
	query := `SELECT username FROM sessions WHERE id = ? AND expires_at > ?`

	err := db.QueryRow(query, sessionID, time.Now().UTC()).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to validate session: %w", err)
	}

	if err := touchLastSeen(db, username); err != nil {
		logger.Warn("Failed to update last_seen",
			"username", username,
			"error", err)
	}

	err = RenewSession(db, sessionID, sessionDuration)
	if err != nil {
		logger.Warn("Failed to renew session",
			"session_id", sessionID,
			"error", err)
	}

	return username, nil
}

func RenewSession(db *sql.DB, sessionID string, sessionDuration time.Duration) error {
	newExpiresAt := time.Now().UTC().Add(sessionDuration)

	_, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, newExpiresAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	return nil
}

func DeleteSession(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions logs a user out everywhere.
func DeleteUserSessions(db *sql.DB, username string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete sessions for user: %w", err)
	}
	_, err = db.Exec(`DELETE FROM csrf_tokens WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete CSRF tokens for user: %w", err)
	}
	return nil
}

func CleanupExpiredSessions(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return nil
}

func CreateCSRFToken(db *sql.DB, username string) (*models.CSRFToken, error) {
	token, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF token: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(csrfTokenLifetime)

	query := `
		INSERT INTO csrf_tokens (token, username, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = db.Exec(query, token, username, expiresAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSRF token: %w", err)
	}

	return &models.CSRFToken{
		Token:     token,
		Username:  username,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateCSRFToken checks and consumes a token; each token is good for one
// request.
func ValidateCSRFToken(db *sql.DB, token, username string) error {
	query := `
		SELECT 1
		FROM csrf_tokens
		WHERE token = ? AND username = ? AND expires_at > ?
	`

	var exists int
	err := db.QueryRow(query, token, username, time.Now().UTC()).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrCSRFNotFound
		}
		return fmt.Errorf("failed to validate CSRF token: %w", err)
	}

	_, err = db.Exec(`DELETE FROM csrf_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete used CSRF token: %w", err)
	}

	return nil
}

func CleanupExpiredCSRFTokens(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM csrf_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to cleanup expired CSRF tokens: %w", err)
	}
	return nil
}

func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
