package database

import (
	"database/sql"
	"fmt"
	"time"
)

type AdminStats struct {
	ActiveSessions int `json:"active_sessions"`
	ActiveUsers    int `json:"active_users"`
}

// GetAdminStats counts live sessions and the users seen within 30 days.
func GetAdminStats(db *sql.DB) (*AdminStats, error) {
	stats := &AdminStats{}
	now := time.Now().UTC()

	err := db.QueryRow("SELECT COUNT(*) FROM sessions WHERE expires_at > ?", now).Scan(&stats.ActiveSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to get session count: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM user_activity WHERE last_seen > ?", now.AddDate(0, 0, -30)).Scan(&stats.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get active user count: %w", err)
	}

	return stats, nil
}

// GetLastSeen maps every username that ever held a session to its last
// recorded activity.
func GetLastSeen(db *sql.DB) (map[string]time.Time, error) {
	rows, err := db.Query(`SELECT username, last_seen FROM user_activity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user activity: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]time.Time)
	for rows.Next() {
		var username string
		var lastSeen time.Time
		if err := rows.Scan(&username, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan user activity: %w", err)
		}
		seen[username] = lastSeen
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user activity: %w", err)
	}

	return seen, nil
}

// ForgetUser drops the sessions and activity of a deleted account.
func ForgetUser(db *sql.DB, username string) error {
	if err := DeleteUserSessions(db, username); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM user_activity WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user activity: %w", err)
	}
	return nil
}

// touchLastSeen writes at most once per lastSeenInterval per user.
func touchLastSeen(db *sql.DB, username string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO user_activity (username, last_seen) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET last_seen = excluded.last_seen
		WHERE user_activity.last_seen < ?
	`
	_, err := db.Exec(query, username, now, now.Add(-lastSeenInterval))
	return err
}
