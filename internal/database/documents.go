package database

import (
	"database/sql"
	"fmt"
	"time"

	"labtrack/internal/store"
)

// DocumentBackend keeps Record Store documents as rows of the documents
// table, one row per entity name.
type DocumentBackend struct {
	db *sql.DB
}

func NewDocumentBackend(db *sql.DB) *DocumentBackend {
	return &DocumentBackend{db: db}
}

func (b *DocumentBackend) Read(name string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRow(`SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return body, nil
}

func (b *DocumentBackend) Write(name string, data []byte) error {
	query := `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	_, err := b.db.Exec(query, name, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	return nil
}
