// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// change_log.go records admin changes to articles for audit and debugging.
// Each entry captures which article changed, when, and how
// (create/update/delete).
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Change log actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeLogStore handles article change log operations.
type ChangeLogStore struct {
	db DBTX
}

// NewChangeLogStore creates a new ChangeLogStore.
func NewChangeLogStore(db DBTX) *ChangeLogStore {
	return &ChangeLogStore{db: db}
}

// Log records an article change.
func (s *ChangeLogStore) Log(ctx context.Context, articleID int64, action, title string) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO article_change_log (article_id, action, title)
		VALUES ($1, $2, $3)
	`, articleID, action, title)
	if err != nil {
		// Log but don't fail, the change log is best-effort.
		slog.Warn("failed to log article change",
			"article_id", articleID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("article change logged",
		"article_id", articleID,
		"action", action,
	)
}

// RecentEntries returns the most recent changes, newest first.
func (s *ChangeLogStore) RecentEntries(ctx context.Context, limit int) ([]ChangeLogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, article_id, action, title, created_at
		FROM article_change_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	var entries []ChangeLogEntry
	for rows.Next() {
		var e ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.Action, &e.Title, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ChangeLogEntry represents a single recorded change.
type ChangeLogEntry struct {
	ID        int64
	ArticleID int64
	Action    string
	Title     string
	CreatedAt time.Time
}
