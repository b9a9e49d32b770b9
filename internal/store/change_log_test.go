// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestChangeLogStoreLog(t *testing.T) {
	mock := newMock(t)
	s := NewChangeLogStore(mock)

	mock.ExpectExec(`INSERT INTO article_change_log`).
		WithArgs(int64(4), ActionUpdate, "Title").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s.Log(context.Background(), 4, ActionUpdate, "Title")
	expectationsMet(t, mock)
}

func TestChangeLogStoreLogFailureIsSwallowed(t *testing.T) {
	mock := newMock(t)
	s := NewChangeLogStore(mock)

	mock.ExpectExec(`INSERT INTO article_change_log`).
		WithArgs(int64(4), ActionDelete, "").
		WillReturnError(errors.New("relation does not exist"))

	// Log is best-effort and must not panic or report.
	s.Log(context.Background(), 4, ActionDelete, "")
	expectationsMet(t, mock)
}

func TestChangeLogStoreRecentEntries(t *testing.T) {
	mock := newMock(t)
	s := NewChangeLogStore(mock)
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Minute)

	mock.ExpectQuery(`FROM article_change_log`).
		WithArgs(10).
		WillReturnRows(mock.NewRows([]string{"id", "article_id", "action", "title", "created_at"}).
			AddRow(int64(2), int64(9), ActionDelete, "Gone", t1).
			AddRow(int64(1), int64(9), ActionCreate, "Gone", t0))

	entries, err := s.RecentEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].CreatedAt.Before(entries[1].CreatedAt) {
		t.Error("expected entries ordered by created_at DESC")
	}
	if entries[0].Action != ActionDelete || entries[0].ArticleID != 9 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	expectationsMet(t, mock)
}

func TestChangeLogStoreIntegration(t *testing.T) {
	db := testDB(t)
	s := NewChangeLogStore(db)
	ctx := context.Background()

	id := -time.Now().UnixNano()
	s.Log(ctx, id, ActionCreate, "integration")
	t.Cleanup(func() {
		db.Exec(ctx, "DELETE FROM article_change_log WHERE article_id = $1", id)
	})

	var count int
	if err := db.QueryRow(ctx,
		"SELECT COUNT(*) FROM article_change_log WHERE article_id = $1", id,
	).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 log entry, got %d", count)
	}
}
