// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"picoblog/internal/models"
)

// ErrNotFound is returned when an operation targets an article id that is
// not stored.
var ErrNotFound = errors.New("article not found")

// DBTX is the subset of *pgxpool.Pool used by the stores. It is satisfied
// by pgxmock pools in tests.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectArticle = `
	SELECT id, title, body, tags, draft, published_when
	FROM articles`

// ArticleStore handles all article database operations.
type ArticleStore struct {
	db  DBTX
	now func() time.Time
}

// NewArticleStore creates a new ArticleStore with the given connection pool.
func NewArticleStore(db DBTX) *ArticleStore {
	return &ArticleStore{db: db, now: time.Now}
}

// WithClock replaces the clock used for publish timestamps.
func (s *ArticleStore) WithClock(now func() time.Time) *ArticleStore {
	s.now = now
	return s
}

// FindByID retrieves an article by id, drafts included. Returns nil if not found.
func (s *ArticleStore) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRow(ctx, selectArticle+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article %d: %w", id, err)
	}
	return a, nil
}

// ListAll returns every article, drafts included, newest first.
func (s *ArticleStore) ListAll(ctx context.Context) ([]models.Article, error) {
	return s.list(ctx, "list articles", selectArticle+`
		ORDER BY published_when DESC, id DESC`)
}

// ListPublished returns all published articles, newest first.
func (s *ArticleStore) ListPublished(ctx context.Context) ([]models.Article, error) {
	return s.list(ctx, "list published articles", selectArticle+`
		WHERE draft = FALSE
		ORDER BY published_when DESC, id DESC`)
}

// ListPublishedInRange returns published articles with start <= published_when < end.
func (s *ArticleStore) ListPublishedInRange(ctx context.Context, start, end time.Time) ([]models.Article, error) {
	return s.list(ctx, "list articles in range", selectArticle+`
		WHERE draft = FALSE AND published_when >= $1 AND published_when < $2
		ORDER BY published_when DESC, id DESC`, start.UTC(), end.UTC())
}

// ListPublishedByTag returns published articles carrying the given tag.
func (s *ArticleStore) ListPublishedByTag(ctx context.Context, tag string) ([]models.Article, error) {
	return s.list(ctx, "list articles by tag", selectArticle+`
		WHERE draft = FALSE AND $1 = ANY(tags)
		ORDER BY published_when DESC, id DESC`, tag)
}

// Count returns the number of stored articles, drafts included.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Save creates or updates an article and returns the stored version.
//
// An article with ID zero is inserted and receives its id from the table
// sequence. Any other id must already exist; its row is locked for the
// duration of the save so the draft-to-published check sees the committed
// previous state.
func (s *ArticleStore) Save(ctx context.Context, a *models.Article) (*models.Article, error) {
	saved, _, err := s.SaveWithPrevious(ctx, a)
	return saved, err
}

// SaveWithPrevious is Save that also returns the row it replaced, as read
// under the row lock. prev is nil when the article was inserted.
func (s *ArticleStore) SaveWithPrevious(ctx context.Context, a *models.Article) (saved, prev *models.Article, err error) {
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}

	next := a.Clone()
	next.Title = strings.TrimSpace(next.Title)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("save article %d: begin: %w", next.ID, err)
	}

	if next.ID != 0 {
		prev, err = scanArticle(tx.QueryRow(ctx, selectArticle+` WHERE id = $1 FOR UPDATE`, next.ID))
		if errors.Is(err, pgx.ErrNoRows) {
			_ = tx.Rollback(ctx)
			return nil, nil, fmt.Errorf("save article %d: %w", next.ID, ErrNotFound)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, nil, fmt.Errorf("save article %d: lock: %w", next.ID, err)
		}
	}

	next.ResolvePublished(prev, s.now())
	next.PublishedWhen = dbTime(next.PublishedWhen)

	if prev == nil {
		err = tx.QueryRow(ctx, `
			INSERT INTO articles (title, body, tags, draft, published_when)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, next.Title, next.Body, next.Tags, next.Draft, next.PublishedWhen).Scan(&next.ID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE articles SET
				title = $2, body = $3, tags = $4, draft = $5, published_when = $6
			WHERE id = $1
		`, next.ID, next.Title, next.Body, next.Tags, next.Draft, next.PublishedWhen)
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, fmt.Errorf("save article %d: write: %w", next.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("save article %d: commit: %w", next.ID, err)
	}
	return next, prev, nil
}

// Delete removes an article by id. Deleting an id that is not stored is a no-op.
func (s *ArticleStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	return nil
}

func (s *ArticleStore) list(ctx context.Context, op, query string, args ...any) ([]models.Article, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	a := &models.Article{}
	if err := row.Scan(&a.ID, &a.Title, &a.Body, &a.Tags, &a.Draft, &a.PublishedWhen); err != nil {
		return nil, err
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	a.PublishedWhen = a.PublishedWhen.UTC()
	return a, nil
}

// dbTime normalises a timestamp to the precision PostgreSQL stores.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
