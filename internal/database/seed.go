package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedArticle struct {
	title string
	body  string
	tags  []string
	draft bool
	age   time.Duration
}

var seedArticles = []seedArticle{
	{
		title: "Hello, world",
		body:  "Welcome to the blog. This first post was created by the development seed.\n\nEdit or delete it from the admin screens.",
		tags:  []string{"meta", "welcome"},
		age:   72 * time.Hour,
	},
	{
		title: "Writing posts in Markdown",
		body:  "Posts are written in **Markdown**.\n\n```go\nfmt.Println(\"code blocks are highlighted\")\n```\n",
		tags:  []string{"meta", "markdown"},
		age:   48 * time.Hour,
	},
	{
		title: "Unfinished thoughts",
		body:  "Drafts never show up on public pages.",
		tags:  []string{"drafts"},
		draft: true,
		age:   24 * time.Hour,
	},
}

// Seed populates the database with sample articles for development.
// It does nothing when the articles table already has rows.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return fmt.Errorf("seed check articles: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	now := time.Now().UTC()
	for _, a := range seedArticles {
		_, err := pool.Exec(ctx, `
			INSERT INTO articles (title, body, tags, draft, published_when)
			VALUES ($1, $2, $3, $4, $5)
		`, a.title, a.body, a.tags, a.draft, now.Add(-a.age))
		if err != nil {
			return fmt.Errorf("seed insert article %q: %w", a.title, err)
		}
	}

	slog.Info("database seeded with sample articles", "count", len(seedArticles))
	return nil
}
