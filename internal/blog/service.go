// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"picoblog/internal/models"
)

// ErrNotFound is returned when a page has nothing to show, such as an
// unknown or unpublished article id. The accompanying PageContext is still
// usable for rendering the not-found view.
var ErrNotFound = errors.New("page not found")

// ArticleSource is the read side of the article store used by public pages.
type ArticleSource interface {
	FindByID(ctx context.Context, id int64) (*models.Article, error)
	ListPublished(ctx context.Context) ([]models.Article, error)
	ListPublishedInRange(ctx context.Context, start, end time.Time) ([]models.Article, error)
	ListPublishedByTag(ctx context.Context, tag string) ([]models.Article, error)
}

// Service builds the PageContext for each public page variant.
type Service struct {
	src ArticleSource
	asm *Assembler
}

// NewService creates a Service reading from src.
func NewService(src ArticleSource, asm *Assembler) *Service {
	return &Service{src: src, asm: asm}
}

// Assembler returns the assembler used to build pages.
func (s *Service) Assembler() *Assembler {
	return s.asm
}

func (s *Service) baseURL() string {
	return s.asm.blog.CanonicalURL
}

// FrontPage shows the newest articles, capped at the page size.
func (s *Service) FrontPage(ctx context.Context) (*PageContext, error) {
	published, err := s.src.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("front page: %w", err)
	}
	page := RecentArticles(published, s.asm.blog.MaxArticlesPerPage)
	return s.withRecent(page, published, ""), nil
}

// Article shows a single published article. Drafts and unknown ids yield
// ErrNotFound together with a not-found context.
func (s *Service) Article(ctx context.Context, id int64) (*PageContext, error) {
	var article *models.Article
	var published []models.Article

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.src.FindByID(gctx, id)
		article = a
		return err
	})
	g.Go(func() error {
		p, err := s.src.ListPublished(gctx)
		published = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("article page %d: %w", id, err)
	}

	if article == nil || article.Draft {
		return s.notFound(published), ErrNotFound
	}
	pc := s.withRecent([]models.Article{*article}, published, article.Title)
	pc.Single = true
	return pc, nil
}

// ByTag shows the published articles carrying tag.
func (s *Service) ByTag(ctx context.Context, tag string) (*PageContext, error) {
	page, published, err := s.fetch(ctx, func(ctx context.Context) ([]models.Article, error) {
		return s.src.ListPublishedByTag(ctx, tag)
	})
	if err != nil {
		return nil, fmt.Errorf("tag page %q: %w", tag, err)
	}
	return s.withRecent(page, published, fmt.Sprintf("Articles tagged %q", tag)), nil
}

// ByMonth shows the articles published in the given month (UTC).
func (s *Service) ByMonth(ctx context.Context, year int, month time.Month) (*PageContext, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	page, published, err := s.fetch(ctx, func(ctx context.Context) ([]models.Article, error) {
		return s.src.ListPublishedInRange(ctx, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("month page %s: %w", start.Format("2006-01"), err)
	}
	return s.withRecent(page, published, "Articles for "+start.Format("January 2006")), nil
}

// Archive lists every published article without rendering bodies.
func (s *Service) Archive(ctx context.Context) (*PageContext, error) {
	published, err := s.src.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive page: %w", err)
	}
	views := s.asm.Augment(published, s.baseURL(), false)
	pc := s.asm.PageContext(views, nil, published, s.baseURL())
	pc.Title = "Archive"
	return pc, nil
}

// Feed returns every published article with rendered bodies for the RSS feed.
func (s *Service) Feed(ctx context.Context) (*PageContext, error) {
	published, err := s.src.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	views := s.asm.Augment(published, s.baseURL(), true)
	return s.asm.PageContext(views, nil, published, s.baseURL()), nil
}

// NotFound returns the context for the not-found view of an unknown
// route. Unlike an unknown article id it carries no recent sidebar.
func (s *Service) NotFound(ctx context.Context) (*PageContext, error) {
	published, err := s.src.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("not found page: %w", err)
	}
	pc := s.asm.PageContext(nil, nil, published, s.baseURL())
	pc.Title = "Not found"
	return pc, nil
}

// fetch runs a page-specific query and the published listing concurrently.
func (s *Service) fetch(ctx context.Context, query func(context.Context) ([]models.Article, error)) (page, published []models.Article, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := query(gctx)
		page = p
		return err
	})
	g.Go(func() error {
		p, err := s.src.ListPublished(gctx)
		published = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return page, published, nil
}

func (s *Service) withRecent(page, published []models.Article, title string) *PageContext {
	base := s.baseURL()
	views := s.asm.Augment(page, base, true)
	recent := s.asm.Augment(RecentArticles(published, s.asm.blog.TotalRecent), base, false)
	pc := s.asm.PageContext(views, recent, published, base)
	pc.Title = title
	return pc
}

func (s *Service) notFound(published []models.Article) *PageContext {
	return s.withRecent(nil, published, "Not found")
}
