// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog derives everything the public pages show from the stored
// articles: tag clouds, month archives, article links and rendered bodies,
// collected into one PageContext per page.
package blog

import (
	"html/template"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"picoblog/internal/config"
	"picoblog/internal/models"
)

// Renderer converts an article body into HTML.
type Renderer interface {
	ToHTML(source string) (string, error)
}

// ArticleView is an article together with its link and rendered body.
type ArticleView struct {
	models.Article
	Path string
	URL  string
	HTML template.HTML
}

// PageContext is the data handed to every public template.
type PageContext struct {
	Title  string
	Single bool // a single article page; its heading is the article itself

	BlogName    string
	BlogOwner   string
	Description string
	Version     string

	Articles    []ArticleView
	Recent      []ArticleView
	TagCloud    []models.TagCount
	DateArchive []models.DateCount
	LastUpdated time.Time

	BlogPath    string
	BlogURL     string
	ArchivePath string
	TagPath     string
	TagURL      string
	DatePath    string
	DateURL     string
	MediaPath   string
	MediaURL    string
	RSS2Path    string
	RSS2URL     string
}

// Assembler merges articles with navigation data. It holds the blog
// identity and URL layout instead of reading them from globals.
type Assembler struct {
	blog     config.Blog
	renderer Renderer
	now      func() time.Time
	shuffle  func([]models.TagCount)
}

// NewAssembler creates an Assembler for the given blog settings.
func NewAssembler(blog config.Blog, renderer Renderer) *Assembler {
	return &Assembler{
		blog:     blog,
		renderer: renderer,
		now:      time.Now,
		shuffle:  shuffleTags,
	}
}

// WithClock replaces the clock used when a page has no articles.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Blog returns the settings the assembler was created with.
func (a *Assembler) Blog() config.Blog {
	return a.blog
}

// ArticlePath returns the public path of an article.
func (a *Assembler) ArticlePath(id int64) string {
	return "/" + a.blog.ArticlePath + "/" + strconv.FormatInt(id, 10)
}

// Augment attaches path, absolute URL and, when includeHTML is set, the
// rendered body to each article. A body that fails to render is left empty.
func (a *Assembler) Augment(articles []models.Article, baseURL string, includeHTML bool) []ArticleView {
	base := strings.TrimRight(baseURL, "/")
	views := make([]ArticleView, 0, len(articles))
	for _, art := range articles {
		v := ArticleView{Article: art, Path: a.ArticlePath(art.ID)}
		v.URL = base + v.Path
		if includeHTML {
			html, err := a.renderer.ToHTML(art.Body)
			if err != nil {
				slog.Warn("article render failed", "article_id", art.ID, "error", err)
				html = ""
			}
			v.HTML = template.HTML(html)
		}
		views = append(views, v)
	}
	return views
}

// RecentArticles returns up to limit articles from the front of an already
// newest-first list.
func RecentArticles(published []models.Article, limit int) []models.Article {
	if limit <= 0 {
		return []models.Article{}
	}
	if len(published) < limit {
		limit = len(published)
	}
	return published[:limit]
}

// PageContext assembles the template data for a page showing articles,
// with recent as the sidebar and the tag cloud and month archive computed
// from all published articles.
func (a *Assembler) PageContext(articles, recent []ArticleView, published []models.Article, baseURL string) *PageContext {
	base := strings.TrimRight(baseURL, "/")

	lastUpdated := a.now().UTC()
	if len(articles) > 0 {
		lastUpdated = articles[0].PublishedWhen
	}

	cloud := TagCounts(published)
	a.shuffle(cloud)

	if articles == nil {
		articles = []ArticleView{}
	}
	if recent == nil {
		recent = []ArticleView{}
	}

	tagPath := "/" + a.blog.TagPath
	datePath := "/" + a.blog.DatePath
	mediaPath := "/" + a.blog.MediaPath
	rss2Path := "/" + a.blog.RSS2Path

	return &PageContext{
		BlogName:    a.blog.Name,
		BlogOwner:   a.blog.Owner,
		Description: a.blog.Description,
		Version:     a.blog.Version,

		Articles:    articles,
		Recent:      recent,
		TagCloud:    cloud,
		DateArchive: MonthCounts(published),
		LastUpdated: lastUpdated,

		BlogPath:    "/",
		BlogURL:     base + "/",
		ArchivePath: "/" + a.blog.ArchivePath,
		TagPath:     tagPath,
		TagURL:      base + tagPath,
		DatePath:    datePath,
		DateURL:     base + datePath,
		MediaPath:   mediaPath,
		MediaURL:    base + mediaPath,
		RSS2Path:    rss2Path,
		RSS2URL:     base + rss2Path,
	}
}
