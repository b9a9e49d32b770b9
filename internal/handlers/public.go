// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"picoblog/internal/blog"
	"picoblog/internal/cache"
	"picoblog/internal/markdown"
	"picoblog/internal/metrics"
	"picoblog/internal/render"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	rssContentType  = "application/rss+xml; charset=utf-8"
	cssContentType  = "text/css; charset=utf-8"
)

// Public groups handlers for the public blog pages. It checks the Valkey
// page cache before querying the store, and stores rendered results on
// miss. A nil page cache disables caching.
type Public struct {
	pages     *blog.Service
	renderer  *render.Renderer
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(pages *blog.Service, renderer *render.Renderer, pageCache *cache.PageCache) *Public {
	return &Public{pages: pages, renderer: renderer, pageCache: pageCache}
}

// pageBuilder produces the context for one public page.
type pageBuilder func(ctx context.Context) (*blog.PageContext, error)

// FrontPage renders the newest published articles.
func (p *Public) FrontPage(w http.ResponseWriter, r *http.Request) {
	p.servePage(w, r, render.ShowArticles, p.pages.FrontPage)
}

// Article renders a single published article by its numeric id.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		p.NotFound(w, r)
		return
	}
	p.servePage(w, r, render.ShowArticles, func(ctx context.Context) (*blog.PageContext, error) {
		return p.pages.Article(ctx, id)
	})
}

// Tag renders the published articles carrying a tag.
func (p *Public) Tag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		p.NotFound(w, r)
		return
	}
	p.servePage(w, r, render.ShowArticles, func(ctx context.Context) (*blog.PageContext, error) {
		return p.pages.ByTag(ctx, tag)
	})
}

// Month renders the articles published in a month given as YYYY-MM.
func (p *Public) Month(w http.ResponseWriter, r *http.Request) {
	month, err := time.Parse("2006-01", chi.URLParam(r, "month"))
	if err != nil {
		p.NotFound(w, r)
		return
	}
	p.servePage(w, r, render.ShowArticles, func(ctx context.Context) (*blog.PageContext, error) {
		return p.pages.ByMonth(ctx, month.Year(), month.Month())
	})
}

// Archive renders the list of every published article.
func (p *Public) Archive(w http.ResponseWriter, r *http.Request) {
	p.servePage(w, r, render.Archive, p.pages.Archive)
}

// RSS serves the RSS 2.0 feed of all published articles.
func (p *Public) RSS(w http.ResponseWriter, r *http.Request) {
	p.serveCached(w, r, rssContentType, func(ctx context.Context) ([]byte, int, error) {
		pc, err := p.pages.Feed(ctx)
		if err != nil {
			return nil, 0, err
		}
		doc, err := blog.RSS(pc)
		if err != nil {
			return nil, 0, err
		}
		return []byte(doc), http.StatusOK, nil
	})
}

// Stylesheet serves the syntax highlighting CSS used by rendered code blocks.
func (p *Public) Stylesheet(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := markdown.Stylesheet(&buf); err != nil {
		slog.Error("write highlight stylesheet", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", cssContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(buf.Bytes())
}

// NotFound renders the not-found page with status 404.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	pc, err := p.pages.NotFound(r.Context())
	if err != nil {
		slog.Error("build not found page", "error", err, "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	p.writeNotFound(w, r, pc)
}

// servePage renders a page template, going through the page cache. A
// builder returning blog.ErrNotFound yields the not-found view.
func (p *Public) servePage(w http.ResponseWriter, r *http.Request, tmpl string, build pageBuilder) {
	p.serveCached(w, r, htmlContentType, func(ctx context.Context) ([]byte, int, error) {
		pc, err := build(ctx)
		if errors.Is(err, blog.ErrNotFound) {
			body, rerr := p.renderer.Public(render.NotFound, pc)
			return body, http.StatusNotFound, rerr
		}
		if err != nil {
			return nil, 0, err
		}
		body, err := p.renderer.Public(tmpl, pc)
		return body, http.StatusOK, err
	})
}

// serveCached answers from the page cache when possible. Only 200
// responses are cached.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, contentType string, produce func(ctx context.Context) ([]byte, int, error)) {
	ctx := r.Context()
	key := cache.PathKey(r.URL.Path)

	if p.pageCache != nil {
		cached, ok := p.pageCache.Get(ctx, key)
		metrics.RecordCache(ok)
		if ok {
			w.Header().Set("Content-Type", cached.ContentType)
			w.Write(cached.Body)
			return
		}
	}

	body, status, err := produce(ctx)
	if err != nil {
		slog.Error("render public page failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if status == http.StatusOK {
		p.pageCache.Set(ctx, key, cache.Page{ContentType: contentType, Body: body})
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)
}

func (p *Public) writeNotFound(w http.ResponseWriter, r *http.Request, pc *blog.PageContext) {
	body, err := p.renderer.Public(render.NotFound, pc)
	if err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", htmlContentType)
	w.WriteHeader(http.StatusNotFound)
	w.Write(body)
}
