// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for PicoBlog.
// Handlers are grouped by concern (admin, public) and receive their
// dependencies through the handler struct.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"picoblog/internal/blog"
	"picoblog/internal/cache"
	"picoblog/internal/metrics"
	"picoblog/internal/models"
	"picoblog/internal/ping"
	"picoblog/internal/render"
	"picoblog/internal/storage"
	"picoblog/internal/store"
)

// recentChanges is how many change log entries the article list shows.
const recentChanges = 10

// feedMirrorTimeout bounds the upload of the feed after a change.
const feedMirrorTimeout = 15 * time.Second

// ArticleStore is the part of the article store the admin screens use.
type ArticleStore interface {
	FindByID(ctx context.Context, id int64) (*models.Article, error)
	ListAll(ctx context.Context) ([]models.Article, error)
	Count(ctx context.Context) (int, error)
	// SaveWithPrevious stores a and returns the row it replaced, read
	// under the same lock as the write; prev is nil for a new article.
	SaveWithPrevious(ctx context.Context, a *models.Article) (saved, prev *models.Article, err error)
	Delete(ctx context.Context, id int64) error
}

// ChangeLog records and lists admin changes.
type ChangeLog interface {
	Log(ctx context.Context, articleID int64, action, title string)
	RecentEntries(ctx context.Context, limit int) ([]store.ChangeLogEntry, error)
}

// Admin groups all admin panel HTTP handlers and their dependencies.
// pageCache, pinger and mirror may be nil.
type Admin struct {
	renderer  *render.Renderer
	articles  ArticleStore
	changes   ChangeLog
	pages     *blog.Service
	pageCache *cache.PageCache
	pinger    *ping.Pinger
	mirror    *storage.FeedMirror
	now       func() time.Time
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, articles ArticleStore, changes ChangeLog, pages *blog.Service, pageCache *cache.PageCache, pinger *ping.Pinger, mirror *storage.FeedMirror) *Admin {
	return &Admin{
		renderer:  renderer,
		articles:  articles,
		changes:   changes,
		pages:     pages,
		pageCache: pageCache,
		pinger:    pinger,
		mirror:    mirror,
		now:       time.Now,
	}
}

// List renders every stored article, drafts included, newest first.
func (a *Admin) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	articles, err := a.articles.ListAll(ctx)
	if err != nil {
		slog.Error("list articles failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	count, err := a.articles.Count(ctx)
	if err != nil {
		slog.Error("count articles failed", "error", err)
		count = len(articles)
	}
	changes, err := a.changes.RecentEntries(ctx, recentChanges)
	if err != nil {
		slog.Warn("list change log failed", "error", err)
	}

	a.renderer.Page(w, r, render.AdminMain, &render.PageData{
		Title:   "Articles",
		Section: "articles",
		Data: map[string]any{
			"Count":    count,
			"Articles": articles,
			"Changes":  changes,
		},
		Flashes: flashesFromQuery(r),
	})
}

// New renders the edit form for a blank draft.
func (a *Admin) New(w http.ResponseWriter, r *http.Request) {
	article := models.NewArticle(a.now().UTC())
	a.renderEdit(w, r, http.StatusOK, "New article", "new", article, article.TagString(), nil)
}

// Edit renders the edit form for a stored article.
func (a *Admin) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	article, err := a.articles.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find article failed", "error", err, "article_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	a.renderEdit(w, r, http.StatusOK, "Edit article", "articles", article, article.TagString(), nil)
}

// Save creates or updates an article from the edit form, then redirects
// to the list, or back to the edit form when edit_again is set.
func (a *Admin) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := parseArticleForm(w, r)
	if err != nil {
		if form == nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		a.renderEdit(w, r, http.StatusUnprocessableEntity, editTitle(form.Article), editSection(form.Article), form.Article, form.TagString, fieldErrors(err))
		return
	}

	saved, prev, err := a.articles.SaveWithPrevious(ctx, form.Article)
	if err != nil {
		var ve *models.ValidationError
		switch {
		case errors.As(err, &ve):
			a.renderEdit(w, r, http.StatusUnprocessableEntity, editTitle(form.Article), editSection(form.Article), form.Article, form.TagString, fieldErrors(err))
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Article not found", http.StatusNotFound)
		default:
			slog.Error("save article failed", "error", err, "article_id", form.Article.ID)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	action := store.ActionUpdate
	if prev == nil {
		action = store.ActionCreate
	}
	slog.Info("article saved", "article_id", saved.ID, "action", action, "draft", saved.Draft)
	a.afterChange(ctx, action, saved, prev != nil && prev.IsPublished())

	target := "/admin/?saved=1"
	if form.EditAgain {
		target = "/admin/article/edit/" + strconv.FormatInt(saved.ID, 10) + "?saved=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ConfirmDelete renders the delete confirmation for ?id=.
func (a *Admin) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil || id == 0 {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	article, err := a.articles.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find article failed", "error", err, "article_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	a.renderer.Page(w, r, render.AdminDelete, &render.PageData{
		Title:   "Delete article",
		Section: "articles",
		Data:    map[string]any{"Article": article},
	})
}

// Delete removes the article named by the id form field. An id that is not
// stored is treated as already deleted.
func (a *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r.FormValue("id"))
	if err != nil || id == 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	existing, err := a.articles.FindByID(ctx, id)
	if err != nil {
		slog.Error("find article failed", "error", err, "article_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.articles.Delete(ctx, id); err != nil {
		slog.Error("delete article failed", "error", err, "article_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if existing != nil {
		slog.Info("article deleted", "article_id", id)
		a.afterChange(ctx, store.ActionDelete, existing, existing.IsPublished())
	}

	http.Redirect(w, r, "/admin/?deleted=1", http.StatusSeeOther)
}

// afterChange runs the side effects of a stored change. Every change drops
// the page cache and is logged. Changes that touch the public site also
// ping the update services and refresh the mirrored feed.
func (a *Admin) afterChange(ctx context.Context, action string, article *models.Article, wasPublished bool) {
	a.pageCache.InvalidateAll(ctx)
	a.changes.Log(ctx, article.ID, action, article.Title)
	metrics.RecordChange(action)

	public := wasPublished || (action != store.ActionDelete && article.IsPublished())
	if !public {
		return
	}

	a.pinger.Notify()
	a.mirrorFeed(ctx)
}

// mirrorFeed uploads the current feed to object storage. Failures are
// logged and never reach the admin user.
func (a *Admin) mirrorFeed(ctx context.Context) {
	if a.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedMirrorTimeout)
	defer cancel()

	pc, err := a.pages.Feed(ctx)
	if err != nil {
		slog.Warn("feed mirror: build feed", "error", err)
		return
	}
	doc, err := blog.RSS(pc)
	if err != nil {
		slog.Warn("feed mirror: render feed", "error", err)
		return
	}
	if err := a.mirror.Publish(ctx, doc); err != nil {
		slog.Warn("feed mirror upload failed", "error", err)
	}
}

func (a *Admin) renderEdit(w http.ResponseWriter, r *http.Request, status int, title, section string, article *models.Article, tagString string, errs map[string]string) {
	a.renderer.PageStatus(w, r, status, render.AdminEdit, &render.PageData{
		Title:   title,
		Section: section,
		Data: map[string]any{
			"ID":        article.ID,
			"Article":   article,
			"TagString": tagString,
			"Errors":    errs,
		},
		Flashes: flashesFromQuery(r),
	})
}

func editTitle(article *models.Article) string {
	if article.ID == 0 {
		return "New article"
	}
	return "Edit article"
}

func editSection(article *models.Article) string {
	if article.ID == 0 {
		return "new"
	}
	return "articles"
}

// flashesFromQuery turns the markers set by post-redirect-get into flash
// messages.
func flashesFromQuery(r *http.Request) []render.Flash {
	q := r.URL.Query()
	var flashes []render.Flash
	if q.Get("saved") == "1" {
		flashes = append(flashes, render.Flash{Type: "success", Message: "Article saved."})
	}
	if q.Get("deleted") == "1" {
		flashes = append(flashes, render.Flash{Type: "success", Message: "Article deleted."})
	}
	return flashes
}
