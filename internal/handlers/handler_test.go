// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// an in-memory article store, a recording change log, and an environment
// wiring them into the handlers with an in-process Valkey.
package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"picoblog/internal/blog"
	"picoblog/internal/cache"
	"picoblog/internal/config"
	"picoblog/internal/markdown"
	"picoblog/internal/models"
	"picoblog/internal/ping"
	"picoblog/internal/render"
	"picoblog/internal/storage"
	"picoblog/internal/store"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory article store following the same publish
// rules as store.ArticleStore.
type memStore struct {
	mu       sync.Mutex
	articles map[int64]models.Article
	nextID   int64
	err      error
}

func newMemStore(seed ...models.Article) *memStore {
	s := &memStore{articles: map[int64]models.Article{}, nextID: 1}
	for _, a := range seed {
		s.articles[a.ID] = *a.Clone()
		s.nextID = max(s.nextID, a.ID+1)
	}
	return s
}

func (s *memStore) FindByID(_ context.Context, id int64) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

func (s *memStore) sorted(keep func(models.Article) bool) []models.Article {
	out := []models.Article{}
	for _, a := range s.articles {
		if keep(a) {
			out = append(out, *a.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Article) int {
		if c := b.PublishedWhen.Compare(a.PublishedWhen); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}

func (s *memStore) ListAll(context.Context) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(models.Article) bool { return true }), nil
}

func (s *memStore) ListPublished(context.Context) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(a models.Article) bool { return !a.Draft }), nil
}

func (s *memStore) ListPublishedInRange(_ context.Context, start, end time.Time) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(a models.Article) bool {
		return !a.Draft && !a.PublishedWhen.Before(start) && a.PublishedWhen.Before(end)
	}), nil
}

func (s *memStore) ListPublishedByTag(_ context.Context, tag string) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(func(a models.Article) bool {
		return !a.Draft && slices.Contains(a.Tags, tag)
	}), nil
}

func (s *memStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles), s.err
}

func (s *memStore) SaveWithPrevious(_ context.Context, a *models.Article) (*models.Article, *models.Article, error) {
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, nil, s.err
	}

	next := a.Clone()
	var prev *models.Article
	if next.ID != 0 {
		stored, ok := s.articles[next.ID]
		if !ok {
			return nil, nil, store.ErrNotFound
		}
		prev = stored.Clone()
	} else {
		next.ID = s.nextID
		s.nextID++
	}
	next.ResolvePublished(prev, testNow)
	s.articles[next.ID] = *next
	return next.Clone(), prev, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.articles, id)
	return nil
}

func (s *memStore) get(id int64) (models.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	return a, ok
}

// memChangeLog records change log entries in memory.
type memChangeLog struct {
	mu      sync.Mutex
	entries []store.ChangeLogEntry
}

func (c *memChangeLog) Log(_ context.Context, articleID int64, action, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, store.ChangeLogEntry{
		ID:        int64(len(c.entries) + 1),
		ArticleID: articleID,
		Action:    action,
		Title:     title,
		CreatedAt: testNow,
	})
}

func (c *memChangeLog) RecentEntries(_ context.Context, limit int) ([]store.ChangeLogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.entries)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *memChangeLog) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Action
	}
	return out
}

// counter counts requests received by an httptest server.
type counter struct {
	mu    sync.Mutex
	n     int
	paths []string
}

func (c *counter) handler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		c.mu.Lock()
		c.n++
		c.paths = append(c.paths, r.URL.Path)
		c.mu.Unlock()
		io.WriteString(w, body)
	}
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

const pingOK = `<?xml version="1.0"?><methodResponse><params><param><value><struct>
<member><name>flerror</name><value><boolean>0</boolean></value></member>
<member><name>message</name><value>ok</value></member>
</struct></value></param></params></methodResponse>`

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Store     *memStore
	Changes   *memChangeLog
	Valkey    *miniredis.Miniredis
	PageCache *cache.PageCache
	Pinger    *ping.Pinger
	Pings     *counter
	Uploads   *counter
	Admin     *Admin
	Public    *Public
}

func testBlog() config.Blog {
	b := config.DefaultBlog()
	b.Name = "Test Blog"
	b.CanonicalURL = "https://blog.example.com/"
	return b
}

// newTestEnv wires the handlers over an in-memory store seeded with seed.
func newTestEnv(t *testing.T, seed ...models.Article) *testEnv {
	t.Helper()

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	pageCache := cache.NewPageCache(client, time.Minute)

	pings := &counter{}
	pingSrv := httptest.NewServer(pings.handler(pingOK))
	t.Cleanup(pingSrv.Close)
	pinger := ping.New(config.Ping{URLs: []string{pingSrv.URL}}, testBlog())

	uploads := &counter{}
	s3Srv := httptest.NewServer(uploads.handler(""))
	t.Cleanup(s3Srv.Close)
	s3, err := storage.New(config.Storage{
		Endpoint:  s3Srv.URL,
		Region:    "us-east-1",
		AccessKey: "AKIATEST",
		SecretKey: "secret",
		Bucket:    "feeds",
		FeedKey:   "rss2.xml",
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	st := newMemStore(seed...)
	changes := &memChangeLog{}
	asm := blog.NewAssembler(testBlog(), markdown.New()).WithClock(func() time.Time { return testNow })
	pages := blog.NewService(st, asm)

	admin := NewAdmin(renderer, st, changes, pages, pageCache, pinger, storage.NewFeedMirror(s3, "rss2.xml"))
	admin.now = func() time.Time { return testNow }

	return &testEnv{
		Store:     st,
		Changes:   changes,
		Valkey:    mr,
		PageCache: pageCache,
		Pinger:    pinger,
		Pings:     pings,
		Uploads:   uploads,
		Admin:     admin,
		Public:    NewPublic(pages, renderer, pageCache),
	}
}

// seedArticles returns two published articles and one draft.
func seedArticles() []models.Article {
	return []models.Article{
		{ID: 1, Title: "First post", Body: "Hello *world*", Tags: []string{"go"}, PublishedWhen: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "Second post", Body: "More `code`", Tags: []string{"go", "web"}, PublishedWhen: time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)},
		{ID: 3, Title: "Hidden draft", Body: "wip", Tags: []string{"secret"}, Draft: true, PublishedWhen: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
}
