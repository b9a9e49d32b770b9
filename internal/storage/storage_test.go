// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"picoblog/internal/config"
)

type putRequest struct {
	path        string
	contentType string
	acl         string
	body        string
}

// fakeS3 accepts PutObject calls and records them.
func fakeS3(t *testing.T, status int) (*httptest.Server, func() []putRequest) {
	t.Helper()
	var mu sync.Mutex
	var puts []putRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: got %s, want PUT", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, putRequest{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			acl:         r.Header.Get("X-Amz-Acl"),
			body:        string(body),
		})
		mu.Unlock()
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []putRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]putRequest(nil), puts...)
	}
}

func testStorage(endpoint string) config.Storage {
	return config.Storage{
		Endpoint:  endpoint,
		Region:    "us-east-1",
		AccessKey: "AKIATEST",
		SecretKey: "secret",
		Bucket:    "feeds",
		FeedKey:   "rss2.xml",
	}
}

func TestNewUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Storage
	}{
		{"empty", config.Storage{}},
		{"no bucket", config.Storage{Endpoint: "https://s3.example.com", AccessKey: "a", SecretKey: "b"}},
		{"no credentials", config.Storage{Endpoint: "https://s3.example.com", Bucket: "feeds"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if err != nil || c != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", c, err)
			}
		})
	}
}

func TestNewRejectsSchemelessEndpoint(t *testing.T) {
	if _, err := New(testStorage("s3.example.com")); err == nil {
		t.Error("expected error for endpoint without scheme")
	}
}

func TestFileURL(t *testing.T) {
	c, err := New(testStorage("https://s3.example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.FileURL("rss2.xml"); got != "https://s3.example.com/feeds/rss2.xml" {
		t.Errorf("path-style url: got %q", got)
	}

	cfg := testStorage("https://s3.example.com")
	cfg.PublicURL = "https://cdn.example.com/"
	c, err = New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.FileURL("rss2.xml"); got != "https://cdn.example.com/rss2.xml" {
		t.Errorf("cdn url: got %q", got)
	}
}

func TestFeedMirrorPublish(t *testing.T) {
	srv, puts := fakeS3(t, http.StatusOK)
	c, err := New(testStorage(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := NewFeedMirror(c, "rss2.xml")

	if err := m.Publish(context.Background(), "<rss></rss>"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := puts()
	if len(got) != 1 {
		t.Fatalf("puts: got %d, want 1", len(got))
	}
	p := got[0]
	if p.path != "/feeds/rss2.xml" {
		t.Errorf("path: got %q", p.path)
	}
	if p.contentType != FeedContentType {
		t.Errorf("content type: got %q", p.contentType)
	}
	if p.acl != "public-read" {
		t.Errorf("acl: got %q", p.acl)
	}
	if p.body != "<rss></rss>" {
		t.Errorf("body: got %q", p.body)
	}
	if m.URL() != srv.URL+"/feeds/rss2.xml" {
		t.Errorf("url: got %q", m.URL())
	}
}

func TestFeedMirrorPublishError(t *testing.T) {
	srv, _ := fakeS3(t, http.StatusForbidden)
	c, err := New(testStorage(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := NewFeedMirror(c, "rss2.xml").Publish(context.Background(), "<rss/>"); err == nil {
		t.Error("expected error from forbidden upload")
	}
}

func TestNilFeedMirror(t *testing.T) {
	m := NewFeedMirror(nil, "rss2.xml")
	if m != nil {
		t.Fatal("expected nil mirror without a client")
	}
	if err := m.Publish(context.Background(), "<rss/>"); err != nil {
		t.Errorf("nil mirror Publish: %v", err)
	}
	if m.URL() != "" {
		t.Errorf("nil mirror URL: got %q", m.URL())
	}
}
