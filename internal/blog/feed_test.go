package blog

import (
	"context"
	"testing"

	"github.com/mmcdole/gofeed"
)

func TestRSS(t *testing.T) {
	svc := NewService(serviceFixture(), NewAssembler(testBlog(), echoRenderer))

	pc, err := svc.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}

	doc, err := RSS(pc)
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}

	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		t.Fatalf("generated feed does not parse: %v\n%s", err, doc)
	}

	if feed.FeedType != "rss" {
		t.Errorf("feed type: got %q, want rss", feed.FeedType)
	}
	if feed.Title != "PicoBlog" {
		t.Errorf("title: got %q", feed.Title)
	}
	if feed.Link != "https://blog.example.com/" {
		t.Errorf("link: got %q", feed.Link)
	}
	if len(feed.Items) != 9 {
		t.Fatalf("items: got %d, want 9", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Title != "Feb" || first.Link != "https://blog.example.com/id/20" {
		t.Errorf("first item: %q %q", first.Title, first.Link)
	}
	if first.Description != "<p></p>" {
		t.Errorf("description: got %q", first.Description)
	}
	for _, item := range feed.Items {
		if item.Title == "Secret" {
			t.Error("draft in feed")
		}
	}
}

func TestRSSEmpty(t *testing.T) {
	asm := NewAssembler(testBlog(), echoRenderer)
	doc, err := RSS(asm.PageContext(nil, nil, nil, "https://blog.example.com/"))
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("items: got %d, want 0", len(feed.Items))
	}
}
