package storage

import (
	"context"
	"log/slog"

	"picoblog/internal/metrics"
)

// FeedContentType is the media type of the mirrored feed document.
const FeedContentType = "application/rss+xml; charset=utf-8"

// FeedMirror uploads the RSS document to object storage after content
// changes. A nil *FeedMirror does nothing.
type FeedMirror struct {
	client *Client
	key    string
}

// NewFeedMirror returns a mirror writing to key, or nil when client is nil.
func NewFeedMirror(client *Client, key string) *FeedMirror {
	if client == nil {
		return nil
	}
	return &FeedMirror{client: client, key: key}
}

// Publish uploads the feed document.
func (m *FeedMirror) Publish(ctx context.Context, rss string) error {
	if m == nil {
		return nil
	}
	err := m.client.Upload(ctx, m.key, FeedContentType, []byte(rss))
	metrics.RecordFeedMirror(err)
	if err != nil {
		return err
	}
	slog.Debug("feed mirrored", "url", m.URL())
	return nil
}

// URL returns the public URL of the mirrored feed.
func (m *FeedMirror) URL() string {
	if m == nil {
		return ""
	}
	return m.client.FileURL(m.key)
}
