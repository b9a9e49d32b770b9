// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation limits for article fields.
const (
	MaxTitleLen = 300
	MaxBodyLen  = 100_000
	MaxTagLen   = 100
)

// Defaults used by the admin "new article" form.
const (
	DefaultTitle = "New article"
	DefaultBody  = "Content goes here"
)

// Article is a single blog post. An ID of zero means the article has not
// been stored yet; the store assigns the ID on first save.
type Article struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Tags          []string  `json:"tags"`
	Draft         bool      `json:"draft"`
	PublishedWhen time.Time `json:"published_when"`
}

// NewArticle returns the blank draft shown by the admin "new article" form.
func NewArticle(now time.Time) *Article {
	return &Article{
		Title:         DefaultTitle,
		Body:          DefaultBody,
		Tags:          []string{},
		Draft:         true,
		PublishedWhen: now,
	}
}

// IsPublished returns true if the article is visible on public pages.
func (a *Article) IsPublished() bool {
	return !a.Draft
}

// TagString joins the tags the way the edit form displays them.
func (a *Article) TagString() string {
	return strings.Join(a.Tags, ", ")
}

// Clone returns a deep copy of the article.
func (a *Article) Clone() *Article {
	c := *a
	c.Tags = slices.Clone(a.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// ResolvePublished applies the publish timestamp rules for saving a over
// prev, the currently stored version (nil if a has never been stored).
//
// A stored article keeps its timestamp across edits. The only exception is
// the draft-to-published edge, which moves the timestamp to now. A brand new
// article keeps the time it was created at.
func (a *Article) ResolvePublished(prev *Article, now time.Time) {
	if prev == nil {
		if a.PublishedWhen.IsZero() {
			a.PublishedWhen = now
		}
		return
	}

	a.PublishedWhen = prev.PublishedWhen
	if prev.Draft && !a.Draft {
		a.PublishedWhen = now
	}
}

// Validate checks the fields required before an article may be persisted.
func (a *Article) Validate() error {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "Title is required."}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("Title is too long (max %d characters).", MaxTitleLen)}
	}
	if utf8.RuneCountInString(a.Body) > MaxBodyLen {
		return &ValidationError{Field: "body", Message: "Body is too long (max 100,000 characters)."}
	}
	for _, tag := range a.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLen {
			return &ValidationError{Field: "tags", Message: fmt.Sprintf("Tag %q is too long (max %d characters).", tag, MaxTagLen)}
		}
	}
	return nil
}

// ParseTags splits a comma-separated tag field, trimming whitespace and
// dropping empty entries. Order is preserved.
func ParseTags(csv string) []string {
	tags := []string{}
	for _, t := range strings.Split(csv, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ValidationError reports a field that failed validation. Message is safe
// to show to the admin user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (a *Article) String() string {
	return fmt.Sprintf("[%s] %s", a.PublishedWhen.Format("2006/01/02 15:04"), a.Title)
}
