package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestArticleIsPublished verifies that IsPublished is the inverse of Draft.
func TestArticleIsPublished(t *testing.T) {
	tests := []struct {
		name  string
		draft bool
		want  bool
	}{
		{name: "published", draft: false, want: true},
		{name: "draft", draft: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Article{Draft: tt.draft}
			if got := a.IsPublished(); got != tt.want {
				t.Errorf("Article{Draft: %v}.IsPublished() = %v, want %v", tt.draft, got, tt.want)
			}
		})
	}
}

func TestNewArticleDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewArticle(now)

	if !a.Draft {
		t.Error("new article should be a draft")
	}
	if a.Title != DefaultTitle || a.Body != DefaultBody {
		t.Errorf("defaults: got %q / %q", a.Title, a.Body)
	}
	if !a.PublishedWhen.Equal(now) {
		t.Errorf("published_when: got %v, want %v", a.PublishedWhen, now)
	}
	if a.ID != 0 {
		t.Errorf("id: got %d, want 0", a.ID)
	}
}

func TestResolvePublished(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev *Article
		next Article
		want time.Time
	}{
		{
			name: "first save keeps construction time",
			prev: nil,
			next: Article{Draft: false, PublishedWhen: t0},
			want: t0,
		},
		{
			name: "first save without timestamp uses now",
			prev: nil,
			next: Article{Draft: true},
			want: now,
		},
		{
			name: "draft to published moves timestamp",
			prev: &Article{Draft: true, PublishedWhen: t0},
			next: Article{Draft: false, PublishedWhen: t0},
			want: now,
		},
		{
			name: "published re-save keeps timestamp",
			prev: &Article{Draft: false, PublishedWhen: t0},
			next: Article{Draft: false, PublishedWhen: t0},
			want: t0,
		},
		{
			name: "published back to draft keeps timestamp",
			prev: &Article{Draft: false, PublishedWhen: t0},
			next: Article{Draft: true, PublishedWhen: t0},
			want: t0,
		},
		{
			name: "draft re-save keeps timestamp",
			prev: &Article{Draft: true, PublishedWhen: t0},
			next: Article{Draft: true},
			want: t0,
		},
		{
			name: "edit cannot overwrite stored timestamp",
			prev: &Article{Draft: false, PublishedWhen: t0},
			next: Article{Draft: false, PublishedWhen: now.Add(time.Hour)},
			want: t0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.next
			a.ResolvePublished(tt.prev, now)
			if !a.PublishedWhen.Equal(tt.want) {
				t.Errorf("published_when: got %v, want %v", a.PublishedWhen, tt.want)
			}
		})
	}
}

func TestArticleValidate(t *testing.T) {
	tests := []struct {
		name      string
		article   Article
		wantField string
	}{
		{"valid", Article{Title: "Hello", Body: "text"}, ""},
		{"empty title", Article{Title: ""}, "title"},
		{"whitespace title", Article{Title: "   "}, "title"},
		{"title too long", Article{Title: strings.Repeat("a", MaxTitleLen+1)}, "title"},
		{"body too long", Article{Title: "t", Body: strings.Repeat("a", MaxBodyLen+1)}, "body"},
		{"empty body allowed", Article{Title: "t"}, ""},
		{"tag too long", Article{Title: "t", Tags: []string{strings.Repeat("x", MaxTagLen+1)}}, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.article.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"go", []string{"go"}},
		{"go, web ,  blog", []string{"go", "web", "blog"}},
		{"a,,b, ,", []string{"a", "b"}},
		{"two words, x", []string{"two words", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestArticleTagStringAndClone(t *testing.T) {
	a := &Article{ID: 3, Title: "x", Tags: []string{"go", "web"}}
	if got := a.TagString(); got != "go, web" {
		t.Errorf("TagString: got %q", got)
	}

	c := a.Clone()
	c.Tags[0] = "changed"
	if a.Tags[0] != "go" {
		t.Error("Clone must not share the tags slice")
	}

	empty := (&Article{}).Clone()
	if empty.Tags == nil {
		t.Error("Clone should normalise nil tags to an empty slice")
	}
}

func TestPopularityFor(t *testing.T) {
	tests := []struct {
		percent int
		want    Popularity
	}{
		{0, PopularityTiny},
		{20, PopularityTiny},
		{21, PopularitySmall},
		{40, PopularitySmall},
		{41, PopularityMedium},
		{60, PopularityMedium},
		{61, PopularityLarge},
		{80, PopularityLarge},
		{81, PopularityHuge},
		{100, PopularityHuge},
	}

	for _, tt := range tests {
		if got := PopularityFor(tt.percent); got != tt.want {
			t.Errorf("PopularityFor(%d) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestDateCountYearMonth(t *testing.T) {
	dc := DateCount{Month: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), Count: 1}
	if got := dc.YearMonth(); got != "2020-02" {
		t.Errorf("YearMonth: got %q, want %q", got, "2020-02")
	}

	tc := TagCount{Tag: "go", Class: PopularityHuge}
	if got := tc.CSSClass(); got != "tag-cloud-huge" {
		t.Errorf("CSSClass: got %q", got)
	}
}
