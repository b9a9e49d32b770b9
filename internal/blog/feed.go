package blog

import (
	"fmt"

	"github.com/gorilla/feeds"
)

// RSS renders a feed page context as an RSS 2.0 document.
func RSS(pc *PageContext) (string, error) {
	feed := &feeds.Feed{
		Title:       pc.BlogName,
		Link:        &feeds.Link{Href: pc.BlogURL},
		Description: pc.Description,
		Author:      &feeds.Author{Name: pc.BlogOwner},
		Updated:     pc.LastUpdated,
		Created:     pc.LastUpdated,
	}

	feed.Items = make([]*feeds.Item, 0, len(pc.Articles))
	for _, a := range pc.Articles {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.URL},
			Id:          a.URL,
			Description: string(a.HTML),
			Created:     a.PublishedWhen,
		})
	}

	out, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return out, nil
}
