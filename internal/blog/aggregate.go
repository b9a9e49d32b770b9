package blog

import (
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"picoblog/internal/models"
)

// TagCounts builds the tag cloud for a list of published articles. Every
// occurrence of a tag counts, including repeats within one article. The result is sorted by tag name; the
// cloud shown on pages is shuffled separately.
func TagCounts(articles []models.Article) []models.TagCount {
	counts := map[string]int{}
	for _, a := range articles {
		if a.Draft {
			continue
		}
		for _, tag := range a.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	if len(counts) == 0 {
		return []models.TagCount{}
	}

	highest := 0
	for _, n := range counts {
		highest = max(highest, n)
	}

	out := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		percent := n * 100 / highest
		out = append(out, models.TagCount{
			Tag:     tag,
			Count:   n,
			Percent: percent,
			Class:   models.PopularityFor(percent),
		})
	}
	slices.SortFunc(out, func(a, b models.TagCount) int {
		return strings.Compare(a.Tag, b.Tag)
	})
	return out
}

// MonthCounts buckets published articles by the UTC year and month of their
// publish time, newest month first.
func MonthCounts(articles []models.Article) []models.DateCount {
	counts := map[time.Time]int{}
	for _, a := range articles {
		if a.Draft {
			continue
		}
		counts[MonthStart(a.PublishedWhen)]++
	}

	out := make([]models.DateCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, models.DateCount{Month: month, Count: n})
	}
	slices.SortFunc(out, func(a, b models.DateCount) int {
		return b.Month.Compare(a.Month)
	})
	return out
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func shuffleTags(tags []models.TagCount) {
	rand.Shuffle(len(tags), func(i, j int) {
		tags[i], tags[j] = tags[j], tags[i]
	})
}
