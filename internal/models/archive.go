package models

import "time"

// Popularity buckets a tag's frequency relative to the most used tag.
type Popularity string

const (
	PopularityTiny   Popularity = "tiny"
	PopularitySmall  Popularity = "small"
	PopularityMedium Popularity = "medium"
	PopularityLarge  Popularity = "large"
	PopularityHuge   Popularity = "huge"
)

// PopularityFor maps a percentage of the maximum tag count to its bucket.
// Upper bounds are inclusive.
func PopularityFor(percent int) Popularity {
	switch {
	case percent <= 20:
		return PopularityTiny
	case percent <= 40:
		return PopularitySmall
	case percent <= 60:
		return PopularityMedium
	case percent <= 80:
		return PopularityLarge
	default:
		return PopularityHuge
	}
}

// TagCount is one entry of the tag cloud. It is computed per request and
// never persisted.
type TagCount struct {
	Tag     string
	Count   int
	Percent int
	Class   Popularity
}

// CSSClass returns the stylesheet class used by the tag cloud.
func (tc TagCount) CSSClass() string {
	return "tag-cloud-" + string(tc.Class)
}

// DateCount is one month of the date archive. Month is the first instant of
// the month in UTC.
type DateCount struct {
	Month time.Time
	Count int
}

// YearMonth formats the bucket the way archive URLs expect it: "2006-01".
func (dc DateCount) YearMonth() string {
	return dc.Month.Format("2006-01")
}
