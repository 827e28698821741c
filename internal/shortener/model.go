package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Link binds a long URL to a short key. All fields are fixed at creation;
// the only mutation a link ever sees is deletion.
type Link struct {
	ID        uuid.UUID
	URL       string
	Key       string
	CreatedAt time.Time
}

// CreateResult is the outcome of Service.Create. Duplicate is set when the
// URL was already mapped and Link is the existing record.
type CreateResult struct {
	Link      Link
	Duplicate bool
}

type filterField uint8

const (
	filterAll filterField = iota
	filterURL
	filterKey
)

// Filter selects links for Repository.List. The zero value matches every
// link; ByURL and ByKey are the only other predicates.
type Filter struct {
	field filterField
	value string
}

// ByURL matches the link whose long URL equals u exactly.
func ByURL(u string) Filter { return Filter{field: filterURL, value: u} }

// ByKey matches the link whose short key equals k exactly.
func ByKey(k string) Filter { return Filter{field: filterKey, value: k} }

// Match reports whether l satisfies the filter.
func (f Filter) Match(l Link) bool {
	switch f.field {
	case filterURL:
		return l.URL == f.value
	case filterKey:
		return l.Key == f.value
	default:
		return true
	}
}

func (f Filter) String() string {
	switch f.field {
	case filterURL:
		return "url=" + f.value
	case filterKey:
		return "key=" + f.value
	default:
		return "all"
	}
}
