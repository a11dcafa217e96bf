package item

import (
	"slices"
	"strings"
)

// Item is a single search hit returned by the backend.
type Item struct {
	id           string
	tags         []string
	downloads    int64
	hasDownloads bool
	distance     float64
	description  string
}

// New creates an item. A nil downloads pointer marks the counter as absent.
func New(id string, tags []string, downloads *int64, distance float64, description string) Item {
	it := Item{id: id, tags: slices.Clone(tags), distance: distance, description: description}
	if downloads != nil {
		it.downloads = *downloads
		it.hasDownloads = true
	}
	return it
}

// ID returns the identifier, the grouping and selection key.
func (i Item) ID() string { return i.id }

// Tags returns a copy of the tags in source order. Absent tags are nil.
func (i Item) Tags() []string { return slices.Clone(i.tags) }

// Downloads returns the download counter, 0 when absent.
func (i Item) Downloads() int64 { return i.downloads }

// HasDownloads reports whether the backend supplied a download counter.
func (i Item) HasDownloads() bool { return i.hasDownloads }

// Distance returns the relevance distance; lower is better.
func (i Item) Distance() float64 { return i.distance }

// Relevance returns the display heuristic 1 - distance.
func (i Item) Relevance() float64 { return 1 - i.distance }

// Description returns the free-text description, empty when absent.
func (i Item) Description() string { return i.description }

// HasTag reports whether the item carries tag exactly.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ProfileURL composes the external profile page URL for the item.
func (i Item) ProfileURL(host string) string {
	return strings.TrimRight(host, "/") + "/" + i.id
}
