// Package facet derives filter-control inputs from an unfiltered result set.
package facet

import (
	"slices"

	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/domain/tag"
)

// Facets drives the filter controls.
type Facets struct {
	// AvailableTags is the sorted set of displayable tags.
	AvailableTags []string
	// MaxDownloads is the upper bound of the download range control.
	MaxDownloads int64
}

// Extract scans raw, the unfiltered backend result set. Passing a filtered
// view would hide tags the user could otherwise reach.
func Extract(raw []item.Item) Facets {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	var maxDownloads int64
	for _, it := range raw {
		for _, t := range it.Tags() {
			if !tag.IsDisplayable(t) {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
		if it.HasDownloads() {
			maxDownloads = max(maxDownloads, it.Downloads())
		}
	}
	slices.Sort(tags)
	return Facets{AvailableTags: tags, MaxDownloads: maxDownloads}
}

// HasTag reports whether t is part of the available tag universe.
func (f Facets) HasTag(t string) bool {
	_, found := slices.BinarySearch(f.AvailableTags, t)
	return found
}
