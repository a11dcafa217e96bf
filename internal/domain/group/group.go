// Package group partitions items by base name and summarises each partition.
package group

import (
	"slices"

	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// Group is a set of items sharing a base name, in input order.
type Group struct {
	baseName string
	items    []item.Item
}

// BaseName returns the grouping key.
func (g Group) BaseName() string { return g.baseName }

// Items returns a copy of the members in input order.
func (g Group) Items() []item.Item { return slices.Clone(g.items) }

// Len returns the number of members.
func (g Group) Len() int { return len(g.items) }

// IsSingle reports whether the group is degenerate (one member).
func (g Group) IsSingle() bool { return len(g.items) == 1 }

// ByBaseName partitions items by BaseName. Groups are ordered by the first
// occurrence of their key in items; members keep their relative order.
func ByBaseName(items []item.Item) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, it := range items {
		key := BaseName(it.ID())
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{baseName: key})
		}
		groups[pos].items = append(groups[pos].items, it)
	}
	return groups
}

// Stats summarises a group.
type Stats struct {
	// MinDownloads and MaxDownloads cover members that carry a counter.
	MinDownloads int64
	MaxDownloads int64
	// HasDownloads is false when no member carries a counter.
	HasDownloads bool
	// BestDistance is the minimum distance in the group.
	BestDistance float64
	// RepresentativeTags are the tags of the member achieving BestDistance.
	RepresentativeTags []string
	// Best is the member achieving BestDistance; ties go to the earliest member.
	Best item.Item
}

// ComputeStats summarises g. It panics on an empty group, which ByBaseName
// never produces.
func ComputeStats(g Group) Stats {
	if len(g.items) == 0 {
		panic("group: ComputeStats called with an empty group")
	}

	var s Stats
	for _, it := range g.items {
		if !it.HasDownloads() {
			continue
		}
		d := it.Downloads()
		if !s.HasDownloads {
			s.MinDownloads, s.MaxDownloads, s.HasDownloads = d, d, true
			continue
		}
		s.MinDownloads = min(s.MinDownloads, d)
		s.MaxDownloads = max(s.MaxDownloads, d)
	}

	byDistance := slices.Clone(g.items)
	slices.SortStableFunc(byDistance, func(a, b item.Item) int {
		switch {
		case a.Distance() < b.Distance():
			return -1
		case a.Distance() > b.Distance():
			return 1
		default:
			return 0
		}
	})
	s.Best = byDistance[0]
	s.BestDistance = s.Best.Distance()
	s.RepresentativeTags = s.Best.Tags()
	return s
}
