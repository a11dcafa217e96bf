// Package pipeline turns a raw backend result set into the display view:
// tag filter, download-range filter, sort, limit, then grouping.
package pipeline

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/modelsearch/internal/domain/filter"
	"github.com/kailas-cloud/modelsearch/internal/domain/group"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// GroupView is a display group with its summary.
type GroupView struct {
	Group group.Group
	Stats group.Stats
}

// View is the display-ready result of one pipeline run.
type View struct {
	// Items is the filtered, sorted, capped sequence.
	Items []item.Item
	// Groups partitions Items by base name in first-occurrence order.
	Groups []GroupView
}

// Apply filters, sorts and caps raw according to st. raw is never modified.
func Apply(raw []item.Item, st filter.State) []item.Item {
	out := make([]item.Item, 0, len(raw))

	selected := st.SelectedTags()
	downloads := st.Downloads()
	for _, it := range raw {
		if len(selected) > 0 && !hasAnyTag(it, selected) {
			continue
		}
		// Absent counters compare as 0.
		if !downloads.Contains(it.Downloads()) {
			continue
		}
		out = append(out, it)
	}

	sortItems(out, st.Sort())

	if len(out) > st.Limit() {
		out = out[:st.Limit()]
	}
	return out
}

// Run applies the pipeline and groups the capped output. Groups are built
// after truncation, so a group may show fewer members than raw holds.
func Run(raw []item.Item, st filter.State) View {
	items := Apply(raw, st)
	groups := group.ByBaseName(items)
	views := make([]GroupView, len(groups))
	for i, g := range groups {
		views[i] = GroupView{Group: g, Stats: group.ComputeStats(g)}
	}
	return View{Items: items, Groups: views}
}

func hasAnyTag(it item.Item, selected []string) bool {
	for _, t := range selected {
		if it.HasTag(t) {
			return true
		}
	}
	return false
}

func sortItems(items []item.Item, mode filter.SortMode) {
	switch mode {
	case filter.SortRelevance:
		slices.SortStableFunc(items, func(a, b item.Item) int {
			return cmp.Compare(a.Distance(), b.Distance())
		})
	case filter.SortDownloadsDesc:
		slices.SortStableFunc(items, func(a, b item.Item) int {
			return cmp.Compare(b.Downloads(), a.Downloads())
		})
	case filter.SortDownloadsAsc:
		slices.SortStableFunc(items, func(a, b item.Item) int {
			return cmp.Compare(a.Downloads(), b.Downloads())
		})
	default:
		// Unrecognized modes keep backend order.
	}
}
