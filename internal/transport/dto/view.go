// Package dto holds the JSON shapes shared by the HTTP API and the CLI.
package dto

import (
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
	"github.com/kailas-cloud/modelsearch/internal/domain/tag"
	"github.com/kailas-cloud/modelsearch/internal/usecase/pipeline"
	"github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

// Item is one search result.
type Item struct {
	ID          string   `json:"id"`
	Tags        []string `json:"tags"`
	DisplayTags []string `json:"display_tags"`
	Downloads   *int64   `json:"downloads"`
	Distance    float64  `json:"distance"`
	Relevance   float64  `json:"relevance"`
	Description string   `json:"description,omitempty"`
	ProfileURL  string   `json:"profile_url"`
}

// GroupStats summarizes a group.
type GroupStats struct {
	MinDownloads       *int64   `json:"min_downloads"`
	MaxDownloads       *int64   `json:"max_downloads"`
	BestDistance       float64  `json:"best_distance"`
	RepresentativeTags []string `json:"representative_tags"`
}

// Group is a base-name group of results.
type Group struct {
	BaseName string     `json:"base_name"`
	Size     int        `json:"size"`
	Stats    GroupStats `json:"stats"`
	Items    []Item     `json:"items"`
}

// Range is an inclusive download bound.
type Range struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// Filter is the active filter state.
type Filter struct {
	SelectedTags []string `json:"selected_tags"`
	Downloads    Range    `json:"downloads"`
	Sort         string   `json:"sort"`
	Limit        int      `json:"limit"`
}

// Facets drives filter controls.
type Facets struct {
	AvailableTags []string `json:"available_tags"`
	MaxDownloads  int64    `json:"max_downloads"`
}

// View is a full session snapshot.
type View struct {
	Seq      uint64  `json:"seq"`
	Query    string  `json:"query"`
	Loading  bool    `json:"loading"`
	Error    string  `json:"error,omitempty"`
	Total    int     `json:"total"`
	Facets   Facets  `json:"facets"`
	Filter   Filter  `json:"filter"`
	Groups   []Group `json:"groups"`
	Selected *Item   `json:"selected,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorCode classifies API errors.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeInvalidFilter      ErrorCode = "invalid_filter"
	ErrorCodeEmptyQuery         ErrorCode = "empty_query"
	ErrorCodeDuplicateSearch    ErrorCode = "duplicate_search"
	ErrorCodeUnknownItem        ErrorCode = "unknown_item"
	ErrorCodeBackendUnavailable ErrorCode = "backend_unavailable"
	ErrorCodeBackendError       ErrorCode = "backend_error"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// FromSnapshot renders a session snapshot. profileHost prefixes item links.
func FromSnapshot(snap session.Snapshot, profileHost string) View {
	rng := snap.Filter.Downloads()
	v := View{
		Seq:     snap.Seq,
		Query:   snap.Query,
		Loading: snap.Loading,
		Error:   snap.Err,
		Total:   len(snap.Items),
		Facets: Facets{
			AvailableTags: nonNil(snap.Facets.AvailableTags),
			MaxDownloads:  snap.Facets.MaxDownloads,
		},
		Filter: Filter{
			SelectedTags: nonNil(snap.Filter.SelectedTags()),
			Downloads:    Range{Low: rng.Low, High: rng.High},
			Sort:         string(snap.Filter.Sort()),
			Limit:        snap.Filter.Limit(),
		},
		Groups: make([]Group, 0, len(snap.Groups)),
	}
	for _, g := range snap.Groups {
		v.Groups = append(v.Groups, FromGroup(g, profileHost))
	}
	if snap.Selected != nil {
		sel := FromItem(*snap.Selected, profileHost)
		v.Selected = &sel
	}
	return v
}

// FromGroup renders one group with its stats.
func FromGroup(g pipeline.GroupView, profileHost string) Group {
	out := Group{
		BaseName: g.Group.BaseName(),
		Size:     g.Group.Len(),
		Stats: GroupStats{
			BestDistance:       g.Stats.BestDistance,
			RepresentativeTags: nonNil(g.Stats.RepresentativeTags),
		},
		Items: make([]Item, 0, g.Group.Len()),
	}
	if g.Stats.HasDownloads {
		lo, hi := g.Stats.MinDownloads, g.Stats.MaxDownloads
		out.Stats.MinDownloads, out.Stats.MaxDownloads = &lo, &hi
	}
	for _, it := range g.Group.Items() {
		out.Items = append(out.Items, FromItem(it, profileHost))
	}
	return out
}

// FromItem renders one result.
func FromItem(it item.Item, profileHost string) Item {
	out := Item{
		ID:          it.ID(),
		Tags:        nonNil(it.Tags()),
		DisplayTags: nonNil(tag.Displayable(it.Tags())),
		Distance:    it.Distance(),
		Relevance:   it.Relevance(),
		Description: it.Description(),
		ProfileURL:  it.ProfileURL(profileHost),
	}
	if it.HasDownloads() {
		d := it.Downloads()
		out.Downloads = &d
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
