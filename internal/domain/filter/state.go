// Package filter holds the immutable filter-state snapshot and its transitions.
package filter

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/modelsearch/internal/domain"
)

// DefaultLimit is the result cap after a reset.
const DefaultLimit = 40

// Range is an inclusive download bound.
type Range struct {
	Low  int64
	High int64
}

// Contains reports whether v lies in [Low, High].
func (r Range) Contains(v int64) bool { return v >= r.Low && v <= r.High }

// State is a filter snapshot. Transitions return a new State and never
// modify the receiver.
type State struct {
	selectedTags []string
	downloads    Range
	sort         SortMode
	limit        int
}

// Default returns the reset state for a result set whose largest download
// counter is maxDownloads.
func Default(maxDownloads int64) State {
	return State{
		downloads: Range{Low: 0, High: maxDownloads},
		sort:      SortRelevance,
		limit:     DefaultLimit,
	}
}

// New validates and creates a State.
func New(selectedTags []string, downloads Range, sort SortMode, limit int) (State, error) {
	if err := validateRange(downloads); err != nil {
		return State{}, err
	}
	if err := validateLimit(limit); err != nil {
		return State{}, err
	}
	s := State{downloads: downloads, sort: sort, limit: limit}
	for _, t := range selectedTags {
		if !slices.Contains(s.selectedTags, t) {
			s.selectedTags = append(s.selectedTags, t)
		}
	}
	return s, nil
}

// SelectedTags returns the selected tags in selection order.
func (s State) SelectedTags() []string { return slices.Clone(s.selectedTags) }

// IsSelected reports whether t is selected.
func (s State) IsSelected(t string) bool { return slices.Contains(s.selectedTags, t) }

// Downloads returns the inclusive download range.
func (s State) Downloads() Range { return s.downloads }

// Sort returns the sort mode.
func (s State) Sort() SortMode { return s.sort }

// Limit returns the result cap.
func (s State) Limit() int { return s.limit }

// ToggleTag selects t, or deselects it when already selected.
func (s State) ToggleTag(t string) State {
	next := s
	if i := slices.Index(s.selectedTags, t); i >= 0 {
		next.selectedTags = slices.Delete(slices.Clone(s.selectedTags), i, i+1)
		return next
	}
	next.selectedTags = append(slices.Clone(s.selectedTags), t)
	return next
}

// WithDownloads replaces the download range.
func (s State) WithDownloads(r Range) (State, error) {
	if err := validateRange(r); err != nil {
		return s, err
	}
	next := s
	next.downloads = r
	return next, nil
}

// WithSort replaces the sort mode.
func (s State) WithSort(m SortMode) State {
	next := s
	next.sort = m
	return next
}

// WithLimit replaces the result cap.
func (s State) WithLimit(n int) (State, error) {
	if err := validateLimit(n); err != nil {
		return s, err
	}
	next := s
	next.limit = n
	return next, nil
}

func validateRange(r Range) error {
	if r.Low < 0 {
		return fmt.Errorf("%w: download range low bound %d is negative", domain.ErrInvalidFilter, r.Low)
	}
	if r.Low > r.High {
		return fmt.Errorf("%w: download range [%d, %d] is inverted", domain.ErrInvalidFilter, r.Low, r.High)
	}
	return nil
}

func validateLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: result limit must be positive, got %d", domain.ErrInvalidFilter, n)
	}
	return nil
}
