package filter

// SortMode orders the filtered result set.
type SortMode string

// Sort mode constants.
const (
	// SortRelevance orders by ascending distance.
	SortRelevance     SortMode = "relevance"
	SortDownloadsDesc SortMode = "downloads-desc"
	SortDownloadsAsc  SortMode = "downloads-asc"
)

// IsValid checks if the mode is one of the recognized values. Unrecognized
// modes are still accepted by the pipeline and leave the order untouched.
func (m SortMode) IsValid() bool {
	return m == SortRelevance || m == SortDownloadsDesc || m == SortDownloadsAsc
}
