package respcache

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// cachedItem is the stored form of an item.
type cachedItem struct {
	ID          string   `json:"id"`
	Tags        []string `json:"tags,omitempty"`
	Downloads   *int64   `json:"downloads,omitempty"`
	Distance    float64  `json:"distance"`
	Description string   `json:"description,omitempty"`
}

func encodeItems(items []item.Item) ([]byte, error) {
	out := make([]cachedItem, len(items))
	for i, it := range items {
		ci := cachedItem{
			ID:          it.ID(),
			Tags:        it.Tags(),
			Distance:    it.Distance(),
			Description: it.Description(),
		}
		if it.HasDownloads() {
			d := it.Downloads()
			ci.Downloads = &d
		}
		out[i] = ci
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal cached items: %w", err)
	}
	return data, nil
}

func decodeItems(data []byte) ([]item.Item, error) {
	var in []cachedItem
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("unmarshal cached items: %w", err)
	}
	items := make([]item.Item, len(in))
	for i, ci := range in {
		items[i] = item.New(ci.ID, ci.Tags, ci.Downloads, ci.Distance, ci.Description)
	}
	return items, nil
}
