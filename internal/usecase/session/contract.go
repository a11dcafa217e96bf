package session

import (
	"context"

	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// Searcher queries the external search backend.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]item.Item, error)
}
