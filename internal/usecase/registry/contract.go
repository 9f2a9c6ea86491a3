package registry

import (
	"context"

	"github.com/kailas-cloud/repertoire/internal/domain/writer"
)

// Repository is the authoritative store contract.
type Repository interface {
	Create(ctx context.Context, w writer.Writer) error
	Get(ctx context.Context, id string) (writer.Writer, error)
	Update(ctx context.Context, w writer.Writer) error
	Delete(ctx context.Context, id string) error
	Page(ctx context.Context, filter string, page, pageSize int) ([]writer.Writer, error)
	Count(ctx context.Context, filter string) (int, error)
}

// IndexSearcher is the hosted search index contract. A (nil, nil) return
// means no search was performed; any error is a soft failure.
type IndexSearcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (*writer.Page, error)
}

// Dispatcher mirrors confirmed store writes into the search index,
// fire-and-forget.
type Dispatcher interface {
	Upsert(writerID string)
	Delete(writerID string)
}
