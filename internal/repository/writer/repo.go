// Package writer implements the authoritative store accessor for writer
// records: one hash per record plus an FT index for ordered, filtered,
// paginated listing.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/repertoire/internal/db"
	"github.com/kailas-cloud/repertoire/internal/domain"
	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
)

const (
	keyPrefix = "writers:"
	indexName = "writers:idx"
)

// store is the consumer interface for writer records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/registry.Repository.
type Repo struct {
	store store
}

// New creates a writer repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the writers FT index if it does not exist yet.
// Safe to call on every startup.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "display_name", Type: db.FieldText, Sortable: true, SuffixTrie: true},
			{Name: "affiliation", Type: db.FieldTag},
			{Name: "active", Type: db.FieldTag},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Create persists a new writer. The identity key must not be taken.
func (r *Repo) Create(ctx context.Context, w domwriter.Writer) error {
	key := writerKey(w.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, key, buildHashFields(w)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a writer by identity key.
func (r *Repo) Get(ctx context.Context, id string) (domwriter.Writer, error) {
	key := writerKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domwriter.Writer{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domwriter.Writer{}, domain.ErrWriterNotFound
	}
	return parseHashFields(id, m), nil
}

// Update overwrites the editable fields of an existing writer.
func (r *Repo) Update(ctx context.Context, w domwriter.Writer) error {
	key := writerKey(w.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrWriterNotFound
	}

	if err := r.store.HSet(ctx, key, buildHashFields(w)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Delete removes a writer.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := writerKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrWriterNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Page returns one name-ordered page of writers matching the optional
// substring filter on display name. Pages are 1-based.
func (r *Repo) Page(ctx context.Context, filter string, page, pageSize int) ([]domwriter.Writer, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	result, err := r.store.SearchList(ctx, &db.ListQuery{
		Index:  indexName,
		Query:  buildNameQuery(filter),
		SortBy: "display_name",
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list writers: %w", err)
	}
	if result == nil || len(result.Entries) == 0 {
		return nil, nil
	}

	writers := make([]domwriter.Writer, 0, len(result.Entries))
	for _, entry := range result.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		writers = append(writers, parseHashFields(id, entry.Fields))
	}
	return writers, nil
}

// Count returns the number of writers matching the optional filter.
func (r *Repo) Count(ctx context.Context, filter string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, buildNameQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count writers: %w", err)
	}
	return n, nil
}

func writerKey(id string) string {
	return keyPrefix + id
}

// buildNameQuery translates a free-text filter into an FT infix query over
// display_name. Each whitespace-separated token must match somewhere in the
// name; matching is case-insensitive by FT TEXT normalization.
func buildNameQuery(filter string) string {
	trimmed := strings.TrimSpace(filter)
	if trimmed == "" {
		return "*"
	}

	tokens := strings.Fields(trimmed)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		escaped := escapeToken(tok)
		if escaped == "" {
			continue
		}
		parts = append(parts, "*"+escaped+"*")
	}
	if len(parts) == 0 {
		return "*"
	}
	return fmt.Sprintf("@display_name:(%s)", strings.Join(parts, " "))
}

// escapeToken backslash-escapes FT query syntax characters.
func escapeToken(tok string) string {
	var b strings.Builder
	for _, r := range tok {
		switch r {
		case ',', '.', '<', '>', '{', '}', '[', ']', '"', '\'', ':', ';',
			'!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+',
			'=', '~', '|', '/', '\\', '?':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
