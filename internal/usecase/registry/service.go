// Package registry orchestrates writer reads across the search index and the
// authoritative store, and sequences store writes with index reconciliation.
package registry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/repertoire/internal/domain/writer"
	"github.com/kailas-cloud/repertoire/internal/metrics"
)

// Source tags which backend served a read.
type Source string

const (
	// SourceIndex means the hosted search index served the result.
	SourceIndex Source = "index"
	// SourceRelational means the authoritative store served the result.
	SourceRelational Source = "relational"
)

// Fallback reasons recorded on relational-sourced results.
const (
	ReasonNoFilter      = "no_filter"
	ReasonIndexError    = "index_error"
	ReasonIndexDisabled = "index_disabled"
	ReasonIndexSkipped  = "index_skipped"
)

// Query is one read intent: an optional free-text filter plus a page cursor.
type Query struct {
	Filter   string
	Page     int
	PageSize int
}

// Result is a tagged read result: the slice, its provenance, and — when the
// store served it — why the index did not.
type Result struct {
	Writers        []writer.Writer
	Total          int
	Page           int
	PageSize       int
	Source         Source
	FallbackReason string
}

// Service is the search-and-sync facade over store, index, and dispatcher.
type Service struct {
	repo            Repository
	index           IndexSearcher
	sync            Dispatcher
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// New creates the registry service. index and sync may be nil: reads then
// always come from the store and writes skip reconciliation.
func New(repo Repository, index IndexSearcher, sync Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:            repo,
		index:           index,
		sync:            sync,
		logger:          logger,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search serves one read. Non-blank filters try the search index first; an
// index failure falls back to the store silently (the result only records the
// reason). Blank filters browse the store directly: the index is a search
// optimization, not a listing mechanism.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}

	filter := strings.TrimSpace(q.Filter)

	reason := ReasonNoFilter
	if filter != "" {
		switch {
		case s.index == nil:
			reason = ReasonIndexDisabled
		default:
			hits, err := s.index.Search(ctx, filter, page, size)
			switch {
			case err != nil:
				reason = ReasonIndexError
				metrics.IndexFallbacksTotal.WithLabelValues(reason).Inc()
				s.logger.Warn("search index unavailable, serving from store",
					zap.String("filter", filter),
					zap.Error(err),
				)
			case hits != nil:
				metrics.SearchSourceTotal.WithLabelValues(string(SourceIndex)).Inc()
				return Result{
					Writers:  hits.Writers,
					Total:    hits.Total,
					Page:     page,
					PageSize: size,
					Source:   SourceIndex,
				}, nil
			default:
				// Accessor declined to search (defensive: blank after trim).
				reason = ReasonIndexSkipped
			}
		}
	}

	// Count and page are independent reads with no mutual ordering; run them
	// concurrently. Slight disagreement under concurrent writes is accepted.
	var (
		writers []writer.Writer
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		writers, err = s.repo.Page(gctx, filter, page, size)
		if err != nil {
			return fmt.Errorf("page writers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count writers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	metrics.SearchSourceTotal.WithLabelValues(string(SourceRelational)).Inc()
	return Result{
		Writers:        writers,
		Total:          total,
		Page:           page,
		PageSize:       size,
		Source:         SourceRelational,
		FallbackReason: reason,
	}, nil
}

// Get returns one writer from the authoritative store.
func (s *Service) Get(ctx context.Context, id string) (writer.Writer, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return writer.Writer{}, fmt.Errorf("get writer: %w", err)
	}
	return w, nil
}

// Create validates and persists a new writer, then dispatches an index
// upsert. The dispatch happens only after the store write returned success.
func (s *Service) Create(ctx context.Context, f writer.Fields) (writer.Writer, error) {
	w, err := writer.New(f)
	if err != nil {
		return writer.Writer{}, err
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return writer.Writer{}, fmt.Errorf("create writer: %w", err)
	}

	s.dispatchUpsert(w.ID())
	return w, nil
}

// Update replaces the editable fields of an existing writer, then dispatches
// an index upsert.
func (s *Service) Update(ctx context.Context, id string, f writer.Fields) (writer.Writer, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return writer.Writer{}, fmt.Errorf("get writer: %w", err)
	}

	updated, err := current.Apply(f)
	if err != nil {
		return writer.Writer{}, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return writer.Writer{}, fmt.Errorf("update writer: %w", err)
	}

	s.dispatchUpsert(id)
	return updated, nil
}

// Delete removes a writer from the store, then dispatches an index delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete writer: %w", err)
	}

	if s.sync != nil {
		s.sync.Delete(id)
	}
	return nil
}

func (s *Service) dispatchUpsert(id string) {
	if s.sync != nil {
		s.sync.Upsert(id)
	}
}
