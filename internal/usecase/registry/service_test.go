package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/domain"
	"github.com/kailas-cloud/repertoire/internal/domain/writer"
)

func fixedTime() time.Time {
	return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
}

func storeBacked(writers []writer.Writer, total int) *mockRepo {
	return &mockRepo{
		pageFn: func(_ context.Context, _ string, _, _ int) ([]writer.Writer, error) {
			return writers, nil
		},
		countFn: func(_ context.Context, _ string) (int, error) {
			return total, nil
		},
	}
}

func TestSearch_IndexServesNonBlankFilter(t *testing.T) {
	hit := storedWriter("w-1", "John", "Cage")
	idx := &mockIndex{
		searchFn: func(_ context.Context, query string, page, pageSize int) (*writer.Page, error) {
			if query != "cage" || page != 2 || pageSize != 10 {
				t.Errorf("unexpected index query: %q page=%d size=%d", query, page, pageSize)
			}
			return &writer.Page{Writers: []writer.Writer{hit}, Total: 41}, nil
		},
	}
	repo := &mockRepo{
		pageFn: func(context.Context, string, int, int) ([]writer.Writer, error) {
			t.Fatal("store must not be read when the index answered")
			return nil, nil
		},
		countFn: func(context.Context, string) (int, error) { return 0, nil },
	}

	s := New(repo, idx, nil, zap.NewNop())
	res, err := s.Search(context.Background(), Query{Filter: "cage", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceIndex {
		t.Errorf("source: got %q, want %q", res.Source, SourceIndex)
	}
	if res.FallbackReason != "" {
		t.Errorf("fallback reason must be empty on index results, got %q", res.FallbackReason)
	}
	if res.Total != 41 || len(res.Writers) != 1 || res.Writers[0].ID() != "w-1" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSearch_BlankFilterSkipsIndex(t *testing.T) {
	idx := &mockIndex{
		searchFn: func(context.Context, string, int, int) (*writer.Page, error) {
			t.Fatal("index must not be queried for a blank filter")
			return nil, nil
		},
	}
	repo := storeBacked([]writer.Writer{storedWriter("w-1", "Ada", "Byron")}, 7)

	s := New(repo, idx, nil, zap.NewNop())
	res, err := s.Search(context.Background(), Query{Filter: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceRelational {
		t.Errorf("source: got %q", res.Source)
	}
	if res.FallbackReason != ReasonNoFilter {
		t.Errorf("reason: got %q, want %q", res.FallbackReason, ReasonNoFilter)
	}
	if res.Total != 7 {
		t.Errorf("total: got %d", res.Total)
	}
}

func TestSearch_IndexErrorFallsBackSilently(t *testing.T) {
	idx := &mockIndex{
		searchFn: func(context.Context, string, int, int) (*writer.Page, error) {
			return nil, errors.New("search backend timeout: " + domain.ErrIndexUnavailable.Error())
		},
	}
	repo := storeBacked([]writer.Writer{storedWriter("w-2", "Clara", "Schumann")}, 1)

	s := New(repo, idx, nil, zap.NewNop())
	res, err := s.Search(context.Background(), Query{Filter: "schumann"})
	if err != nil {
		t.Fatalf("index failure must never surface to the caller: %v", err)
	}
	if res.Source != SourceRelational {
		t.Errorf("source: got %q", res.Source)
	}
	if res.FallbackReason != ReasonIndexError {
		t.Errorf("reason: got %q, want %q", res.FallbackReason, ReasonIndexError)
	}
	if len(res.Writers) != 1 || res.Writers[0].ID() != "w-2" {
		t.Errorf("unexpected writers: %+v", res.Writers)
	}
}

func TestSearch_NilIndexReadsStore(t *testing.T) {
	repo := storeBacked(nil, 0)

	s := New(repo, nil, nil, zap.NewNop())
	res, err := s.Search(context.Background(), Query{Filter: "anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceRelational || res.FallbackReason != ReasonIndexDisabled {
		t.Errorf("got source=%q reason=%q", res.Source, res.FallbackReason)
	}
}

func TestSearch_IndexDeclinedFallsBack(t *testing.T) {
	idx := &mockIndex{
		searchFn: func(context.Context, string, int, int) (*writer.Page, error) {
			return nil, nil
		},
	}
	repo := storeBacked(nil, 0)

	s := New(repo, idx, nil, zap.NewNop())
	res, err := s.Search(context.Background(), Query{Filter: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FallbackReason != ReasonIndexSkipped {
		t.Errorf("reason: got %q, want %q", res.FallbackReason, ReasonIndexSkipped)
	}
}

func TestSearch_ClampsPagination(t *testing.T) {
	var gotPage, gotSize int
	repo := &mockRepo{
		pageFn: func(_ context.Context, _ string, page, size int) ([]writer.Writer, error) {
			gotPage, gotSize = page, size
			return nil, nil
		},
		countFn: func(context.Context, string) (int, error) { return 0, nil },
	}

	s := New(repo, nil, nil, zap.NewNop()).WithPagination(25, 50)

	if _, err := s.Search(context.Background(), Query{Page: 0, PageSize: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPage != 1 || gotSize != 25 {
		t.Errorf("defaults: got page=%d size=%d, want 1/25", gotPage, gotSize)
	}

	if _, err := s.Search(context.Background(), Query{Page: 3, PageSize: 500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPage != 3 || gotSize != 50 {
		t.Errorf("clamp: got page=%d size=%d, want 3/50", gotPage, gotSize)
	}
}

func TestSearch_StoreErrorPropagates(t *testing.T) {
	repo := &mockRepo{
		pageFn: func(context.Context, string, int, int) ([]writer.Writer, error) {
			return nil, errors.New("store down")
		},
		countFn: func(context.Context, string) (int, error) { return 0, nil },
	}

	s := New(repo, nil, nil, zap.NewNop())
	if _, err := s.Search(context.Background(), Query{}); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestCreate_DispatchesUpsertAfterWrite(t *testing.T) {
	var stored writer.Writer
	repo := &mockRepo{
		createFn: func(_ context.Context, w writer.Writer) error {
			stored = w
			return nil
		},
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	w, err := s.Create(context.Background(), writer.Fields{FirstName: "Nina", LastName: "Simone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID() == "" || w.ID() != stored.ID() {
		t.Errorf("returned writer must match the stored one: %q vs %q", w.ID(), stored.ID())
	}

	calls := disp.snapshot()
	if len(calls) != 1 || calls[0] != (dispatchCall{"upsert", w.ID()}) {
		t.Fatalf("expected exactly one upsert dispatch, got %+v", calls)
	}
}

func TestCreate_ValidationFailureSkipsStoreAndDispatch(t *testing.T) {
	repo := &mockRepo{
		createFn: func(context.Context, writer.Writer) error {
			t.Fatal("store must not be written for invalid fields")
			return nil
		},
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	_, err := s.Create(context.Background(), writer.Fields{FirstName: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(disp.snapshot()) != 0 {
		t.Error("no dispatch may happen when the write never ran")
	}
}

func TestCreate_StoreFailureSkipsDispatch(t *testing.T) {
	repo := &mockRepo{
		createFn: func(context.Context, writer.Writer) error {
			return domain.ErrAlreadyExists
		},
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	_, err := s.Create(context.Background(), writer.Fields{FirstName: "Nina"})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if len(disp.snapshot()) != 0 {
		t.Error("no dispatch may happen after a failed write")
	}
}

func TestUpdate_KeepsIdentityAndDispatchesOnce(t *testing.T) {
	current := storedWriter("w-7", "Miles", "Davis")
	var updated writer.Writer
	repo := &mockRepo{
		getFn: func(_ context.Context, id string) (writer.Writer, error) {
			if id != "w-7" {
				t.Errorf("get id: %q", id)
			}
			return current, nil
		},
		updateFn: func(_ context.Context, w writer.Writer) error {
			updated = w
			return nil
		},
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	w, err := s.Update(context.Background(), "w-7", writer.Fields{FirstName: "Miles", LastName: "Dewey Davis"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID() != "w-7" || updated.ID() != "w-7" {
		t.Errorf("identity must survive updates: %q / %q", w.ID(), updated.ID())
	}
	if !w.CreatedAt().Equal(current.CreatedAt()) {
		t.Error("creation timestamp must survive updates")
	}

	calls := disp.snapshot()
	if len(calls) != 1 || calls[0] != (dispatchCall{"upsert", "w-7"}) {
		t.Fatalf("expected exactly one upsert dispatch, got %+v", calls)
	}
}

func TestUpdate_MissingWriterSkipsDispatch(t *testing.T) {
	repo := &mockRepo{
		getFn: func(context.Context, string) (writer.Writer, error) {
			return writer.Writer{}, domain.ErrWriterNotFound
		},
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	_, err := s.Update(context.Background(), "nope", writer.Fields{FirstName: "X"})
	if !errors.Is(err, domain.ErrWriterNotFound) {
		t.Fatalf("expected ErrWriterNotFound, got %v", err)
	}
	if len(disp.snapshot()) != 0 {
		t.Error("no dispatch for a write that never ran")
	}
}

func TestDelete_DispatchesDeleteAfterWrite(t *testing.T) {
	repo := &mockRepo{
		deleteFn: func(context.Context, string) error { return nil },
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	if err := s.Delete(context.Background(), "w-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := disp.snapshot()
	if len(calls) != 1 || calls[0] != (dispatchCall{"delete", "w-9"}) {
		t.Fatalf("expected exactly one delete dispatch, got %+v", calls)
	}
}

func TestDelete_StoreFailureSkipsDispatch(t *testing.T) {
	repo := &mockRepo{
		deleteFn: func(context.Context, string) error { return domain.ErrWriterNotFound },
	}
	disp := &mockDispatcher{}

	s := New(repo, nil, disp, zap.NewNop())
	if err := s.Delete(context.Background(), "w-9"); !errors.Is(err, domain.ErrWriterNotFound) {
		t.Fatalf("expected ErrWriterNotFound, got %v", err)
	}
	if len(disp.snapshot()) != 0 {
		t.Error("no dispatch after a failed delete")
	}
}

func TestWritesWorkWithoutDispatcher(t *testing.T) {
	repo := &mockRepo{
		createFn: func(context.Context, writer.Writer) error { return nil },
		deleteFn: func(context.Context, string) error { return nil },
	}

	s := New(repo, nil, nil, zap.NewNop())
	if _, err := s.Create(context.Background(), writer.Fields{FirstName: "Solo"}); err != nil {
		t.Fatalf("create without dispatcher: %v", err)
	}
	if err := s.Delete(context.Background(), "w-1"); err != nil {
		t.Fatalf("delete without dispatcher: %v", err)
	}
}
