package registry

import (
	"context"
	"sync"

	"github.com/kailas-cloud/repertoire/internal/domain/writer"
)

type mockRepo struct {
	createFn func(ctx context.Context, w writer.Writer) error
	getFn    func(ctx context.Context, id string) (writer.Writer, error)
	updateFn func(ctx context.Context, w writer.Writer) error
	deleteFn func(ctx context.Context, id string) error
	pageFn   func(ctx context.Context, filter string, page, pageSize int) ([]writer.Writer, error)
	countFn  func(ctx context.Context, filter string) (int, error)
}

func (m *mockRepo) Create(ctx context.Context, w writer.Writer) error { return m.createFn(ctx, w) }
func (m *mockRepo) Get(ctx context.Context, id string) (writer.Writer, error) {
	return m.getFn(ctx, id)
}
func (m *mockRepo) Update(ctx context.Context, w writer.Writer) error { return m.updateFn(ctx, w) }
func (m *mockRepo) Delete(ctx context.Context, id string) error       { return m.deleteFn(ctx, id) }
func (m *mockRepo) Page(ctx context.Context, filter string, page, pageSize int) ([]writer.Writer, error) {
	return m.pageFn(ctx, filter, page, pageSize)
}
func (m *mockRepo) Count(ctx context.Context, filter string) (int, error) {
	return m.countFn(ctx, filter)
}

type mockIndex struct {
	searchFn func(ctx context.Context, query string, page, pageSize int) (*writer.Page, error)
	calls    int
}

func (m *mockIndex) Search(ctx context.Context, query string, page, pageSize int) (*writer.Page, error) {
	m.calls++
	return m.searchFn(ctx, query, page, pageSize)
}

type dispatchCall struct {
	action   string
	writerID string
}

type mockDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (m *mockDispatcher) Upsert(writerID string) { m.record("upsert", writerID) }
func (m *mockDispatcher) Delete(writerID string) { m.record("delete", writerID) }

func (m *mockDispatcher) record(action, writerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, dispatchCall{action, writerID})
}

func (m *mockDispatcher) snapshot() []dispatchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dispatchCall(nil), m.calls...)
}

func storedWriter(id, first, last string) writer.Writer {
	return writer.Reconstruct(id, writer.Fields{FirstName: first, LastName: last, Active: true}, fixedTime())
}
