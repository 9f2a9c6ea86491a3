package repertoire

import (
	"context"
	"fmt"
	"time"

	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
	registryuc "github.com/kailas-cloud/repertoire/internal/usecase/registry"
)

// Writer is a registered rights-holding writer.
type Writer struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
	Affiliation string
	IPI         string
	Email       string
	Active      bool
	CreatedAt   time.Time
}

// Fields is the editable field set used for creates and updates.
type Fields struct {
	FirstName   string
	LastName    string
	Affiliation string
	IPI         string
	Email       string
	Active      bool
}

// Result sources as reported on SearchPage.
const (
	SourceIndex      = string(registryuc.SourceIndex)
	SourceRelational = string(registryuc.SourceRelational)
)

// SearchPage is one page of search results with its provenance.
type SearchPage struct {
	Writers        []Writer
	Total          int
	Page           int
	PageSize       int
	Source         string
	FallbackReason string
}

// WriterService manages the writer registry.
type WriterService struct {
	svc *registryuc.Service
}

// Search lists writers matching filter, name-ordered. A blank filter browses
// the full registry. filter is matched as a substring of the display name.
func (s *WriterService) Search(ctx context.Context, filter string, page, pageSize int) (*SearchPage, error) {
	res, err := s.svc.Search(ctx, registryuc.Query{
		Filter:   filter,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("search writers: %w", err)
	}

	writers := make([]Writer, len(res.Writers))
	for i, w := range res.Writers {
		writers[i] = fromDomain(w)
	}
	return &SearchPage{
		Writers:        writers,
		Total:          res.Total,
		Page:           res.Page,
		PageSize:       res.PageSize,
		Source:         string(res.Source),
		FallbackReason: res.FallbackReason,
	}, nil
}

// Get returns one writer by id.
func (s *WriterService) Get(ctx context.Context, id string) (Writer, error) {
	w, err := s.svc.Get(ctx, id)
	if err != nil {
		return Writer{}, fmt.Errorf("get writer: %w", err)
	}
	return fromDomain(w), nil
}

// Create registers a new writer and returns it with its generated id.
func (s *WriterService) Create(ctx context.Context, f Fields) (Writer, error) {
	w, err := s.svc.Create(ctx, toDomainFields(f))
	if err != nil {
		return Writer{}, fmt.Errorf("create writer: %w", err)
	}
	return fromDomain(w), nil
}

// Update replaces the editable fields of an existing writer.
func (s *WriterService) Update(ctx context.Context, id string, f Fields) (Writer, error) {
	w, err := s.svc.Update(ctx, id, toDomainFields(f))
	if err != nil {
		return Writer{}, fmt.Errorf("update writer: %w", err)
	}
	return fromDomain(w), nil
}

// Delete removes a writer from the registry.
func (s *WriterService) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete writer: %w", err)
	}
	return nil
}

func toDomainFields(f Fields) domwriter.Fields {
	return domwriter.Fields{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Affiliation: f.Affiliation,
		IPI:         f.IPI,
		Email:       f.Email,
		Active:      f.Active,
	}
}

func fromDomain(w domwriter.Writer) Writer {
	return Writer{
		ID:          w.ID(),
		FirstName:   w.FirstName(),
		LastName:    w.LastName(),
		DisplayName: w.DisplayName(),
		Affiliation: w.Affiliation(),
		IPI:         w.IPI(),
		Email:       w.Email(),
		Active:      w.Active(),
		CreatedAt:   w.CreatedAt(),
	}
}
