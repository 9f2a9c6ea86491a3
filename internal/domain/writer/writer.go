// Package writer defines the registry's core entity: a rights-holding
// writer (composer/author) with a stable identity key and editable fields.
package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/repertoire/internal/domain"
)

// Fields is the editable field set of a writer. Identity key and creation
// timestamp are never part of it.
type Fields struct {
	FirstName   string
	LastName    string
	Affiliation string // PRO affiliation code, open string (e.g. ASCAP, BMI, GEMA)
	IPI         string // external IPI name number
	Email       string
	Active      bool
}

// Writer is an immutable snapshot of a writer record.
type Writer struct {
	id        string
	fields    Fields
	createdAt time.Time
}

// New creates a writer with a fresh identity key. The identity key never
// changes afterwards.
func New(f Fields) (Writer, error) {
	if err := validate(f); err != nil {
		return Writer{}, err
	}
	return Writer{
		id:        uuid.NewString(),
		fields:    f,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a writer from storage without re-validating.
// Stored records predate current validation rules and must always load.
func Reconstruct(id string, f Fields, createdAt time.Time) Writer {
	return Writer{id: id, fields: f, createdAt: createdAt}
}

// Apply returns a copy with the editable fields replaced, keeping identity
// key and creation timestamp.
func (w Writer) Apply(f Fields) (Writer, error) {
	if err := validate(f); err != nil {
		return Writer{}, err
	}
	return Writer{id: w.id, fields: f, createdAt: w.createdAt}, nil
}

// ID returns the stable identity key.
func (w Writer) ID() string { return w.id }

// FirstName returns the first name.
func (w Writer) FirstName() string { return w.fields.FirstName }

// LastName returns the last name.
func (w Writer) LastName() string { return w.fields.LastName }

// Affiliation returns the PRO affiliation code.
func (w Writer) Affiliation() string { return w.fields.Affiliation }

// IPI returns the external IPI name number.
func (w Writer) IPI() string { return w.fields.IPI }

// Email returns the contact email.
func (w Writer) Email() string { return w.fields.Email }

// CreatedAt returns the creation timestamp.
func (w Writer) CreatedAt() time.Time { return w.createdAt }

// Active reports whether the writer is active.
func (w Writer) Active() bool { return w.fields.Active }

// Fields returns the editable field set.
func (w Writer) Fields() Fields { return w.fields }

// DisplayName is the name used for ordering and substring filtering.
func (w Writer) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(w.fields.FirstName) + " " + strings.TrimSpace(w.fields.LastName))
}

// Page is one slice of writers together with the total match count.
// Produced by both the store and the search index read paths.
type Page struct {
	Writers []Writer
	Total   int
}

func validate(f Fields) error {
	if strings.TrimSpace(f.FirstName) == "" {
		return fmt.Errorf("first name is required: %w", domain.ErrValidation)
	}
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		return fmt.Errorf("email %q is not a valid address: %w", f.Email, domain.ErrValidation)
	}
	if f.IPI != "" {
		for _, r := range f.IPI {
			if r < '0' || r > '9' {
				return fmt.Errorf("ipi %q must be numeric: %w", f.IPI, domain.ErrValidation)
			}
		}
	}
	return nil
}
