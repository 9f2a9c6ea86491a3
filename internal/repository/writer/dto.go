package writer

import (
	"time"

	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
)

// Hash field names. display_name is denormalized for FT sorting and filtering.
const (
	fieldFirstName   = "first_name"
	fieldLastName    = "last_name"
	fieldDisplayName = "display_name"
	fieldAffiliation = "affiliation"
	fieldIPI         = "ipi"
	fieldEmail       = "email"
	fieldCreatedAt   = "created_at"
	fieldActive      = "active"
)

// buildHashFields converts a domain writer into a flat map for HSET.
// Every field is always written so updates fully replace prior values.
func buildHashFields(w domwriter.Writer) map[string]string {
	active := "false"
	if w.Active() {
		active = "true"
	}
	return map[string]string{
		fieldFirstName:   w.FirstName(),
		fieldLastName:    w.LastName(),
		fieldDisplayName: w.DisplayName(),
		fieldAffiliation: w.Affiliation(),
		fieldIPI:         w.IPI(),
		fieldEmail:       w.Email(),
		fieldCreatedAt:   w.CreatedAt().UTC().Format(time.RFC3339),
		fieldActive:      active,
	}
}

// parseHashFields converts a flat hash map back into a domain writer.
// Unparseable timestamps degrade to the zero time rather than failing the read.
func parseHashFields(id string, m map[string]string) domwriter.Writer {
	createdAt, _ := time.Parse(time.RFC3339, m[fieldCreatedAt])

	return domwriter.Reconstruct(id, domwriter.Fields{
		FirstName:   m[fieldFirstName],
		LastName:    m[fieldLastName],
		Affiliation: m[fieldAffiliation],
		IPI:         m[fieldIPI],
		Email:       m[fieldEmail],
		Active:      m[fieldActive] == "true",
	}, createdAt)
}
