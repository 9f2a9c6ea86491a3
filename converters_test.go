package repertoire

import (
	"testing"
	"time"

	domwriter "github.com/kailas-cloud/repertoire/internal/domain/writer"
)

func TestFromDomain(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := domwriter.Reconstruct("w-1", domwriter.Fields{
		FirstName:   "Clara",
		LastName:    "Schumann",
		Affiliation: "GEMA",
		IPI:         "00023456789",
		Email:       "clara@example.com",
		Active:      true,
	}, createdAt)

	got := fromDomain(w)
	want := Writer{
		ID:          "w-1",
		FirstName:   "Clara",
		LastName:    "Schumann",
		DisplayName: "Clara Schumann",
		Affiliation: "GEMA",
		IPI:         "00023456789",
		Email:       "clara@example.com",
		Active:      true,
		CreatedAt:   createdAt,
	}
	if got != want {
		t.Errorf("fromDomain:\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestToDomainFields(t *testing.T) {
	f := Fields{
		FirstName:   "Nina",
		LastName:    "Simone",
		Affiliation: "ASCAP",
		IPI:         "00034567890",
		Email:       "nina@example.com",
		Active:      true,
	}

	got := toDomainFields(f)
	want := domwriter.Fields{
		FirstName:   "Nina",
		LastName:    "Simone",
		Affiliation: "ASCAP",
		IPI:         "00034567890",
		Email:       "nina@example.com",
		Active:      true,
	}
	if got != want {
		t.Errorf("toDomainFields:\ngot:  %+v\nwant: %+v", got, want)
	}
}
