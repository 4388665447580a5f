package ports

import (
	"context"
	"encoding/json"
	"time"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/registry_mock.go -package=mocks

// RegistryPort defines the population registry lookups the grunnlag service
// needs to build registry-sourced facts. Implementations must not retry on
// their own; the caller decides whether a failed ingestion is replayed.
type RegistryPort interface {
	// HentPersongalleri fetches the registry's view of the roster around
	// soeker. Returns nil, nil when the registry has no roster for the case.
	HentPersongalleri(ctx context.Context, soeker id.Folkeregisteridentifikator, sakType models.SakType, innsender *id.Folkeregisteridentifikator) (*RegistryPersongalleri, error)

	// HentPerson fetches the person record and document for fnr in rolle.
	HentPerson(ctx context.Context, fnr id.Folkeregisteridentifikator, rolle models.Saksrolle, sakType models.SakType) (*RegistryPerson, error)
}

// RegistryPersongalleri is the registry-sourced roster (port model).
type RegistryPersongalleri struct {
	Persongalleri      models.Persongalleri
	Registersreferanse string
	HentetTidspunkt    time.Time
}

// RegistryPerson is one person lookup result. Dokument is the registry's
// person document, stored verbatim as the fact payload.
type RegistryPerson struct {
	Fnr                id.Folkeregisteridentifikator
	Rolle              models.Saksrolle
	Dokument           json.RawMessage
	Registersreferanse string
	HentetTidspunkt    time.Time
}
