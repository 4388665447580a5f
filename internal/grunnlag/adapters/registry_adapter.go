package adapters

import (
	"context"
	"fmt"

	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/ports"
	"grunnlag/internal/registry"
	id "grunnlag/pkg/domain"
)

// RegistryClient is the subset of *registry.Client the adapter calls.
type RegistryClient interface {
	HentPersongalleri(ctx context.Context, soeker, sakType string, innsender *string) (*registry.PersongalleriSvar, error)
	HentPerson(ctx context.Context, fnr, rolle, sakType string) (*registry.PersonSvar, error)
}

// RegistryAdapter implements ports.RegistryPort over the registry HTTP
// client, translating its wire models into grunnlag models.
type RegistryAdapter struct {
	client RegistryClient
}

// NewRegistryAdapter creates a new registry adapter
func NewRegistryAdapter(client RegistryClient) ports.RegistryPort {
	return &RegistryAdapter{client: client}
}

func (a *RegistryAdapter) HentPersongalleri(ctx context.Context, soeker id.Folkeregisteridentifikator, sakType models.SakType, innsender *id.Folkeregisteridentifikator) (*ports.RegistryPersongalleri, error) {
	var innsenderRaw *string
	if innsender != nil {
		s := innsender.String()
		innsenderRaw = &s
	}
	svar, err := a.client.HentPersongalleri(ctx, soeker.String(), string(sakType), innsenderRaw)
	if err != nil {
		return nil, err
	}
	if svar == nil {
		return nil, nil
	}
	return &ports.RegistryPersongalleri{
		Persongalleri:      toPersongalleri(svar.Persongalleri),
		Registersreferanse: svar.Registersreferanse,
		HentetTidspunkt:    svar.HentetTidspunkt,
	}, nil
}

// HentPerson fetches one person. A person listed in a roster but unknown to
// the registry is inconsistent registry data and surfaces as an error.
func (a *RegistryAdapter) HentPerson(ctx context.Context, fnr id.Folkeregisteridentifikator, rolle models.Saksrolle, sakType models.SakType) (*ports.RegistryPerson, error) {
	svar, err := a.client.HentPerson(ctx, fnr.String(), string(rolle), string(sakType))
	if err != nil {
		if registry.GetCategory(err) == registry.ErrorNotFound {
			return nil, fmt.Errorf("person in role %s not found in registry: %w", rolle, err)
		}
		return nil, err
	}
	return &ports.RegistryPerson{
		Fnr:                fnr,
		Rolle:              rolle,
		Dokument:           svar.Dokument,
		Registersreferanse: svar.Registersreferanse,
		HentetTidspunkt:    svar.HentetTidspunkt,
	}, nil
}

func toPersongalleri(p registry.Persongalleri) models.Persongalleri {
	out := models.Persongalleri{
		Soeker:      id.Folkeregisteridentifikator(p.Soeker),
		Soesken:     toIdenter(p.Soesken),
		Avdoed:      toIdenter(p.Avdoed),
		Gjenlevende: toIdenter(p.Gjenlevende),
	}
	if p.Innsender != nil {
		innsender := id.Folkeregisteridentifikator(*p.Innsender)
		out.Innsender = &innsender
	}
	for _, u := range p.PersonerUtenIdent {
		out.PersonerUtenIdent = append(out.PersonerUtenIdent, models.PersonUtenIdent{
			Rolle:        models.Saksrolle(u.Rolle),
			Fornavn:      u.Fornavn,
			Etternavn:    u.Etternavn,
			Foedselsdato: u.Foedselsdato,
		})
	}
	return out
}

func toIdenter(in []string) []id.Folkeregisteridentifikator {
	out := make([]id.Folkeregisteridentifikator, 0, len(in))
	for _, s := range in {
		out = append(out, id.Folkeregisteridentifikator(s))
	}
	return out
}
