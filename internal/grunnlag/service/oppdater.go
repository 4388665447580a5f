package service

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/ports"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
	"grunnlag/pkg/requestcontext"
)

const registryTimeout = 30 * time.Second

// personOppslag is one registry person lookup and the fact type it becomes.
type personOppslag struct {
	fnr   id.Folkeregisteridentifikator
	rolle models.Saksrolle
	typ   models.OpplysningType
}

// registerOppslag lists the person lookups for a roster, in roster order.
// A person listed under several roles is looked up once per role.
func registerOppslag(galleri models.Persongalleri) []personOppslag {
	var out []personOppslag
	if !galleri.Soeker.IsEmpty() {
		out = append(out, personOppslag{galleri.Soeker, models.RolleSoeker, models.SoekerPdlV1})
	}
	for _, f := range galleri.Avdoed {
		out = append(out, personOppslag{f, models.RolleAvdoed, models.AvdoedPdlV1})
	}
	for _, f := range galleri.Gjenlevende {
		out = append(out, personOppslag{f, models.RolleGjenlevende, models.GjenlevendeForelderPdlV1})
	}
	if galleri.Innsender != nil && !galleri.Innsender.IsEmpty() {
		out = append(out, personOppslag{*galleri.Innsender, models.RolleInnsender, models.InnsenderPdlV1})
	}
	return out
}

// OppdaterGrunnlag fetches the registry roster and the person details of
// everyone in the behandling's persongalleri, then appends them as one batch.
//
// Lookups run concurrently. If any of them fails nothing is appended and the
// whole call fails with CodeUnavailable; the failure is logged with what is
// needed to replay it.
func (s *Service) OppdaterGrunnlag(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, sakType models.SakType) (res *models.LagringsResultat, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.OppdaterGrunnlag", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	if s.registry == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "registry is not configured")
	}
	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return nil, err
	}
	if v.Laast {
		s.metrics.IncrementLaastAvvist()
		return nil, dErrors.Wrap(models.ErrGrunnlagLaast, dErrors.CodeLocked, "grunnlag for behandling is locked")
	}

	// The newest case roster, not the pinned one: the registry batch is what
	// moves the pin forward.
	siste, err := s.ledger.Siste(ctx, v.SakID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sak head")
	}
	hendelse, err := s.ledger.LatestOfTypeAsOf(ctx, v.SakID, models.PersongalleriV1, siste)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load persongalleri")
	}
	if hendelse == nil {
		return nil, s.translate(models.ErrGrunnlagIkkeFunnet, "")
	}
	galleri, err := models.DekodPersongalleri(hendelse.Opplysning)
	if err != nil {
		return nil, s.translate(err, "")
	}

	batch, err := s.hentFraRegister(ctx, galleri, sakType)
	if err != nil {
		oppslag := registerOppslag(galleri)
		roller := make([]string, len(oppslag))
		for i, o := range oppslag {
			roller[i] = string(o.rolle)
		}
		s.logger.ErrorContext(ctx, "registry lookup failed, grunnlag batch not built",
			"behandling_id", behandlingID,
			"sak_id", v.SakID,
			"sak_type", sakType,
			"persongalleri_hendelsenummer", hendelse.Hendelsenummer,
			"roller", roller,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registry lookup failed")
	}

	return s.LagreNyeOpplysninger(ctx, actor, behandlingID, v.SakID, batch)
}

// hentFraRegister runs every lookup for galleri and builds the facts in a
// stable order: the registry roster first, then persons in roster order.
func (s *Service) hentFraRegister(ctx context.Context, galleri models.Persongalleri, sakType models.SakType) ([]models.Opplysning, error) {
	ctx, cancel := context.WithTimeout(ctx, registryTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	var roster *ports.RegistryPersongalleri
	g.Go(func() error {
		start := time.Now()
		r, err := s.registry.HentPersongalleri(ctx, galleri.Soeker, sakType, galleri.Innsender)
		s.metrics.ObserveRegistry("persongalleri", time.Since(start), err)
		if err != nil {
			return err
		}
		roster = r
		return nil
	})

	oppslag := registerOppslag(galleri)
	personer := make([]*ports.RegistryPerson, len(oppslag))
	for i, o := range oppslag {
		g.Go(func() error {
			start := time.Now()
			p, err := s.registry.HentPerson(ctx, o.fnr, o.rolle, sakType)
			s.metrics.ObserveRegistry("person", time.Since(start), err)
			if err != nil {
				return err
			}
			if p == nil {
				return dErrors.New(dErrors.CodeUnavailable, "registry returned no person for role "+string(o.rolle))
			}
			personer[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make([]models.Opplysning, 0, len(oppslag)+1)
	if roster != nil {
		payload, err := json.Marshal(roster.Persongalleri)
		if err != nil {
			return nil, err
		}
		batch = append(batch, models.Opplysning{
			ID:         id.NewOpplysningID(),
			Type:       models.PersongalleriPdlV1,
			Kilde:      models.NewPdlKilde(roster.HentetTidspunkt, roster.Registersreferanse),
			Opplysning: payload,
		})
	}
	for i, o := range oppslag {
		p := personer[i]
		fnr := o.fnr
		batch = append(batch, models.Opplysning{
			ID:         id.NewOpplysningID(),
			Type:       o.typ,
			Kilde:      models.NewPdlKilde(p.HentetTidspunkt, p.Registersreferanse),
			Fnr:        &fnr,
			Opplysning: p.Dokument,
		})
	}
	return batch, nil
}
