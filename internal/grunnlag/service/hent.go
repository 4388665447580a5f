package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"grunnlag/internal/grunnlag/aggregate"
	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/samsvar"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
)

// HentGrunnlag builds the snapshot a behandling is pinned to. The result only
// depends on the pin, so facts appended later never show up here.
func (s *Service) HentGrunnlag(ctx context.Context, behandlingID id.BehandlingID) (g *models.Grunnlag, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.HentGrunnlag", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(sakAttr(v.SakID), attribute.Int64("grunnlag.versjon", v.Hendelsenummer))

	start := time.Now()
	entries, err := s.ledger.EntriesAsOf(ctx, v.SakID, v.Hendelsenummer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	g, err = aggregate.Bygg(v.SakID, v.Hendelsenummer, entries)
	s.metrics.ObserveAggregering(time.Since(start))
	if err != nil {
		return nil, s.translate(err, "")
	}
	return g, nil
}

// HentOpplysning returns the latest fact of typ at the behandling's pin.
// A type without a value yields models.ErrIngenOpplysning, which callers
// report as no content rather than as a failure.
func (s *Service) HentOpplysning(ctx context.Context, behandlingID id.BehandlingID, typ models.OpplysningType) (h *models.Grunnlagshendelse, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.HentOpplysning", behandlingAttr(behandlingID),
		attribute.String("grunnlag.opplysning_type", string(typ)))
	defer func() { endSpan(span, err) }()

	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return nil, err
	}
	h, err = s.ledger.LatestOfTypeAsOf(ctx, v.SakID, typ, v.Hendelsenummer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	if h == nil {
		return nil, models.ErrIngenOpplysning
	}
	return h, nil
}

// HentPersongalleriSamsvar reconciles the case roster with the registry
// roster, both as of the behandling's pin.
func (s *Service) HentPersongalleriSamsvar(ctx context.Context, behandlingID id.BehandlingID) (res *models.PersongalleriSamsvar, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.HentPersongalleriSamsvar", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return nil, err
	}
	sak, err := s.ledger.LatestOfTypeAsOf(ctx, v.SakID, models.PersongalleriV1, v.Hendelsenummer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	if sak == nil {
		return nil, s.translate(models.ErrGrunnlagIkkeFunnet, "")
	}
	pdl, err := s.ledger.LatestOfTypeAsOf(ctx, v.SakID, models.PersongalleriPdlV1, v.Hendelsenummer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}

	res, err = samsvar.Sammenlign(*sak, pdl)
	if err != nil {
		return nil, s.translate(err, "")
	}
	for _, p := range res.Problemer {
		s.metrics.IncrementSamsvarProblem(string(p))
	}
	if len(res.Problemer) > 0 {
		s.logger.InfoContext(ctx, "persongalleri differs from registry",
			"behandling_id", behandlingID,
			"sak_id", v.SakID,
			"problemer", res.Problemer,
		)
	}
	return res, nil
}

// HentPersonopplysninger builds the person summary at the behandling's pin
// without assembling the full snapshot.
func (s *Service) HentPersonopplysninger(ctx context.Context, behandlingID id.BehandlingID) (res *models.PersonopplysningerSammendrag, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.HentPersonopplysninger", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return nil, err
	}
	galleri, err := s.persongalleriVed(ctx, v.SakID, v.Hendelsenummer)
	if err != nil {
		return nil, err
	}
	fakta, err := s.ledger.OfTypesAsOf(ctx, v.SakID, models.RolleTyper(), v.Hendelsenummer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	sammendrag := aggregate.Personopplysninger(galleri, fakta)
	return &sammendrag, nil
}

// HentSaksrolle resolves the role fnr holds in the roster at the pin.
// Persons not in the roster are RolleUkjent.
func (s *Service) HentSaksrolle(ctx context.Context, behandlingID id.BehandlingID, fnr id.Folkeregisteridentifikator) (models.Saksrolle, error) {
	v, err := s.hentVersjon(ctx, behandlingID)
	if err != nil {
		return "", err
	}
	galleri, err := s.persongalleriVed(ctx, v.SakID, v.Hendelsenummer)
	if err != nil {
		return "", err
	}
	return galleri.Rolle(fnr), nil
}

// HentSakerForPerson lists every sak whose latest case roster names fnr,
// with the role fnr holds there.
func (s *Service) HentSakerForPerson(ctx context.Context, fnr id.Folkeregisteridentifikator) (res []models.SakMedRolle, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.HentSakerForPerson")
	defer func() { endSpan(span, err) }()

	rosters, err := s.ledger.FindRostersContaining(ctx, fnr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search persongallerier")
	}
	res = make([]models.SakMedRolle, 0, len(rosters))
	for _, r := range rosters {
		res = append(res, models.SakMedRolle{
			SakID:         r.SakID,
			Rolle:         r.Persongalleri.Rolle(fnr),
			Persongalleri: r.Persongalleri,
		})
	}
	return res, nil
}

// HentHistorikk returns every fact of typ recorded for the sak, oldest first.
func (s *Service) HentHistorikk(ctx context.Context, sakID id.SakID, typ models.OpplysningType) ([]models.Grunnlagshendelse, error) {
	entries, err := s.ledger.OfType(ctx, sakID, typ)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	if entries == nil {
		entries = []models.Grunnlagshendelse{}
	}
	return entries, nil
}

func (s *Service) persongalleriVed(ctx context.Context, sakID id.SakID, bound int64) (models.Persongalleri, error) {
	h, err := s.ledger.LatestOfTypeAsOf(ctx, sakID, models.PersongalleriV1, bound)
	if err != nil {
		return models.Persongalleri{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	if h == nil {
		return models.Persongalleri{}, s.translate(models.ErrGrunnlagIkkeFunnet, "")
	}
	galleri, err := models.DekodPersongalleri(h.Opplysning)
	if err != nil {
		return models.Persongalleri{}, s.translate(err, "")
	}
	return galleri, nil
}
