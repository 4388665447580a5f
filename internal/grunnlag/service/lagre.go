package service

import (
	"context"
	"encoding/json"
	"strconv"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
	"grunnlag/pkg/platform/audit"
	"grunnlag/pkg/requestcontext"
)

// LagreNyeOpplysninger appends opplysninger to the sak and advances the
// behandling's pointer to the highest hendelsenummer produced.
//
// A locked behandling is rejected before anything is appended. Facts are
// appended one by one and stay appended if a later step fails; retrying the
// same batch is safe because duplicates are skipped by id. When every fact
// was already recorded the call succeeds without moving the pointer.
func (s *Service) LagreNyeOpplysninger(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, sakID id.SakID, opplysninger []models.Opplysning) (res *models.LagringsResultat, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.LagreNyeOpplysninger", behandlingAttr(behandlingID), sakAttr(sakID))
	defer func() { endSpan(span, err) }()

	if len(opplysninger) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "opplysninger must not be empty")
	}
	for _, o := range opplysninger {
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.sjekkSkrivbar(ctx, behandlingID, sakID); err != nil {
		return nil, err
	}

	res = &models.LagringsResultat{BehandlingID: behandlingID, SakID: sakID}
	ids := make([]string, 0, len(opplysninger))
	for _, o := range opplysninger {
		nr, inserted, err := s.ledger.Append(ctx, sakID, o, nil)
		if err != nil {
			s.logger.ErrorContext(ctx, "append opplysning failed",
				"behandling_id", behandlingID,
				"sak_id", sakID,
				"opplysning_id", o.ID,
				"lagret", res.Lagret,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append opplysning")
		}
		ids = append(ids, o.ID.String())
		if !inserted {
			res.Duplikater++
			s.metrics.IncrementDuplikat(string(o.Type))
			s.logger.InfoContext(ctx, "duplicate opplysning ignored",
				"sak_id", sakID,
				"opplysning_id", o.ID,
				"opplysning_type", o.Type,
			)
			continue
		}
		res.Lagret++
		res.Hendelsenummer = &nr
		s.metrics.IncrementLagret(string(o.Type))
	}

	if res.Hendelsenummer == nil {
		s.metrics.IncrementDuplikatBatch()
		s.logger.ErrorContext(ctx, "every opplysning in batch was already recorded, versjon not advanced",
			"behandling_id", behandlingID,
			"sak_id", sakID,
			"opplysning_ids", ids,
		)
		if err := s.emitAudit(ctx, actor, withDetail(behandlingEvent(audit.EventDuplikatBatch, behandlingID, sakID),
			"antall", strconv.Itoa(len(ids)))); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		return res, nil
	}

	hendelsenummer := *res.Hendelsenummer
	err = s.inTx(ctx, func(ctx context.Context, store VersjonStore) error {
		if err := store.Advance(ctx, behandlingID, sakID, hendelsenummer); err != nil {
			return err
		}
		return s.emitAudit(ctx, actor, withDetail(behandlingEvent(audit.EventOpplysningerLagret, behandlingID, sakID),
			"hendelsenummer", strconv.FormatInt(hendelsenummer, 10),
			"lagret", strconv.Itoa(res.Lagret),
		))
	})
	if err != nil {
		return nil, s.translate(err, "no grunnlag for behandling")
	}

	s.logger.InfoContext(ctx, "opplysninger lagret",
		"behandling_id", behandlingID,
		"sak_id", sakID,
		"hendelsenummer", hendelsenummer,
		"lagret", res.Lagret,
		"duplikater", res.Duplikater,
	)
	return res, nil
}

// OpprettGrunnlagRequest opens a grunnlag for a new behandling. Persongalleri
// is optional when the sak already has one, e.g. for a revurdering.
type OpprettGrunnlagRequest struct {
	SakID         id.SakID
	Persongalleri *models.Persongalleri
	// Kilde defaults to the acting caseworker.
	Kilde *models.Kilde
}

// OpprettGrunnlag records the submitted persongalleri, if any, and pins the
// behandling to the head of its sak.
func (s *Service) OpprettGrunnlag(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, req OpprettGrunnlagRequest) (v *models.BehandlingVersjon, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.OpprettGrunnlag", behandlingAttr(behandlingID), sakAttr(req.SakID))
	defer func() { endSpan(span, err) }()

	if err := s.sjekkSkrivbar(ctx, behandlingID, req.SakID); err != nil {
		return nil, err
	}

	if req.Persongalleri != nil {
		opplysning, err := s.persongalleriOpplysning(ctx, actor, *req.Persongalleri, req.Kilde)
		if err != nil {
			return nil, err
		}
		if _, err := s.ledger.AppendBatch(ctx, req.SakID, []models.Opplysning{opplysning}, nil); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append persongalleri")
		}
		s.metrics.IncrementLagret(string(models.PersongalleriV1))
	}

	siste, err := s.ledger.Siste(ctx, req.SakID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sak head")
	}
	if siste == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "sak has no opplysninger, persongalleri is required")
	}

	err = s.inTx(ctx, func(ctx context.Context, store VersjonStore) error {
		if err := store.Advance(ctx, behandlingID, req.SakID, siste); err != nil {
			return err
		}
		got, err := store.Get(ctx, behandlingID)
		if err != nil {
			return err
		}
		v = got
		return s.emitAudit(ctx, actor, withDetail(behandlingEvent(audit.EventGrunnlagOpprettet, behandlingID, req.SakID),
			"hendelsenummer", strconv.FormatInt(v.Hendelsenummer, 10)))
	})
	if err != nil {
		return nil, s.translate(err, "no grunnlag for behandling")
	}

	s.logger.InfoContext(ctx, "grunnlag opprettet",
		"behandling_id", behandlingID,
		"sak_id", req.SakID,
		"hendelsenummer", v.Hendelsenummer,
	)
	return v, nil
}

func (s *Service) persongalleriOpplysning(ctx context.Context, actor requestcontext.Actor, galleri models.Persongalleri, kilde *models.Kilde) (models.Opplysning, error) {
	if galleri.Soeker.IsEmpty() {
		return models.Opplysning{}, dErrors.New(dErrors.CodeValidation, "persongalleri requires soeker")
	}
	payload, err := json.Marshal(galleri)
	if err != nil {
		return models.Opplysning{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode persongalleri")
	}
	k := models.NewSaksbehandlerKilde(actor.Ident, requestcontext.Now(ctx))
	if kilde != nil {
		k = *kilde
	}
	o := models.Opplysning{
		ID:         id.NewOpplysningID(),
		Type:       models.PersongalleriV1,
		Kilde:      k,
		Opplysning: payload,
	}
	if err := o.Validate(); err != nil {
		return models.Opplysning{}, err
	}
	return o, nil
}

func withDetail(event audit.Event, kv ...string) audit.Event {
	if event.Detail == nil {
		event.Detail = make(map[string]string, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		event.Detail[kv[i]] = kv[i+1]
	}
	return event
}
