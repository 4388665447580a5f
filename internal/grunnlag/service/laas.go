package service

import (
	"context"
	"strconv"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
	"grunnlag/pkg/platform/audit"
	"grunnlag/pkg/requestcontext"
)

// LaasVersjon freezes the behandling at its current pin. Locking twice is
// allowed.
func (s *Service) LaasVersjon(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID) (err error) {
	ctx, span := startSpan(ctx, "Grunnlag.LaasVersjon", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	var v *models.BehandlingVersjon
	err = s.inTx(ctx, func(ctx context.Context, store VersjonStore) error {
		if err := store.Lock(ctx, behandlingID); err != nil {
			return err
		}
		got, err := store.Get(ctx, behandlingID)
		if err != nil {
			return err
		}
		v = got
		return s.emitAudit(ctx, actor, withDetail(behandlingEvent(audit.EventGrunnlagLaast, behandlingID, v.SakID),
			"hendelsenummer", strconv.FormatInt(v.Hendelsenummer, 10)))
	})
	if err != nil {
		return s.translate(err, "no grunnlag for behandling")
	}

	s.metrics.IncrementLaasing("laas")
	s.logger.InfoContext(ctx, "grunnlag laast",
		"behandling_id", behandlingID,
		"sak_id", v.SakID,
		"hendelsenummer", v.Hendelsenummer,
	)
	return nil
}

// LaasTilVersjon pins behandlingID to the snapshot kildeBehandlingID is
// locked to and locks it. The source must already be locked and the target
// must not be.
func (s *Service) LaasTilVersjon(ctx context.Context, actor requestcontext.Actor, behandlingID, kildeBehandlingID id.BehandlingID) (v *models.BehandlingVersjon, err error) {
	ctx, span := startSpan(ctx, "Grunnlag.LaasTilVersjon", behandlingAttr(behandlingID))
	defer func() { endSpan(span, err) }()

	if behandlingID == kildeBehandlingID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "behandling cannot be locked to itself")
	}

	err = s.inTx(ctx, func(ctx context.Context, store VersjonStore) error {
		got, err := store.LockTo(ctx, behandlingID, kildeBehandlingID)
		if err != nil {
			return err
		}
		v = got
		return s.emitAudit(ctx, actor, withDetail(behandlingEvent(audit.EventGrunnlagLaastTil, behandlingID, v.SakID),
			"kilde_behandling_id", kildeBehandlingID.String(),
			"hendelsenummer", strconv.FormatInt(v.Hendelsenummer, 10),
		))
	})
	if err != nil {
		return nil, s.translate(err, "kilde behandling has no grunnlag")
	}

	s.metrics.IncrementLaasing("laas_til")
	s.logger.InfoContext(ctx, "grunnlag laast til annen behandling",
		"behandling_id", behandlingID,
		"kilde_behandling_id", kildeBehandlingID,
		"sak_id", v.SakID,
		"hendelsenummer", v.Hendelsenummer,
	)
	return v, nil
}
