// Package service orchestrates the fact ledger, the version pointers and the
// registry into the grunnlag operations exposed over HTTP.
//
// Operations that act on behalf of someone take the actor explicitly; the
// service never reads the caller from the context.
package service

import (
	"context"
	"errors"
	"log/slog"

	"grunnlag/internal/grunnlag/metrics"
	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/ports"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
	"grunnlag/pkg/platform/audit"
	"grunnlag/pkg/platform/sentinel"
	"grunnlag/pkg/requestcontext"
)

// LedgerStore is the append-only fact ledger.
type LedgerStore interface {
	Append(ctx context.Context, sakID id.SakID, opplysning models.Opplysning, fnr *id.Folkeregisteridentifikator) (int64, bool, error)
	AppendBatch(ctx context.Context, sakID id.SakID, opplysninger []models.Opplysning, fnr *id.Folkeregisteridentifikator) (*int64, error)
	Siste(ctx context.Context, sakID id.SakID) (int64, error)
	LatestOfTypeAsOf(ctx context.Context, sakID id.SakID, typ models.OpplysningType, bound int64) (*models.Grunnlagshendelse, error)
	OfType(ctx context.Context, sakID id.SakID, typ models.OpplysningType) ([]models.Grunnlagshendelse, error)
	OfTypesAsOf(ctx context.Context, sakID id.SakID, typer []models.OpplysningType, bound int64) ([]models.Grunnlagshendelse, error)
	EntriesAsOf(ctx context.Context, sakID id.SakID, bound int64) ([]models.Grunnlagshendelse, error)
	FindRostersContaining(ctx context.Context, fnr id.Folkeregisteridentifikator) ([]models.SakPersongalleri, error)
}

// VersjonStore holds one version pointer per behandling.
type VersjonStore interface {
	Get(ctx context.Context, behandlingID id.BehandlingID) (*models.BehandlingVersjon, error)
	Advance(ctx context.Context, behandlingID id.BehandlingID, sakID id.SakID, hendelsenummer int64) error
	Lock(ctx context.Context, behandlingID id.BehandlingID) error
	LockTo(ctx context.Context, target, source id.BehandlingID) (*models.BehandlingVersjon, error)
}

// VersjonTx runs pointer mutations and their audit events in one transaction.
// The context passed to fn carries the transaction.
type VersjonTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store VersjonStore) error) error
}

// Service is the grunnlag application service.
type Service struct {
	ledger         LedgerStore
	versjoner      VersjonStore
	tx             VersjonTx
	registry       ports.RegistryPort
	logger         *slog.Logger
	auditPublisher ports.AuditPort
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPort) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx makes pointer mutations transactional with their audit events.
// Without it mutations go straight to the VersjonStore.
func WithTx(tx VersjonTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithRegistry enables OppdaterGrunnlag.
func WithRegistry(registry ports.RegistryPort) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// New constructs a Service.
func New(ledger LedgerStore, versjoner VersjonStore, opts ...Option) *Service {
	s := &Service{
		ledger:    ledger,
		versjoner: versjoner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, store VersjonStore) error) error {
	if s.tx == nil {
		return fn(ctx, s.versjoner)
	}
	return s.tx.RunInTx(ctx, fn)
}

// hentVersjon loads the pointer for a behandling or fails with CodeNotFound.
func (s *Service) hentVersjon(ctx context.Context, behandlingID id.BehandlingID) (*models.BehandlingVersjon, error) {
	v, err := s.versjoner.Get(ctx, behandlingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no grunnlag for behandling")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load behandling versjon")
	}
	return v, nil
}

// finnVersjon is hentVersjon for callers where a missing pointer is fine.
func (s *Service) finnVersjon(ctx context.Context, behandlingID id.BehandlingID) (*models.BehandlingVersjon, error) {
	v, err := s.versjoner.Get(ctx, behandlingID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load behandling versjon")
	}
	return v, nil
}

// sjekkSkrivbar fails fast when the behandling may not take new facts for
// sakID: its pointer is locked or belongs to another sak.
func (s *Service) sjekkSkrivbar(ctx context.Context, behandlingID id.BehandlingID, sakID id.SakID) error {
	v, err := s.finnVersjon(ctx, behandlingID)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if v.Laast {
		s.metrics.IncrementLaastAvvist()
		return dErrors.Wrap(models.ErrGrunnlagLaast, dErrors.CodeLocked, "grunnlag for behandling is locked")
	}
	if v.SakID != sakID {
		return dErrors.New(dErrors.CodeConflict, "behandling belongs to sak "+v.SakID.String())
	}
	return nil
}

// translate maps store and domain sentinels to coded errors. Errors that
// already carry a code pass through.
func (s *Service) translate(err error, notFound string) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, models.ErrGrunnlagLaast):
		s.metrics.IncrementLaastAvvist()
		return dErrors.Wrap(err, dErrors.CodeLocked, "grunnlag for behandling is locked")
	case errors.Is(err, models.ErrKildeIkkeLaast):
		return dErrors.Wrap(err, dErrors.CodeConflict, "kilde behandling is not locked")
	case errors.Is(err, models.ErrGrunnlagIkkeFunnet):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "no persongalleri recorded for sak")
	case errors.Is(err, models.ErrInkonsistentGrunnlag):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "grunnlag is inconsistent")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "grunnlag operation failed")
	}
}

func (s *Service) emitAudit(ctx context.Context, actor requestcontext.Actor, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	event.ActorID = actor.Ident
	event.RequestID = requestcontext.RequestID(ctx)
	return s.auditPublisher.Emit(ctx, event)
}

func behandlingEvent(action audit.AuditEvent, behandlingID id.BehandlingID, sakID id.SakID) audit.Event {
	return audit.Event{
		Action:        string(action),
		AggregateType: "behandling",
		AggregateID:   behandlingID.String(),
		Subject:       "sak:" + sakID.String(),
	}
}
