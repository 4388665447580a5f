// Package ledger stores the append-only, per-sak sequence of facts.
//
// Every fact appended to a sak gets the next hendelsenummer for that sak.
// Numbers are assigned and made visible together, never reused and never
// consumed by a rejected duplicate. A fact id is unique within its sak, so
// re-appending a fact is a no-op that reports inserted=false.
package ledger

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

type sakLedger struct {
	siste   int64
	entries []models.Grunnlagshendelse
	ids     map[id.OpplysningID]struct{}
}

// InMemory is a process-local ledger used by tests and local runs.
type InMemory struct {
	mu     sync.RWMutex
	saker  map[id.SakID]*sakLedger
	logger *slog.Logger
}

// Option configures a ledger store.
type Option func(*storeOptions)

type storeOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report rosters that cannot be decoded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) storeOptions {
	o := storeOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewInMemory(opts ...Option) *InMemory {
	o := applyOptions(opts)
	return &InMemory{saker: make(map[id.SakID]*sakLedger), logger: o.logger}
}

// Append records opplysning against sakID. fnr, when set, overrides the
// subject carried on the fact itself.
func (s *InMemory) Append(_ context.Context, sakID id.SakID, opplysning models.Opplysning, fnr *id.Folkeregisteridentifikator) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nr, inserted := s.appendLocked(sakID, opplysning, fnr)
	return nr, inserted, nil
}

// AppendBatch appends in input order and returns the highest hendelsenummer
// produced, or nil when every fact was already recorded.
func (s *InMemory) AppendBatch(_ context.Context, sakID id.SakID, opplysninger []models.Opplysning, fnr *id.Folkeregisteridentifikator) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hoeyeste *int64
	for _, o := range opplysninger {
		nr, inserted := s.appendLocked(sakID, o, fnr)
		if inserted {
			hoeyeste = &nr
		}
	}
	return hoeyeste, nil
}

func (s *InMemory) appendLocked(sakID id.SakID, opplysning models.Opplysning, fnr *id.Folkeregisteridentifikator) (int64, bool) {
	sak, ok := s.saker[sakID]
	if !ok {
		sak = &sakLedger{ids: make(map[id.OpplysningID]struct{})}
		s.saker[sakID] = sak
	}
	if _, dup := sak.ids[opplysning.ID]; dup {
		return 0, false
	}

	stored := cloneOpplysning(opplysning)
	if fnr != nil {
		f := *fnr
		stored.Fnr = &f
	}
	sak.siste++
	sak.ids[opplysning.ID] = struct{}{}
	sak.entries = append(sak.entries, models.Grunnlagshendelse{
		SakID:          sakID,
		Hendelsenummer: sak.siste,
		Opplysning:     stored,
	})
	return sak.siste, true
}

// Siste returns the head hendelsenummer of the sak, or 0 for an empty sak.
func (s *InMemory) Siste(_ context.Context, sakID id.SakID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sak, ok := s.saker[sakID]; ok {
		return sak.siste, nil
	}
	return 0, nil
}

func (s *InMemory) LatestOfType(ctx context.Context, sakID id.SakID, typ models.OpplysningType) (*models.Grunnlagshendelse, error) {
	return s.LatestOfTypeAsOf(ctx, sakID, typ, math.MaxInt64)
}

func (s *InMemory) LatestOfTypeAsOf(_ context.Context, sakID id.SakID, typ models.OpplysningType, bound int64) (*models.Grunnlagshendelse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sak, ok := s.saker[sakID]
	if !ok {
		return nil, nil
	}
	for i := len(sak.entries) - 1; i >= 0; i-- {
		h := sak.entries[i]
		if h.Hendelsenummer <= bound && h.Opplysning.Type == typ {
			clone := cloneHendelse(h)
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *InMemory) OfType(_ context.Context, sakID id.SakID, typ models.OpplysningType) ([]models.Grunnlagshendelse, error) {
	return s.filter(sakID, func(h models.Grunnlagshendelse) bool { return h.Opplysning.Type == typ }), nil
}

func (s *InMemory) OfTypesAsOf(_ context.Context, sakID id.SakID, typer []models.OpplysningType, bound int64) ([]models.Grunnlagshendelse, error) {
	return s.filter(sakID, func(h models.Grunnlagshendelse) bool {
		return h.Hendelsenummer <= bound && slices.Contains(typer, h.Opplysning.Type)
	}), nil
}

func (s *InMemory) AllEntries(_ context.Context, sakID id.SakID) ([]models.Grunnlagshendelse, error) {
	return s.filter(sakID, func(models.Grunnlagshendelse) bool { return true }), nil
}

func (s *InMemory) EntriesAsOf(_ context.Context, sakID id.SakID, bound int64) ([]models.Grunnlagshendelse, error) {
	return s.filter(sakID, func(h models.Grunnlagshendelse) bool { return h.Hendelsenummer <= bound }), nil
}

func (s *InMemory) EntryIDs(_ context.Context, sakID id.SakID) (map[id.OpplysningID]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.OpplysningID]struct{})
	if sak, ok := s.saker[sakID]; ok {
		for k := range sak.ids {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

// FindRostersContaining scans the latest case roster of every sak and returns
// those listing fnr in any role, ordered by sak id. A sak whose roster cannot
// be decoded is logged and skipped.
func (s *InMemory) FindRostersContaining(ctx context.Context, fnr id.Folkeregisteridentifikator) ([]models.SakPersongalleri, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SakPersongalleri
	for sakID, sak := range s.saker {
		for i := len(sak.entries) - 1; i >= 0; i-- {
			h := sak.entries[i]
			if h.Opplysning.Type != models.PersongalleriV1 {
				continue
			}
			galleri, err := models.DekodPersongalleri(h.Opplysning)
			if err != nil {
				logUndecodableRoster(ctx, s.logger, h, err)
				break
			}
			if slices.Contains(galleri.Personer(), fnr) {
				out = append(out, models.SakPersongalleri{SakID: sakID, Persongalleri: galleri})
			}
			break
		}
	}
	slices.SortFunc(out, func(a, b models.SakPersongalleri) int { return cmp.Compare(a.SakID, b.SakID) })
	return out, nil
}

func (s *InMemory) filter(sakID id.SakID, keep func(models.Grunnlagshendelse) bool) []models.Grunnlagshendelse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sak, ok := s.saker[sakID]
	if !ok {
		return []models.Grunnlagshendelse{}
	}
	out := make([]models.Grunnlagshendelse, 0, len(sak.entries))
	for _, h := range sak.entries {
		if keep(h) {
			out = append(out, cloneHendelse(h))
		}
	}
	return out
}

func cloneHendelse(h models.Grunnlagshendelse) models.Grunnlagshendelse {
	h.Opplysning = cloneOpplysning(h.Opplysning)
	return h
}

func cloneOpplysning(o models.Opplysning) models.Opplysning {
	o.Opplysning = slices.Clone(o.Opplysning)
	if o.Fnr != nil {
		f := *o.Fnr
		o.Fnr = &f
	}
	if o.Periode != nil {
		p := *o.Periode
		o.Periode = &p
	}
	if o.Attestering != nil {
		a := *o.Attestering
		o.Attestering = &a
	}
	return o
}

func logUndecodableRoster(ctx context.Context, logger *slog.Logger, h models.Grunnlagshendelse, err error) {
	logger.ErrorContext(ctx, "skipping sak with undecodable persongalleri",
		"sak_id", h.SakID,
		"hendelsenummer", h.Hendelsenummer,
		"opplysning_id", h.Opplysning.ID,
		"error", err,
	)
}
