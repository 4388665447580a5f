// Package versjon stores the per-behandling version pointers into the ledger.
//
// A pointer only moves forward while unlocked. Locking is a one-way latch.
// LockTo copies the pin of an already locked source onto a target that is
// absent or still unlocked, and locks the target.
package versjon

import (
	"context"
	"sync"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	"grunnlag/pkg/platform/sentinel"
)

// InMemory keeps pointers in a map guarded by a mutex.
type InMemory struct {
	mu       sync.RWMutex
	pointers map[id.BehandlingID]models.BehandlingVersjon
}

func NewInMemory() *InMemory {
	return &InMemory{pointers: make(map[id.BehandlingID]models.BehandlingVersjon)}
}

func (s *InMemory) Get(_ context.Context, behandlingID id.BehandlingID) (*models.BehandlingVersjon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.pointers[behandlingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

// Advance creates the pointer or moves it to hendelsenummer. A locked
// pointer is never touched. Moving to a lower number is ignored so that
// out-of-order callers cannot pull a pointer backwards.
func (s *InMemory) Advance(_ context.Context, behandlingID id.BehandlingID, sakID id.SakID, hendelsenummer int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.pointers[behandlingID]
	if ok && current.Laast {
		return models.ErrGrunnlagLaast
	}
	if ok && current.SakID == sakID && current.Hendelsenummer >= hendelsenummer {
		return nil
	}
	s.pointers[behandlingID] = models.BehandlingVersjon{
		BehandlingID:   behandlingID,
		SakID:          sakID,
		Hendelsenummer: hendelsenummer,
	}
	return nil
}

func (s *InMemory) Lock(_ context.Context, behandlingID id.BehandlingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.pointers[behandlingID]
	if !ok {
		return sentinel.ErrNotFound
	}
	v.Laast = true
	s.pointers[behandlingID] = v
	return nil
}

func (s *InMemory) LockTo(_ context.Context, target, source id.BehandlingID) (*models.BehandlingVersjon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kilde, ok := s.pointers[source]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !kilde.Laast {
		return nil, models.ErrKildeIkkeLaast
	}
	if current, ok := s.pointers[target]; ok && current.Laast {
		return nil, models.ErrGrunnlagLaast
	}
	v := models.BehandlingVersjon{
		BehandlingID:   target,
		SakID:          kilde.SakID,
		Hendelsenummer: kilde.Hendelsenummer,
		Laast:          true,
	}
	s.pointers[target] = v
	return &v, nil
}
