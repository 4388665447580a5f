package models

import "errors"

var (
	// ErrGrunnlagLaast is returned when a locked version pointer would move.
	ErrGrunnlagLaast = errors.New("grunnlag is locked for behandling")
	// ErrKildeIkkeLaast is returned by LockTo when the source pointer is not locked.
	ErrKildeIkkeLaast = errors.New("source behandling is not locked")
	// ErrGrunnlagIkkeFunnet means no case roster exists at the requested bound.
	ErrGrunnlagIkkeFunnet = errors.New("grunnlag not found")
	// ErrIngenOpplysning means the requested fact type has no value. Not a fault.
	ErrIngenOpplysning = errors.New("no opplysning of requested type")
	// ErrInkonsistentGrunnlag marks structurally impossible ledger state.
	ErrInkonsistentGrunnlag = errors.New("inconsistent grunnlag")
)
