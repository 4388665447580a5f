package models

import (
	id "grunnlag/pkg/domain"
)

// MismatchPersongalleri flags one category and direction of disagreement
// between the case roster and the registry roster. EKSTRA_*_PDL means the
// registry lists people the case lacks; MANGLER_*_PDL means the case lists
// people the registry does not know about.
type MismatchPersongalleri string

const (
	EkstraSoekerPdl       MismatchPersongalleri = "EKSTRA_SOEKER_PDL"
	ManglerSoekerPdl      MismatchPersongalleri = "MANGLER_SOEKER_PDL"
	EkstraAvdoedPdl       MismatchPersongalleri = "EKSTRA_AVDOED_PDL"
	ManglerAvdoedPdl      MismatchPersongalleri = "MANGLER_AVDOED_PDL"
	EkstraGjenlevendePdl  MismatchPersongalleri = "EKSTRA_GJENLEVENDE_PDL"
	ManglerGjenlevendePdl MismatchPersongalleri = "MANGLER_GJENLEVENDE_PDL"
	EkstraSoeskenPdl      MismatchPersongalleri = "EKSTRA_SOESKEN_PDL"
	ManglerSoeskenPdl     MismatchPersongalleri = "MANGLER_SOESKEN_PDL"

	HarPersonerUtenIdenter MismatchPersongalleri = "HAR_PERSONER_UTEN_IDENTER"
)

// PersongalleriSamsvar is the reconciliation report for one behandling.
// PersongalleriPdl is nil when the registry roster has not been recorded yet.
type PersongalleriSamsvar struct {
	Persongalleri         Persongalleri           `json:"persongalleri"`
	KildePersongalleri    KildeProjeksjon         `json:"kilde"`
	PersongalleriPdl      *Persongalleri          `json:"persongalleriPdl"`
	KildePersongalleriPdl *KildeProjeksjon        `json:"kildePdl"`
	Problemer             []MismatchPersongalleri `json:"problemer"`

	// Differences per category, registry minus case and case minus registry.
	KunIPdl map[Saksrolle][]id.Folkeregisteridentifikator `json:"kunIPdl,omitempty"`
	KunISak map[Saksrolle][]id.Folkeregisteridentifikator `json:"kunISak,omitempty"`
}
