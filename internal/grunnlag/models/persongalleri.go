package models

import (
	"encoding/json"
	"fmt"

	id "grunnlag/pkg/domain"
)

// Saksrolle is the role a person holds in a sak.
type Saksrolle string

const (
	RolleSoeker      Saksrolle = "soeker"
	RolleSoesken     Saksrolle = "soesken"
	RolleAvdoed      Saksrolle = "avdoed"
	RolleGjenlevende Saksrolle = "gjenlevende"
	RolleInnsender   Saksrolle = "innsender"
	RolleUkjent      Saksrolle = "ukjent"
)

// PersonUtenIdent describes a participant without a national identifier.
type PersonUtenIdent struct {
	Rolle        Saksrolle `json:"rolle"`
	Fornavn      string    `json:"fornavn,omitempty"`
	Etternavn    string    `json:"etternavn,omitempty"`
	Foedselsdato string    `json:"foedselsdato,omitempty"`
}

// Persongalleri is the participant roster carried as the payload of a
// PERSONGALLERI_V1 or PERSONGALLERI_PDL_V1 fact.
type Persongalleri struct {
	Soeker            id.Folkeregisteridentifikator   `json:"soeker"`
	Innsender         *id.Folkeregisteridentifikator  `json:"innsender,omitempty"`
	Soesken           []id.Folkeregisteridentifikator `json:"soesken"`
	Avdoed            []id.Folkeregisteridentifikator `json:"avdoed"`
	Gjenlevende       []id.Folkeregisteridentifikator `json:"gjenlevende"`
	PersonerUtenIdent []PersonUtenIdent               `json:"personerUtenIdent,omitempty"`
}

// Rolle resolves the role fnr holds in the roster. The categories are not
// guaranteed disjoint, so the first match in the order soeker, soesken,
// avdoed, gjenlevende, innsender wins.
func (p Persongalleri) Rolle(fnr id.Folkeregisteridentifikator) Saksrolle {
	switch {
	case p.Soeker != "" && p.Soeker == fnr:
		return RolleSoeker
	case contains(p.Soesken, fnr):
		return RolleSoesken
	case contains(p.Avdoed, fnr):
		return RolleAvdoed
	case contains(p.Gjenlevende, fnr):
		return RolleGjenlevende
	case p.Innsender != nil && *p.Innsender == fnr:
		return RolleInnsender
	default:
		return RolleUkjent
	}
}

// Har reports whether fnr is listed under rolle, ignoring precedence.
func (p Persongalleri) Har(rolle Saksrolle, fnr id.Folkeregisteridentifikator) bool {
	switch rolle {
	case RolleSoeker:
		return p.Soeker != "" && p.Soeker == fnr
	case RolleSoesken:
		return contains(p.Soesken, fnr)
	case RolleAvdoed:
		return contains(p.Avdoed, fnr)
	case RolleGjenlevende:
		return contains(p.Gjenlevende, fnr)
	case RolleInnsender:
		return p.Innsender != nil && *p.Innsender == fnr
	default:
		return false
	}
}

// Personer returns every identified participant once, in roster order.
func (p Persongalleri) Personer() []id.Folkeregisteridentifikator {
	seen := make(map[id.Folkeregisteridentifikator]bool)
	var out []id.Folkeregisteridentifikator
	add := func(f id.Folkeregisteridentifikator) {
		if f == "" || seen[f] {
			return
		}
		seen[f] = true
		out = append(out, f)
	}
	add(p.Soeker)
	for _, f := range p.Soesken {
		add(f)
	}
	for _, f := range p.Avdoed {
		add(f)
	}
	for _, f := range p.Gjenlevende {
		add(f)
	}
	if p.Innsender != nil {
		add(*p.Innsender)
	}
	return out
}

func contains(list []id.Folkeregisteridentifikator, fnr id.Folkeregisteridentifikator) bool {
	if fnr == "" {
		return false
	}
	for _, f := range list {
		if f == fnr {
			return true
		}
	}
	return false
}

// SakPersongalleri pairs a sak with the latest case roster recorded for it.
type SakPersongalleri struct {
	SakID         id.SakID      `json:"sakId"`
	Persongalleri Persongalleri `json:"persongalleri"`
}

// SakMedRolle is one answer to "which saker is this person part of".
type SakMedRolle struct {
	SakID         id.SakID      `json:"sakId"`
	Rolle         Saksrolle     `json:"rolle"`
	Persongalleri Persongalleri `json:"persongalleri"`
}

// DekodPersongalleri reads the roster payload of a roster fact.
func DekodPersongalleri(o Opplysning) (Persongalleri, error) {
	if o.Type != PersongalleriV1 && o.Type != PersongalleriPdlV1 {
		return Persongalleri{}, fmt.Errorf("%w: %s is not a roster fact", ErrInkonsistentGrunnlag, o.Type)
	}
	var p Persongalleri
	if err := json.Unmarshal(o.Opplysning, &p); err != nil {
		return Persongalleri{}, fmt.Errorf("%w: decode persongalleri %s: %v", ErrInkonsistentGrunnlag, o.ID, err)
	}
	return p, nil
}
