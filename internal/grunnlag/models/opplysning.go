package models

import (
	"encoding/json"
	"time"

	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
)

// OpplysningType is the kind of a fact. The set is closed at any point in
// time but grows with new releases; unknown values are rejected at the
// trust boundary by ParseOpplysningType.
type OpplysningType string

const (
	// Participant rosters.
	PersongalleriV1    OpplysningType = "PERSONGALLERI_V1"
	PersongalleriPdlV1 OpplysningType = "PERSONGALLERI_PDL_V1"

	// Person details per role, sourced from the population registry.
	SoekerPdlV1              OpplysningType = "SOEKER_PDL_V1"
	AvdoedPdlV1              OpplysningType = "AVDOED_PDL_V1"
	GjenlevendeForelderPdlV1 OpplysningType = "GJENLEVENDE_FORELDER_PDL_V1"
	InnsenderPdlV1           OpplysningType = "INNSENDER_PDL_V1"

	// Case-level and person-level facts registered by caseworkers or rules.
	SoeskenIBeregningen     OpplysningType = "SOESKEN_I_BEREGNINGEN"
	HistoriskForeldreansvar OpplysningType = "HISTORISK_FORELDREANSVAR"
	Utlandstilknytning      OpplysningType = "UTLANDSTILKNYTNING"
	Spraak                  OpplysningType = "SPRAAK"
	Vergemaal               OpplysningType = "VERGEMAALSFULLMAKT"
)

var validOpplysningTyper = map[OpplysningType]bool{
	PersongalleriV1:          true,
	PersongalleriPdlV1:       true,
	SoekerPdlV1:              true,
	AvdoedPdlV1:              true,
	GjenlevendeForelderPdlV1: true,
	InnsenderPdlV1:           true,
	SoeskenIBeregningen:      true,
	HistoriskForeldreansvar:  true,
	Utlandstilknytning:       true,
	Spraak:                   true,
	Vergemaal:                true,
}

// rolleTyper maps each role-bearing person-detail type to the role its
// subject must hold in the roster for the fact to be part of a grunnlag.
var rolleTyper = map[OpplysningType]Saksrolle{
	SoekerPdlV1:              RolleSoeker,
	AvdoedPdlV1:              RolleAvdoed,
	GjenlevendeForelderPdlV1: RolleGjenlevende,
	InnsenderPdlV1:           RolleInnsender,
}

// RolleTyper lists the role-bearing person-detail types in a stable order.
func RolleTyper() []OpplysningType {
	return []OpplysningType{SoekerPdlV1, AvdoedPdlV1, GjenlevendeForelderPdlV1, InnsenderPdlV1}
}

// ParseOpplysningType validates an external type name.
func ParseOpplysningType(s string) (OpplysningType, error) {
	t := OpplysningType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown opplysningstype: "+s)
	}
	return t, nil
}

func (t OpplysningType) IsValid() bool { return validOpplysningTyper[t] }

func (t OpplysningType) String() string { return string(t) }

// Rolle returns the roster role a role-bearing type belongs to.
func (t OpplysningType) Rolle() (Saksrolle, bool) {
	r, ok := rolleTyper[t]
	return r, ok
}

// Periode is the date range a fact applies to. Tom is open-ended when nil.
type Periode struct {
	Fom time.Time  `json:"fom"`
	Tom *time.Time `json:"tom,omitempty"`
}

// Attestering records formal approval of a fact.
type Attestering struct {
	Ident     string    `json:"ident"`
	Tidspunkt time.Time `json:"tidspunkt"`
}

// Opplysning is one immutable, provenance-tagged fact. The ID is assigned by
// the producer and is the idempotency key within a sak.
type Opplysning struct {
	ID          id.OpplysningID                `json:"id"`
	Type        OpplysningType                 `json:"opplysningType"`
	Kilde       Kilde                          `json:"kilde"`
	Fnr         *id.Folkeregisteridentifikator `json:"fnr,omitempty"`
	Periode     *Periode                       `json:"periode,omitempty"`
	Attestering *Attestering                   `json:"attestering,omitempty"`
	Opplysning  json.RawMessage                `json:"opplysning"`
}

// Validate checks the structural invariants of a fact before it is appended.
func (o Opplysning) Validate() error {
	if o.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "opplysning id is required")
	}
	if !o.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown opplysningstype: "+string(o.Type))
	}
	if err := o.Kilde.Validate(); err != nil {
		return err
	}
	if len(o.Opplysning) == 0 || !json.Valid(o.Opplysning) {
		return dErrors.New(dErrors.CodeValidation, "opplysning must be a JSON document")
	}
	if o.Periode != nil && o.Periode.Tom != nil && o.Periode.Tom.Before(o.Periode.Fom) {
		return dErrors.New(dErrors.CodeValidation, "periode tom is before fom")
	}
	return nil
}

// Grunnlagshendelse is one ledger entry: a fact stamped with the per-sak
// sequence number it was assigned at insert time.
type Grunnlagshendelse struct {
	SakID          id.SakID   `json:"sakId"`
	Hendelsenummer int64      `json:"hendelsenummer"`
	Opplysning     Opplysning `json:"opplysning"`
}

// Fnr returns the subject of the entry, or "" for sak-level facts.
func (h Grunnlagshendelse) Fnr() id.Folkeregisteridentifikator {
	if h.Opplysning.Fnr == nil {
		return ""
	}
	return *h.Opplysning.Fnr
}
