package models

import (
	id "grunnlag/pkg/domain"
)

// Grunnlag is the derived, read-only snapshot of a sak's facts as of one
// hendelsenummer. It is recomputed on demand and never persisted.
type Grunnlag struct {
	SakID   id.SakID `json:"sakId"`
	Versjon int64    `json:"versjon"`

	Persongalleri         Persongalleri     `json:"persongalleri"`
	PersongalleriHendelse Grunnlagshendelse `json:"persongalleriHendelse"`

	Soeker      *Personopplysning  `json:"soeker,omitempty"`
	Innsender   *Personopplysning  `json:"innsender,omitempty"`
	Avdoede     []Personopplysning `json:"avdoede"`
	Gjenlevende []Personopplysning `json:"gjenlevende"`

	// Sak holds the latest sak-level fact per type.
	Sak map[OpplysningType]Grunnlagshendelse `json:"sak"`
	// Personfakta holds the latest person-scoped, non role-bearing fact per
	// subject and type, limited to subjects listed in the roster.
	Personfakta map[id.Folkeregisteridentifikator]map[OpplysningType]Grunnlagshendelse `json:"personfakta"`
}

// Personopplysning is the current role-bearing fact for one person.
type Personopplysning struct {
	Fnr      id.Folkeregisteridentifikator `json:"fnr"`
	Rolle    Saksrolle                     `json:"rolle"`
	Hendelse Grunnlagshendelse             `json:"hendelse"`
}

// PersonopplysningerSammendrag is the caseworker-facing person summary.
type PersonopplysningerSammendrag struct {
	Innsender   *Personopplysning  `json:"innsender,omitempty"`
	Soeker      *Personopplysning  `json:"soeker,omitempty"`
	Avdoede     []Personopplysning `json:"avdoede"`
	Gjenlevende []Personopplysning `json:"gjenlevende"`
}
