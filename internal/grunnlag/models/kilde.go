package models

import (
	"encoding/json"
	"fmt"
	"time"

	dErrors "grunnlag/pkg/domain-errors"
)

// KildeType discriminates the provenance variants.
type KildeType string

const (
	KildePdl             KildeType = "pdl"
	KildeSaksbehandler   KildeType = "saksbehandler"
	KildePrivatperson    KildeType = "privatperson"
	KildeRegel           KildeType = "regel"
	KildeMigrering       KildeType = "migrering"
	KildeUkjentInnsender KildeType = "ukjent_innsender"
)

// Kilde records who or what produced a fact. Exactly one variant pointer
// matching Type is set; use the constructors below rather than building the
// struct by hand.
type Kilde struct {
	Type KildeType

	Pdl             *PdlKilde
	Saksbehandler   *SaksbehandlerKilde
	Privatperson    *PrivatpersonKilde
	Regel           *RegelKilde
	Migrering       *MigreringKilde
	UkjentInnsender *UkjentInnsenderKilde
}

type PdlKilde struct {
	TidspunktForInnhenting time.Time
	Registersreferanse     string
}

type SaksbehandlerKilde struct {
	Ident     string
	Tidspunkt time.Time
}

type PrivatpersonKilde struct {
	Fnr         string
	MottattDato time.Time
}

type RegelKilde struct {
	Navn      string
	Versjon   string
	Tidspunkt time.Time
}

type MigreringKilde struct {
	Tidspunkt time.Time
}

type UkjentInnsenderKilde struct {
	Tidspunkt time.Time
}

func NewPdlKilde(tidspunkt time.Time, registersreferanse string) Kilde {
	return Kilde{Type: KildePdl, Pdl: &PdlKilde{TidspunktForInnhenting: tidspunkt, Registersreferanse: registersreferanse}}
}

func NewSaksbehandlerKilde(ident string, tidspunkt time.Time) Kilde {
	return Kilde{Type: KildeSaksbehandler, Saksbehandler: &SaksbehandlerKilde{Ident: ident, Tidspunkt: tidspunkt}}
}

func NewPrivatpersonKilde(fnr string, mottatt time.Time) Kilde {
	return Kilde{Type: KildePrivatperson, Privatperson: &PrivatpersonKilde{Fnr: fnr, MottattDato: mottatt}}
}

func NewRegelKilde(navn, versjon string, tidspunkt time.Time) Kilde {
	return Kilde{Type: KildeRegel, Regel: &RegelKilde{Navn: navn, Versjon: versjon, Tidspunkt: tidspunkt}}
}

func NewMigreringKilde(tidspunkt time.Time) Kilde {
	return Kilde{Type: KildeMigrering, Migrering: &MigreringKilde{Tidspunkt: tidspunkt}}
}

func NewUkjentInnsenderKilde(tidspunkt time.Time) Kilde {
	return Kilde{Type: KildeUkjentInnsender, UkjentInnsender: &UkjentInnsenderKilde{Tidspunkt: tidspunkt}}
}

// KildeProjeksjon is the uniform view every variant maps to.
type KildeProjeksjon struct {
	Type      KildeType `json:"type"`
	Tidspunkt time.Time `json:"tidspunkt"`
	Detalj    *string   `json:"detalj,omitempty"`
}

// Projiser maps a Kilde to its uniform projection.
func Projiser(k Kilde) KildeProjeksjon {
	p := KildeProjeksjon{Type: k.Type}
	switch k.Type {
	case KildePdl:
		if k.Pdl != nil {
			p.Tidspunkt = k.Pdl.TidspunktForInnhenting
			p.Detalj = optional(k.Pdl.Registersreferanse)
		}
	case KildeSaksbehandler:
		if k.Saksbehandler != nil {
			p.Tidspunkt = k.Saksbehandler.Tidspunkt
			p.Detalj = optional(k.Saksbehandler.Ident)
		}
	case KildePrivatperson:
		if k.Privatperson != nil {
			p.Tidspunkt = k.Privatperson.MottattDato
			p.Detalj = optional(k.Privatperson.Fnr)
		}
	case KildeRegel:
		if k.Regel != nil {
			p.Tidspunkt = k.Regel.Tidspunkt
			p.Detalj = optional(k.Regel.Navn + ":" + k.Regel.Versjon)
		}
	case KildeMigrering:
		if k.Migrering != nil {
			p.Tidspunkt = k.Migrering.Tidspunkt
		}
	case KildeUkjentInnsender:
		if k.UkjentInnsender != nil {
			p.Tidspunkt = k.UkjentInnsender.Tidspunkt
		}
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Validate checks that exactly the variant named by Type is present.
func (k Kilde) Validate() error {
	set := 0
	for _, present := range []bool{
		k.Pdl != nil, k.Saksbehandler != nil, k.Privatperson != nil,
		k.Regel != nil, k.Migrering != nil, k.UkjentInnsender != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return dErrors.New(dErrors.CodeValidation, "kilde must carry exactly one variant")
	}
	ok := false
	switch k.Type {
	case KildePdl:
		ok = k.Pdl != nil
	case KildeSaksbehandler:
		ok = k.Saksbehandler != nil && k.Saksbehandler.Ident != ""
	case KildePrivatperson:
		ok = k.Privatperson != nil
	case KildeRegel:
		ok = k.Regel != nil && k.Regel.Navn != ""
	case KildeMigrering:
		ok = k.Migrering != nil
	case KildeUkjentInnsender:
		ok = k.UkjentInnsender != nil
	}
	if !ok {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("kilde of type %q is incomplete", k.Type))
	}
	return nil
}

// kildeDokument is the persisted, discriminated JSON shape of a Kilde.
type kildeDokument struct {
	Type                   KildeType  `json:"type"`
	Tidspunkt              *time.Time `json:"tidspunkt,omitempty"`
	TidspunktForInnhenting *time.Time `json:"tidspunktForInnhenting,omitempty"`
	Registersreferanse     string     `json:"registersreferanse,omitempty"`
	Ident                  string     `json:"ident,omitempty"`
	Fnr                    string     `json:"fnr,omitempty"`
	MottattDato            *time.Time `json:"mottatDato,omitempty"`
	Navn                   string     `json:"navn,omitempty"`
	Versjon                string     `json:"versjon,omitempty"`
}

func (k Kilde) MarshalJSON() ([]byte, error) {
	doc := kildeDokument{Type: k.Type}
	switch k.Type {
	case KildePdl:
		if k.Pdl != nil {
			doc.TidspunktForInnhenting = &k.Pdl.TidspunktForInnhenting
			doc.Registersreferanse = k.Pdl.Registersreferanse
		}
	case KildeSaksbehandler:
		if k.Saksbehandler != nil {
			doc.Ident = k.Saksbehandler.Ident
			doc.Tidspunkt = &k.Saksbehandler.Tidspunkt
		}
	case KildePrivatperson:
		if k.Privatperson != nil {
			doc.Fnr = k.Privatperson.Fnr
			doc.MottattDato = &k.Privatperson.MottattDato
		}
	case KildeRegel:
		if k.Regel != nil {
			doc.Navn = k.Regel.Navn
			doc.Versjon = k.Regel.Versjon
			doc.Tidspunkt = &k.Regel.Tidspunkt
		}
	case KildeMigrering:
		if k.Migrering != nil {
			doc.Tidspunkt = &k.Migrering.Tidspunkt
		}
	case KildeUkjentInnsender:
		if k.UkjentInnsender != nil {
			doc.Tidspunkt = &k.UkjentInnsender.Tidspunkt
		}
	default:
		return nil, fmt.Errorf("marshal kilde: unknown type %q", k.Type)
	}
	return json.Marshal(doc)
}

func (k *Kilde) UnmarshalJSON(data []byte) error {
	var doc kildeDokument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	switch doc.Type {
	case KildePdl:
		*k = NewPdlKilde(deref(doc.TidspunktForInnhenting), doc.Registersreferanse)
	case KildeSaksbehandler:
		*k = NewSaksbehandlerKilde(doc.Ident, deref(doc.Tidspunkt))
	case KildePrivatperson:
		*k = NewPrivatpersonKilde(doc.Fnr, deref(doc.MottattDato))
	case KildeRegel:
		*k = NewRegelKilde(doc.Navn, doc.Versjon, deref(doc.Tidspunkt))
	case KildeMigrering:
		*k = NewMigreringKilde(deref(doc.Tidspunkt))
	case KildeUkjentInnsender:
		*k = NewUkjentInnsenderKilde(deref(doc.Tidspunkt))
	default:
		return fmt.Errorf("unmarshal kilde: unknown type %q", doc.Type)
	}
	return nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
