// Package aggregate turns ledger entries up to a pinned hendelsenummer into a
// Grunnlag. Everything here is a pure function of its input: no store access,
// no clock, no map iteration order leaking into results.
package aggregate

import (
	"fmt"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

// Bygg assembles the snapshot of sakID at versjon from entries. Entries above
// versjon are ignored, so callers may pass a superset. It fails with
// ErrGrunnlagIkkeFunnet when no case roster exists at the bound.
func Bygg(sakID id.SakID, versjon int64, entries []models.Grunnlagshendelse) (*models.Grunnlag, error) {
	var (
		galleriHendelse *models.Grunnlagshendelse
		bounded         = make([]models.Grunnlagshendelse, 0, len(entries))
	)
	for _, h := range entries {
		if h.Hendelsenummer > versjon || h.SakID != sakID {
			continue
		}
		bounded = append(bounded, h)
		if h.Opplysning.Type == models.PersongalleriV1 && (galleriHendelse == nil || h.Hendelsenummer > galleriHendelse.Hendelsenummer) {
			hh := h
			galleriHendelse = &hh
		}
	}
	if galleriHendelse == nil {
		return nil, fmt.Errorf("%w: sak %s at %d", models.ErrGrunnlagIkkeFunnet, sakID, versjon)
	}
	galleri, err := models.DekodPersongalleri(galleriHendelse.Opplysning)
	if err != nil {
		return nil, err
	}

	perRolle := GjeldendePerRolle(galleri, bounded)
	g := &models.Grunnlag{
		SakID:                 sakID,
		Versjon:               versjon,
		Persongalleri:         galleri,
		PersongalleriHendelse: *galleriHendelse,
		Avdoede:               nonNil(perRolle[models.RolleAvdoed]),
		Gjenlevende:           nonNil(perRolle[models.RolleGjenlevende]),
		Sak:                   make(map[models.OpplysningType]models.Grunnlagshendelse),
		Personfakta:           make(map[id.Folkeregisteridentifikator]map[models.OpplysningType]models.Grunnlagshendelse),
	}
	if soeker := perRolle[models.RolleSoeker]; len(soeker) > 0 {
		g.Soeker = &soeker[0]
	}
	if innsender := perRolle[models.RolleInnsender]; len(innsender) > 0 {
		g.Innsender = &innsender[0]
	}

	listed := make(map[id.Folkeregisteridentifikator]bool)
	for _, f := range galleri.Personer() {
		listed[f] = true
	}
	for _, h := range bounded {
		typ := h.Opplysning.Type
		if _, rolleBaert := typ.Rolle(); rolleBaert {
			continue
		}
		fnr := h.Fnr()
		if fnr.IsEmpty() {
			if cur, ok := g.Sak[typ]; !ok || h.Hendelsenummer > cur.Hendelsenummer {
				g.Sak[typ] = h
			}
			continue
		}
		if !listed[fnr] {
			continue
		}
		fakta, ok := g.Personfakta[fnr]
		if !ok {
			fakta = make(map[models.OpplysningType]models.Grunnlagshendelse)
			g.Personfakta[fnr] = fakta
		}
		if cur, ok := fakta[typ]; !ok || h.Hendelsenummer > cur.Hendelsenummer {
			fakta[typ] = h
		}
	}
	return g, nil
}

type personType struct {
	fnr id.Folkeregisteridentifikator
	typ models.OpplysningType
}

// GjeldendePerRolle reduces role-bearing entries to the latest one per
// (person, type) and keeps only people the roster still lists in the role
// the type belongs to. Results per role follow roster order.
func GjeldendePerRolle(galleri models.Persongalleri, entries []models.Grunnlagshendelse) map[models.Saksrolle][]models.Personopplysning {
	latest := make(map[personType]models.Grunnlagshendelse)
	for _, h := range entries {
		if _, ok := h.Opplysning.Type.Rolle(); !ok {
			continue
		}
		fnr := h.Fnr()
		if fnr.IsEmpty() {
			continue
		}
		key := personType{fnr: fnr, typ: h.Opplysning.Type}
		if cur, ok := latest[key]; !ok || h.Hendelsenummer > cur.Hendelsenummer {
			latest[key] = h
		}
	}

	out := make(map[models.Saksrolle][]models.Personopplysning)
	for _, typ := range models.RolleTyper() {
		rolle, _ := typ.Rolle()
		for _, fnr := range rosterOrder(galleri, rolle) {
			h, ok := latest[personType{fnr: fnr, typ: typ}]
			if !ok {
				continue
			}
			out[rolle] = append(out[rolle], models.Personopplysning{Fnr: fnr, Rolle: rolle, Hendelse: h})
		}
	}
	return out
}

func rosterOrder(galleri models.Persongalleri, rolle models.Saksrolle) []id.Folkeregisteridentifikator {
	switch rolle {
	case models.RolleSoeker:
		if galleri.Soeker.IsEmpty() {
			return nil
		}
		return []id.Folkeregisteridentifikator{galleri.Soeker}
	case models.RolleAvdoed:
		return dedup(galleri.Avdoed)
	case models.RolleGjenlevende:
		return dedup(galleri.Gjenlevende)
	case models.RolleInnsender:
		if galleri.Innsender == nil || galleri.Innsender.IsEmpty() {
			return nil
		}
		return []id.Folkeregisteridentifikator{*galleri.Innsender}
	case models.RolleSoesken:
		return dedup(galleri.Soesken)
	default:
		return nil
	}
}

func dedup(list []id.Folkeregisteridentifikator) []id.Folkeregisteridentifikator {
	seen := make(map[id.Folkeregisteridentifikator]bool, len(list))
	out := make([]id.Folkeregisteridentifikator, 0, len(list))
	for _, f := range list {
		if f.IsEmpty() || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Personopplysninger builds the person summary from the latest roster and the
// role-bearing entries up to the pin. It applies the same reduction and
// roster filter as Bygg without assembling the full snapshot.
func Personopplysninger(galleri models.Persongalleri, rolleFakta []models.Grunnlagshendelse) models.PersonopplysningerSammendrag {
	perRolle := GjeldendePerRolle(galleri, rolleFakta)
	s := models.PersonopplysningerSammendrag{
		Avdoede:     nonNil(perRolle[models.RolleAvdoed]),
		Gjenlevende: nonNil(perRolle[models.RolleGjenlevende]),
	}
	if soeker := perRolle[models.RolleSoeker]; len(soeker) > 0 {
		s.Soeker = &soeker[0]
	}
	if innsender := perRolle[models.RolleInnsender]; len(innsender) > 0 {
		s.Innsender = &innsender[0]
	}
	return s
}

func nonNil(list []models.Personopplysning) []models.Personopplysning {
	if list == nil {
		return []models.Personopplysning{}
	}
	return list
}
