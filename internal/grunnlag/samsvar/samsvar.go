// Package samsvar reconciles the case roster against the registry roster.
package samsvar

import (
	"slices"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

type kategori struct {
	rolle   models.Saksrolle
	velg    func(models.Persongalleri) []id.Folkeregisteridentifikator
	ekstra  models.MismatchPersongalleri
	mangler models.MismatchPersongalleri
}

// Categories in report order.
var kategorier = []kategori{
	{models.RolleSoeker, soeker, models.EkstraSoekerPdl, models.ManglerSoekerPdl},
	{models.RolleAvdoed, func(p models.Persongalleri) []id.Folkeregisteridentifikator { return p.Avdoed }, models.EkstraAvdoedPdl, models.ManglerAvdoedPdl},
	{models.RolleGjenlevende, func(p models.Persongalleri) []id.Folkeregisteridentifikator { return p.Gjenlevende }, models.EkstraGjenlevendePdl, models.ManglerGjenlevendePdl},
	{models.RolleSoesken, func(p models.Persongalleri) []id.Folkeregisteridentifikator { return p.Soesken }, models.EkstraSoeskenPdl, models.ManglerSoeskenPdl},
}

func soeker(p models.Persongalleri) []id.Folkeregisteridentifikator {
	if p.Soeker.IsEmpty() {
		return nil
	}
	return []id.Folkeregisteridentifikator{p.Soeker}
}

// Sammenlign compares the case roster with the registry roster. The case
// roster is required; a nil registry roster yields a report without problems.
// Comparison is set based, so order and repeats in either roster are ignored.
func Sammenlign(sak models.Grunnlagshendelse, pdl *models.Grunnlagshendelse) (*models.PersongalleriSamsvar, error) {
	saksGalleri, err := models.DekodPersongalleri(sak.Opplysning)
	if err != nil {
		return nil, err
	}
	rapport := &models.PersongalleriSamsvar{
		Persongalleri:      saksGalleri,
		KildePersongalleri: models.Projiser(sak.Opplysning.Kilde),
		Problemer:          []models.MismatchPersongalleri{},
	}
	if pdl == nil {
		return rapport, nil
	}

	pdlGalleri, err := models.DekodPersongalleri(pdl.Opplysning)
	if err != nil {
		return nil, err
	}
	kilde := models.Projiser(pdl.Opplysning.Kilde)
	rapport.PersongalleriPdl = &pdlGalleri
	rapport.KildePersongalleriPdl = &kilde
	rapport.KunIPdl = make(map[models.Saksrolle][]id.Folkeregisteridentifikator)
	rapport.KunISak = make(map[models.Saksrolle][]id.Folkeregisteridentifikator)

	for _, k := range kategorier {
		kunIPdl, kunISak := Differanse(k.velg(saksGalleri), k.velg(pdlGalleri))
		if len(kunIPdl) > 0 {
			rapport.KunIPdl[k.rolle] = kunIPdl
			rapport.Problemer = append(rapport.Problemer, k.ekstra)
		}
		if len(kunISak) > 0 {
			rapport.KunISak[k.rolle] = kunISak
			rapport.Problemer = append(rapport.Problemer, k.mangler)
		}
	}
	if len(pdlGalleri.PersonerUtenIdent) > 0 {
		rapport.Problemer = append(rapport.Problemer, models.HarPersonerUtenIdenter)
	}
	return rapport, nil
}

// Differanse returns registry minus case and case minus registry, each
// sorted and without repeats.
func Differanse(sak, pdl []id.Folkeregisteridentifikator) (kunIPdl, kunISak []id.Folkeregisteridentifikator) {
	return minus(pdl, sak), minus(sak, pdl)
}

func minus(a, b []id.Folkeregisteridentifikator) []id.Folkeregisteridentifikator {
	fjern := make(map[id.Folkeregisteridentifikator]bool, len(b))
	for _, f := range b {
		fjern[f] = true
	}
	var out []id.Folkeregisteridentifikator
	for _, f := range a {
		if f.IsEmpty() || fjern[f] {
			continue
		}
		fjern[f] = true
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
