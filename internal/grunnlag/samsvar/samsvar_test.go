package samsvar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
)

const (
	p1 = id.Folkeregisteridentifikator("01018022091")
	p2 = id.Folkeregisteridentifikator("02028025591")
	p3 = id.Folkeregisteridentifikator("03038530258")
	p4 = id.Folkeregisteridentifikator("04049034585")
	p5 = id.Folkeregisteridentifikator("05121017921")
)

var tidspunkt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func hendelse(typ models.OpplysningType, kilde models.Kilde, galleri models.Persongalleri) models.Grunnlagshendelse {
	raw, _ := json.Marshal(galleri)
	return models.Grunnlagshendelse{
		SakID:          1,
		Hendelsenummer: 1,
		Opplysning:     models.Opplysning{ID: id.NewOpplysningID(), Type: typ, Kilde: kilde, Opplysning: raw},
	}
}

func saksroster(g models.Persongalleri) models.Grunnlagshendelse {
	return hendelse(models.PersongalleriV1, models.NewPrivatpersonKilde(string(p1), tidspunkt), g)
}

func pdlroster(g models.Persongalleri) *models.Grunnlagshendelse {
	h := hendelse(models.PersongalleriPdlV1, models.NewPdlKilde(tidspunkt, "pdl"), g)
	return &h
}

func ids(f ...id.Folkeregisteridentifikator) []id.Folkeregisteridentifikator { return f }

func TestSammenlignWithoutRegistryRoster(t *testing.T) {
	rapport, err := Sammenlign(saksroster(models.Persongalleri{Soeker: p1}), nil)
	require.NoError(t, err)
	assert.Empty(t, rapport.Problemer)
	assert.Nil(t, rapport.PersongalleriPdl)
	assert.Nil(t, rapport.KildePersongalleriPdl)
	assert.Equal(t, models.KildePrivatperson, rapport.KildePersongalleri.Type)
}

// TestSammenlignExtraDeceasedInRegistry: registry lists one more deceased than the case.
func TestSammenlignExtraDeceasedInRegistry(t *testing.T) {
	rapport, err := Sammenlign(
		saksroster(models.Persongalleri{Avdoed: ids(p2)}),
		pdlroster(models.Persongalleri{Avdoed: ids(p2, p3)}),
	)
	require.NoError(t, err)
	assert.Equal(t, []models.MismatchPersongalleri{models.EkstraAvdoedPdl}, rapport.Problemer)
	assert.Equal(t, ids(p3), rapport.KunIPdl[models.RolleAvdoed])
	assert.Empty(t, rapport.KunISak)
}

func TestSammenlignAllCategories(t *testing.T) {
	rapport, err := Sammenlign(
		saksroster(models.Persongalleri{Soeker: p1, Gjenlevende: ids(p3), Soesken: ids(p4)}),
		pdlroster(models.Persongalleri{
			Soeker:            p5,
			Avdoed:            ids(p2),
			Soesken:           ids(p4, p4),
			PersonerUtenIdent: []models.PersonUtenIdent{{Rolle: models.RolleSoesken, Fornavn: "Ukjent"}},
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []models.MismatchPersongalleri{
		models.EkstraSoekerPdl,
		models.ManglerSoekerPdl,
		models.EkstraAvdoedPdl,
		models.ManglerGjenlevendePdl,
		models.HarPersonerUtenIdenter,
	}, rapport.Problemer)
}

func TestSammenlignIsOrderInsensitive(t *testing.T) {
	a := models.Persongalleri{Soeker: p1, Avdoed: ids(p2, p3)}
	b := models.Persongalleri{Soeker: p1, Avdoed: ids(p3, p2, p3)}

	rapport, err := Sammenlign(saksroster(a), pdlroster(b))
	require.NoError(t, err)
	assert.Empty(t, rapport.Problemer)
}

func TestDifferanseSymmetry(t *testing.T) {
	a := ids(p1, p2, p3)
	b := ids(p3, p4, p5)

	kunIPdl, kunISak := Differanse(a, b)
	assert.Equal(t, ids(p4, p5), kunIPdl)
	assert.Equal(t, ids(p1, p2), kunISak)

	swappedPdl, swappedSak := Differanse(b, a)
	assert.Equal(t, kunIPdl, swappedSak)
	assert.Equal(t, kunISak, swappedPdl)
}

func TestSammenlignRejectsMalformedRoster(t *testing.T) {
	bad := models.Grunnlagshendelse{Opplysning: models.Opplysning{Type: models.PersongalleriV1, Opplysning: json.RawMessage(`"x"`)}}
	_, err := Sammenlign(bad, nil)
	assert.ErrorIs(t, err, models.ErrInkonsistentGrunnlag)
}
