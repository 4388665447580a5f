package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "grunnlag/pkg/domain"
)

const (
	p1 = id.Folkeregisteridentifikator("01018022091")
	p2 = id.Folkeregisteridentifikator("02028025591")
	p3 = id.Folkeregisteridentifikator("03038530258")
	p4 = id.Folkeregisteridentifikator("04049034585")
	p5 = id.Folkeregisteridentifikator("05121017921")
)

func TestPersongalleriRolle(t *testing.T) {
	innsender := p5
	galleri := Persongalleri{
		Soeker:      p1,
		Innsender:   &innsender,
		Soesken:     []id.Folkeregisteridentifikator{p1, p4},
		Avdoed:      []id.Folkeregisteridentifikator{p2},
		Gjenlevende: []id.Folkeregisteridentifikator{p3, p4},
	}

	tests := []struct {
		name string
		fnr  id.Folkeregisteridentifikator
		want Saksrolle
	}{
		{"soeker wins over soesken", p1, RolleSoeker},
		{"soesken wins over gjenlevende", p4, RolleSoesken},
		{"avdoed", p2, RolleAvdoed},
		{"gjenlevende", p3, RolleGjenlevende},
		{"innsender", p5, RolleInnsender},
		{"unknown person", "06101514666", RolleUkjent},
		{"empty fnr", "", RolleUkjent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, galleri.Rolle(tt.fnr))
		})
	}
}

func TestPersongalleriHar(t *testing.T) {
	galleri := Persongalleri{Soeker: p1, Soesken: []id.Folkeregisteridentifikator{p1}}

	assert.True(t, galleri.Har(RolleSoeker, p1))
	assert.True(t, galleri.Har(RolleSoesken, p1))
	assert.False(t, galleri.Har(RolleAvdoed, p1))
	assert.False(t, galleri.Har(RolleInnsender, p1))
}

func TestPersongalleriPersoner(t *testing.T) {
	innsender := p3
	galleri := Persongalleri{
		Soeker:      p1,
		Innsender:   &innsender,
		Avdoed:      []id.Folkeregisteridentifikator{p2},
		Gjenlevende: []id.Folkeregisteridentifikator{p3},
	}
	assert.Equal(t, []id.Folkeregisteridentifikator{p1, p2, p3}, galleri.Personer())
}

func TestDekodPersongalleri(t *testing.T) {
	t.Run("decodes roster payload", func(t *testing.T) {
		o := Opplysning{
			ID:         id.NewOpplysningID(),
			Type:       PersongalleriV1,
			Opplysning: json.RawMessage(`{"soeker":"01018022091","avdoed":["02028025591"],"gjenlevende":[],"soesken":[]}`),
		}
		got, err := DekodPersongalleri(o)
		require.NoError(t, err)
		assert.Equal(t, p1, got.Soeker)
		assert.Equal(t, []id.Folkeregisteridentifikator{p2}, got.Avdoed)
	})

	t.Run("rejects non-roster fact", func(t *testing.T) {
		_, err := DekodPersongalleri(Opplysning{Type: SoekerPdlV1, Opplysning: json.RawMessage(`{}`)})
		assert.True(t, errors.Is(err, ErrInkonsistentGrunnlag))
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		_, err := DekodPersongalleri(Opplysning{Type: PersongalleriV1, Opplysning: json.RawMessage(`[1,2]`)})
		assert.ErrorIs(t, err, ErrInkonsistentGrunnlag)
	})
}
