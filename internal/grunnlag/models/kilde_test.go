package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tidspunkt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestProjiser(t *testing.T) {
	detalj := func(s string) *string { return &s }

	tests := []struct {
		name  string
		kilde Kilde
		want  KildeProjeksjon
	}{
		{"pdl", NewPdlKilde(tidspunkt, "ref-1"), KildeProjeksjon{Type: KildePdl, Tidspunkt: tidspunkt, Detalj: detalj("ref-1")}},
		{"saksbehandler", NewSaksbehandlerKilde("Z123456", tidspunkt), KildeProjeksjon{Type: KildeSaksbehandler, Tidspunkt: tidspunkt, Detalj: detalj("Z123456")}},
		{"privatperson", NewPrivatpersonKilde("01018022091", tidspunkt), KildeProjeksjon{Type: KildePrivatperson, Tidspunkt: tidspunkt, Detalj: detalj("01018022091")}},
		{"regel", NewRegelKilde("soesken", "1.2", tidspunkt), KildeProjeksjon{Type: KildeRegel, Tidspunkt: tidspunkt, Detalj: detalj("soesken:1.2")}},
		{"migrering", NewMigreringKilde(tidspunkt), KildeProjeksjon{Type: KildeMigrering, Tidspunkt: tidspunkt}},
		{"ukjent innsender", NewUkjentInnsenderKilde(tidspunkt), KildeProjeksjon{Type: KildeUkjentInnsender, Tidspunkt: tidspunkt}},
		{"pdl without reference", NewPdlKilde(tidspunkt, ""), KildeProjeksjon{Type: KildePdl, Tidspunkt: tidspunkt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Projiser(tt.kilde))
		})
	}
}

func TestKildeJSON(t *testing.T) {
	t.Run("writes a discriminated document", func(t *testing.T) {
		raw, err := json.Marshal(NewSaksbehandlerKilde("Z123456", tidspunkt))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"saksbehandler","ident":"Z123456","tidspunkt":"2024-03-01T12:00:00Z"}`, string(raw))
	})

	t.Run("reads every variant back", func(t *testing.T) {
		for _, k := range []Kilde{
			NewPdlKilde(tidspunkt, "ref"),
			NewSaksbehandlerKilde("Z1", tidspunkt),
			NewPrivatpersonKilde("01018022091", tidspunkt),
			NewRegelKilde("r", "v1", tidspunkt),
			NewMigreringKilde(tidspunkt),
			NewUkjentInnsenderKilde(tidspunkt),
		} {
			raw, err := json.Marshal(k)
			require.NoError(t, err)

			var got Kilde
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, k, got, string(k.Type))
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		var got Kilde
		err := json.Unmarshal([]byte(`{"type":"gjetning"}`), &got)
		require.Error(t, err)
	})
}

func TestKildeValidate(t *testing.T) {
	require.NoError(t, NewRegelKilde("r", "1", tidspunkt).Validate())

	t.Run("mismatched variant", func(t *testing.T) {
		k := NewPdlKilde(tidspunkt, "ref")
		k.Type = KildeSaksbehandler
		require.Error(t, k.Validate())
	})

	t.Run("two variants", func(t *testing.T) {
		k := NewPdlKilde(tidspunkt, "ref")
		k.Migrering = &MigreringKilde{Tidspunkt: tidspunkt}
		require.Error(t, k.Validate())
	})

	t.Run("saksbehandler without ident", func(t *testing.T) {
		require.Error(t, NewSaksbehandlerKilde("", tidspunkt).Validate())
	})
}
