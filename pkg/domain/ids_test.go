package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "grunnlag/pkg/domain-errors"
)

// TestParseBehandlingID_Invariants validates "ids must be valid, non-nil UUIDs".
func TestParseBehandlingID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseBehandlingID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseBehandlingID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		got, err := ParseBehandlingID(u.String())
		require.NoError(t, err)
		assert.Equal(t, BehandlingID(u), got)
	})
}

func TestParseSakID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SakID
		wantErr bool
	}{
		{"positive", "1234", 1234, false},
		{"trims whitespace", " 42 ", 42, false},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSakID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFolkeregisteridentifikator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "01018022091", false},
		{"valid with whitespace", " 08086011000 ", false},
		{"wrong first control digit", "01018022081", true},
		{"wrong second control digit", "01018022092", true},
		{"too short", "0101802209", true},
		{"letters", "0101802209a", true},
		{"oversized", strings.Repeat("1", 100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFolkeregisteridentifikator(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.input), got.String())
		})
	}
}

func TestOpplysningID_TextRoundTrip(t *testing.T) {
	id := NewOpplysningID()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var parsed OpplysningID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)
}
