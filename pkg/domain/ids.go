package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "grunnlag/pkg/domain-errors"
)

// SakID identifies a welfare case. Facts accumulate against a sak.
type SakID int64

// ParseSakID parses a positive case id from external input.
func ParseSakID(s string) (SakID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "sak id cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid sak id")
	}
	return SakID(v), nil
}

func (s SakID) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// BehandlingID identifies one processing round within a sak.
type BehandlingID uuid.UUID

// ParseBehandlingID parses a non-nil UUID from external input.
func ParseBehandlingID(s string) (BehandlingID, error) {
	u, err := parseUUID(s, "behandling id")
	return BehandlingID(u), err
}

func (b BehandlingID) String() string { return uuid.UUID(b).String() }

func (b BehandlingID) IsNil() bool { return uuid.UUID(b) == uuid.Nil }

func (b BehandlingID) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BehandlingID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid behandling id")
	}
	*b = BehandlingID(u)
	return nil
}

// OpplysningID is the client-assigned id of a fact. It doubles as the
// idempotency key within a sak.
type OpplysningID uuid.UUID

// NewOpplysningID returns a fresh random fact id.
func NewOpplysningID() OpplysningID { return OpplysningID(uuid.New()) }

// ParseOpplysningID parses a non-nil UUID from external input.
func ParseOpplysningID(s string) (OpplysningID, error) {
	u, err := parseUUID(s, "opplysning id")
	return OpplysningID(u), err
}

func (o OpplysningID) String() string { return uuid.UUID(o).String() }

func (o OpplysningID) IsNil() bool { return uuid.UUID(o) == uuid.Nil }

func (o OpplysningID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OpplysningID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid opplysning id")
	}
	*o = OpplysningID(u)
	return nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}

// Folkeregisteridentifikator is a national identity number (fødselsnummer or
// d-nummer). Construct it with ParseFolkeregisteridentifikator at trust
// boundaries; inside the domain it is treated as an opaque key.
type Folkeregisteridentifikator string

// ParseFolkeregisteridentifikator validates length, digits and both mod-11 control digits.
func ParseFolkeregisteridentifikator(s string) (Folkeregisteridentifikator, error) {
	s = strings.TrimSpace(s)
	if len(s) != 11 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "folkeregisteridentifikator must be 11 digits")
	}
	digits := make([]int, 11)
	for i, r := range s {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "folkeregisteridentifikator must be 11 digits")
		}
		digits[i] = int(r - '0')
	}
	if !validControlDigits(digits) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid folkeregisteridentifikator")
	}
	return Folkeregisteridentifikator(s), nil
}

func (f Folkeregisteridentifikator) String() string { return string(f) }

func (f Folkeregisteridentifikator) IsEmpty() bool { return f == "" }

var (
	k1Weights = []int{3, 7, 6, 1, 8, 9, 4, 5, 2}
	k2Weights = []int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}
)

func validControlDigits(d []int) bool {
	return controlDigit(d[:9], k1Weights) == d[9] && controlDigit(d[:10], k2Weights) == d[10]
}

func controlDigit(d, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += d[i] * w
	}
	k := 11 - sum%11
	if k == 11 {
		return 0
	}
	return k
}
