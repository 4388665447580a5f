package models

import dErrors "grunnlag/pkg/domain-errors"

// SakType is the benefit a sak concerns. The registry tailors roster and
// person lookups to it.
type SakType string

const (
	SakTypeBarnepensjon       SakType = "BARNEPENSJON"
	SakTypeOmstillingsstoenad SakType = "OMSTILLINGSSTOENAD"
)

func ParseSakType(s string) (SakType, error) {
	switch t := SakType(s); t {
	case SakTypeBarnepensjon, SakTypeOmstillingsstoenad:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown saktype: "+s)
	}
}
