package registry

import (
	"encoding/json"
	"time"
)

// Persongalleri is the registry's roster around a soeker.
type Persongalleri struct {
	Soeker            string            `json:"soeker"`
	Innsender         *string           `json:"innsender,omitempty"`
	Soesken           []string          `json:"soesken"`
	Avdoed            []string          `json:"avdoed"`
	Gjenlevende       []string          `json:"gjenlevende"`
	PersonerUtenIdent []PersonUtenIdent `json:"personerUtenIdent,omitempty"`
}

type PersonUtenIdent struct {
	Rolle        string `json:"rolle"`
	Fornavn      string `json:"fornavn,omitempty"`
	Etternavn    string `json:"etternavn,omitempty"`
	Foedselsdato string `json:"foedselsdato,omitempty"`
}

// PersongalleriSvar is a roster lookup result.
type PersongalleriSvar struct {
	Persongalleri      Persongalleri `json:"persongalleri"`
	Registersreferanse string        `json:"registersreferanse"`
	HentetTidspunkt    time.Time     `json:"hentetTidspunkt"`
}

// PersonSvar is a person lookup result. Dokument is kept verbatim.
type PersonSvar struct {
	Fnr                string          `json:"fnr"`
	Rolle              string          `json:"rolle"`
	Dokument           json.RawMessage `json:"dokument"`
	Registersreferanse string          `json:"registersreferanse"`
	HentetTidspunkt    time.Time       `json:"hentetTidspunkt"`
}

type persongalleriForespoersel struct {
	Soeker    string  `json:"soeker"`
	SakType   string  `json:"sakType"`
	Innsender *string `json:"innsender,omitempty"`
}

type personForespoersel struct {
	Fnr     string `json:"fnr"`
	Rolle   string `json:"rolle"`
	SakType string `json:"sakType"`
}
