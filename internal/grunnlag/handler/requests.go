package handler

import (
	"errors"
	"fmt"
	"strings"

	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/service"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
)

// maxOpplysningerPerBatch bounds one nye-opplysninger request.
const maxOpplysningerPerBatch = 500

// NyeOpplysningerRequest is the body of POST .../nye-opplysninger.
type NyeOpplysningerRequest struct {
	SakID        id.SakID            `json:"sakId"`
	Opplysninger []models.Opplysning `json:"opplysninger"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *NyeOpplysningerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Opplysninger) > maxOpplysningerPerBatch {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d opplysninger per request", maxOpplysningerPerBatch))
	}
	if r.SakID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "sakId is required")
	}
	if len(r.Opplysninger) == 0 {
		return dErrors.New(dErrors.CodeValidation, "opplysninger must not be empty")
	}
	for i, o := range r.Opplysninger {
		if err := o.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("opplysninger[%d]: %s", i, validationMessage(err)))
		}
	}
	return nil
}

// OpprettGrunnlagRequest is the body of POST .../opprett-grunnlag.
type OpprettGrunnlagRequest struct {
	SakID         id.SakID              `json:"sakId"`
	Persongalleri *models.Persongalleri `json:"persongalleri,omitempty"`
	Kilde         *models.Kilde         `json:"kilde,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *OpprettGrunnlagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.SakID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "sakId is required")
	}
	if r.Persongalleri != nil {
		if r.Persongalleri.Soeker.IsEmpty() {
			return dErrors.New(dErrors.CodeValidation, "persongalleri.soeker is required")
		}
		for _, fnr := range r.Persongalleri.Personer() {
			if _, err := id.ParseFolkeregisteridentifikator(fnr.String()); err != nil {
				return err
			}
		}
	}
	if r.Kilde != nil {
		if err := r.Kilde.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid kilde: "+validationMessage(err))
		}
	}
	return nil
}

func (r *OpprettGrunnlagRequest) toService() service.OpprettGrunnlagRequest {
	return service.OpprettGrunnlagRequest{
		SakID:         r.SakID,
		Persongalleri: r.Persongalleri,
		Kilde:         r.Kilde,
	}
}

// OppdaterGrunnlagRequest is the body of POST .../oppdater-grunnlag.
type OppdaterGrunnlagRequest struct {
	SakType string `json:"sakType"`

	parsedSakType models.SakType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *OppdaterGrunnlagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SakType = strings.TrimSpace(r.SakType)
	if r.SakType == "" {
		return dErrors.New(dErrors.CodeValidation, "sakType is required")
	}
	sakType, err := models.ParseSakType(r.SakType)
	if err != nil {
		return err
	}
	r.parsedSakType = sakType
	return nil
}

// PersonRequest carries a person identifier in a request body.
type PersonRequest struct {
	Foedselsnummer string `json:"foedselsnummer"`

	parsedFnr id.Folkeregisteridentifikator
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *PersonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	fnr, err := id.ParseFolkeregisteridentifikator(r.Foedselsnummer)
	if err != nil {
		return err
	}
	r.parsedFnr = fnr
	return nil
}

// SaksrolleResponse answers GET .../saksrolle/{fnr}.
type SaksrolleResponse struct {
	Rolle models.Saksrolle `json:"rolle"`
}

func validationMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
