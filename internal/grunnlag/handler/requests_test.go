package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grunnlag/internal/grunnlag/models"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
)

// RequestsSuite tests request validation and normalization.
type RequestsSuite struct {
	suite.Suite
}

func TestRequestsSuite(t *testing.T) {
	suite.Run(t, new(RequestsSuite))
}

func (s *RequestsSuite) TestNyeOpplysningerRequest() {
	s.Run("valid request passes", func() {
		req := &NyeOpplysningerRequest{SakID: 1, Opplysninger: []models.Opplysning{spraakOpplysning()}}
		s.NoError(req.Validate())
	})

	s.Run("missing sak rejected", func() {
		req := &NyeOpplysningerRequest{Opplysninger: []models.Opplysning{spraakOpplysning()}}
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	s.Run("invalid fact names its position", func() {
		bad := spraakOpplysning()
		bad.Opplysning = json.RawMessage(`{`)
		req := &NyeOpplysningerRequest{SakID: 1, Opplysninger: []models.Opplysning{spraakOpplysning(), bad}}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "opplysninger[1]")
	})

	s.Run("too many facts rejected", func() {
		req := &NyeOpplysningerRequest{SakID: 1, Opplysninger: make([]models.Opplysning, maxOpplysningerPerBatch+1)}
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})
}

func (s *RequestsSuite) TestOpprettGrunnlagRequest() {
	s.Run("persongalleri is optional", func() {
		s.NoError((&OpprettGrunnlagRequest{SakID: 3}).Validate())
	})

	s.Run("roster identifiers are checked", func() {
		req := &OpprettGrunnlagRequest{
			SakID:         3,
			Persongalleri: &models.Persongalleri{Soeker: soeker, Avdoed: []id.Folkeregisteridentifikator{"12345678901"}},
		}
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeInvalidInput))
	})

	s.Run("roster needs soeker", func() {
		req := &OpprettGrunnlagRequest{SakID: 3, Persongalleri: &models.Persongalleri{}}
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	s.Run("explicit kilde is validated", func() {
		kilde := models.NewSaksbehandlerKilde("Z990001", time.Now())
		req := &OpprettGrunnlagRequest{SakID: 3, Persongalleri: &models.Persongalleri{Soeker: soeker}, Kilde: &kilde}
		s.NoError(req.Validate())
	})
}

func (s *RequestsSuite) TestOppdaterGrunnlagRequest() {
	req := &OppdaterGrunnlagRequest{SakType: " OMSTILLINGSSTOENAD "}
	s.Require().NoError(req.Validate())
	s.Equal(models.SakTypeOmstillingsstoenad, req.parsedSakType)

	s.Error((&OppdaterGrunnlagRequest{}).Validate())
}

func (s *RequestsSuite) TestPersonRequest() {
	req := &PersonRequest{Foedselsnummer: " 01018022091 "}
	s.Require().NoError(req.Validate())
	s.Equal(soeker, req.parsedFnr)
}
