package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"grunnlag/internal/grunnlag/models"
	"grunnlag/internal/grunnlag/service"
	id "grunnlag/pkg/domain"
	dErrors "grunnlag/pkg/domain-errors"
	"grunnlag/pkg/platform/httputil"
	"grunnlag/pkg/requestcontext"
)

// Service defines the grunnlag operations exposed over HTTP.
type Service interface {
	HentGrunnlag(ctx context.Context, behandlingID id.BehandlingID) (*models.Grunnlag, error)
	HentOpplysning(ctx context.Context, behandlingID id.BehandlingID, typ models.OpplysningType) (*models.Grunnlagshendelse, error)
	HentPersongalleriSamsvar(ctx context.Context, behandlingID id.BehandlingID) (*models.PersongalleriSamsvar, error)
	HentPersonopplysninger(ctx context.Context, behandlingID id.BehandlingID) (*models.PersonopplysningerSammendrag, error)
	HentSaksrolle(ctx context.Context, behandlingID id.BehandlingID, fnr id.Folkeregisteridentifikator) (models.Saksrolle, error)
	HentSakerForPerson(ctx context.Context, fnr id.Folkeregisteridentifikator) ([]models.SakMedRolle, error)
	HentHistorikk(ctx context.Context, sakID id.SakID, typ models.OpplysningType) ([]models.Grunnlagshendelse, error)

	LagreNyeOpplysninger(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, sakID id.SakID, opplysninger []models.Opplysning) (*models.LagringsResultat, error)
	OpprettGrunnlag(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, req service.OpprettGrunnlagRequest) (*models.BehandlingVersjon, error)
	OppdaterGrunnlag(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID, sakType models.SakType) (*models.LagringsResultat, error)
	LaasVersjon(ctx context.Context, actor requestcontext.Actor, behandlingID id.BehandlingID) error
	LaasTilVersjon(ctx context.Context, actor requestcontext.Actor, behandlingID, kildeBehandlingID id.BehandlingID) (*models.BehandlingVersjon, error)
}

// Handler wires grunnlag endpoints to the grunnlag service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a grunnlag handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts grunnlag endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/grunnlag", func(r chi.Router) {
		r.Route("/behandling/{behandlingId}", func(r chi.Router) {
			r.Get("/", h.HandleHentGrunnlag)
			r.Post("/nye-opplysninger", h.HandleNyeOpplysninger)
			r.Post("/opprett-grunnlag", h.HandleOpprettGrunnlag)
			r.Post("/oppdater-grunnlag", h.HandleOppdaterGrunnlag)
			r.Post("/laas", h.HandleLaas)
			r.Post("/laas-til-behandling/{kildeBehandlingId}", h.HandleLaasTil)
			r.Get("/persongalleri-samsvar", h.HandlePersongalleriSamsvar)
			r.Get("/personopplysninger", h.HandlePersonopplysninger)
			r.Get("/saksrolle/{fnr}", h.HandleSaksrolle)
			r.Get("/{opplysningType}", h.HandleHentOpplysning)
		})
		r.Get("/sak/{sakId}/historikk/{opplysningType}", h.HandleHistorikk)
		r.Post("/person/saker", h.HandleSakerForPerson)
	})
}

// HandleHentGrunnlag handles GET /api/grunnlag/behandling/{behandlingId}.
func (h *Handler) HandleHentGrunnlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}

	grunnlag, err := h.service.HentGrunnlag(ctx, behandlingID)
	if err != nil {
		h.fail(ctx, w, "hent grunnlag failed", err, "behandling_id", behandlingID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grunnlag)
}

// HandleHentOpplysning handles GET /api/grunnlag/behandling/{behandlingId}/{opplysningType}.
// A type without a value at the pin is answered with 204.
func (h *Handler) HandleHentOpplysning(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	typ, err := models.ParseOpplysningType(chi.URLParam(r, "opplysningType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hendelse, err := h.service.HentOpplysning(ctx, behandlingID, typ)
	if errors.Is(err, models.ErrIngenOpplysning) {
		httputil.WriteNoContent(w)
		return
	}
	if err != nil {
		h.fail(ctx, w, "hent opplysning failed", err, "behandling_id", behandlingID, "opplysning_type", typ)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hendelse)
}

// HandleNyeOpplysninger handles POST /api/grunnlag/behandling/{behandlingId}/nye-opplysninger.
func (h *Handler) HandleNyeOpplysninger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[NyeOpplysningerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.LagreNyeOpplysninger(ctx, actor, behandlingID, req.SakID, req.Opplysninger)
	if err != nil {
		h.fail(ctx, w, "lagre nye opplysninger failed", err, "behandling_id", behandlingID, "sak_id", req.SakID)
		return
	}

	h.logger.InfoContext(ctx, "nye opplysninger lagret",
		"request_id", requestID,
		"behandling_id", behandlingID,
		"sak_id", req.SakID,
		"lagret", res.Lagret,
		"duplikater", res.Duplikater,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleOpprettGrunnlag handles POST /api/grunnlag/behandling/{behandlingId}/opprett-grunnlag.
func (h *Handler) HandleOpprettGrunnlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OpprettGrunnlagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	versjon, err := h.service.OpprettGrunnlag(ctx, actor, behandlingID, req.toService())
	if err != nil {
		h.fail(ctx, w, "opprett grunnlag failed", err, "behandling_id", behandlingID, "sak_id", req.SakID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, versjon)
}

// HandleOppdaterGrunnlag handles POST /api/grunnlag/behandling/{behandlingId}/oppdater-grunnlag.
func (h *Handler) HandleOppdaterGrunnlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OppdaterGrunnlagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.OppdaterGrunnlag(ctx, actor, behandlingID, req.parsedSakType)
	if err != nil {
		h.fail(ctx, w, "oppdater grunnlag failed", err, "behandling_id", behandlingID, "sak_type", req.parsedSakType)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleLaas handles POST /api/grunnlag/behandling/{behandlingId}/laas.
func (h *Handler) HandleLaas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}

	if err := h.service.LaasVersjon(ctx, actor, behandlingID); err != nil {
		h.fail(ctx, w, "laas versjon failed", err, "behandling_id", behandlingID)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleLaasTil handles POST /api/grunnlag/behandling/{behandlingId}/laas-til-behandling/{kildeBehandlingId}.
func (h *Handler) HandleLaasTil(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	kildeID, err := id.ParseBehandlingID(chi.URLParam(r, "kildeBehandlingId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	versjon, err := h.service.LaasTilVersjon(ctx, actor, behandlingID, kildeID)
	if err != nil {
		h.fail(ctx, w, "laas til versjon failed", err, "behandling_id", behandlingID, "kilde_behandling_id", kildeID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, versjon)
}

// HandlePersongalleriSamsvar handles GET /api/grunnlag/behandling/{behandlingId}/persongalleri-samsvar.
func (h *Handler) HandlePersongalleriSamsvar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}

	samsvar, err := h.service.HentPersongalleriSamsvar(ctx, behandlingID)
	if err != nil {
		h.fail(ctx, w, "persongalleri samsvar failed", err, "behandling_id", behandlingID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, samsvar)
}

// HandlePersonopplysninger handles GET /api/grunnlag/behandling/{behandlingId}/personopplysninger.
func (h *Handler) HandlePersonopplysninger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}

	sammendrag, err := h.service.HentPersonopplysninger(ctx, behandlingID)
	if err != nil {
		h.fail(ctx, w, "hent personopplysninger failed", err, "behandling_id", behandlingID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sammendrag)
}

// HandleSaksrolle handles GET /api/grunnlag/behandling/{behandlingId}/saksrolle/{fnr}.
func (h *Handler) HandleSaksrolle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	behandlingID, ok := h.behandlingParam(w, r)
	if !ok {
		return
	}
	fnr, err := id.ParseFolkeregisteridentifikator(chi.URLParam(r, "fnr"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rolle, err := h.service.HentSaksrolle(ctx, behandlingID, fnr)
	if err != nil {
		h.fail(ctx, w, "hent saksrolle failed", err, "behandling_id", behandlingID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SaksrolleResponse{Rolle: rolle})
}

// HandleHistorikk handles GET /api/grunnlag/sak/{sakId}/historikk/{opplysningType}.
func (h *Handler) HandleHistorikk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sakID, err := id.ParseSakID(chi.URLParam(r, "sakId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	typ, err := models.ParseOpplysningType(chi.URLParam(r, "opplysningType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	historikk, err := h.service.HentHistorikk(ctx, sakID, typ)
	if err != nil {
		h.fail(ctx, w, "hent historikk failed", err, "sak_id", sakID, "opplysning_type", typ)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historikk)
}

// HandleSakerForPerson handles POST /api/grunnlag/person/saker. The
// identifier travels in the body so it never lands in access logs.
func (h *Handler) HandleSakerForPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PersonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	saker, err := h.service.HentSakerForPerson(ctx, req.parsedFnr)
	if err != nil {
		h.fail(ctx, w, "hent saker for person failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, saker)
}

func (h *Handler) behandlingParam(w http.ResponseWriter, r *http.Request) (id.BehandlingID, bool) {
	behandlingID, err := id.ParseBehandlingID(chi.URLParam(r, "behandlingId"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.BehandlingID{}, false
	}
	return behandlingID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func requireActor(w http.ResponseWriter, r *http.Request) (requestcontext.Actor, bool) {
	actor := requestcontext.ActorFrom(r.Context())
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return actor, false
	}
	return actor, true
}
