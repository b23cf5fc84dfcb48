package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/pkg/httpcontext"
	termsUC "github.com/fastygo/planner/usecase/terms"
)

type TermsHandler struct {
	baseHandler
	uc *termsUC.UseCase
}

func NewTermsHandler(uc *termsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TermsHandler {
	return &TermsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Active terms and conditions
// @Tags terms
// @Router /api/v1/terms [get]
func (h *TermsHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	terms, err := h.uc.List(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, terms, transport.Meta{Count: len(terms)})
}

// @Summary Accept terms
// @Tags terms
// @Router /api/v1/terms/accept [post]
func (h *TermsHandler) Accept(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.AcceptTermsRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status, err := h.uc.AcceptAll(stdCtx, userID, req.TermIDs)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, status)
}

// @Summary Whether the current user accepted every active term
// @Tags terms
// @Router /api/v1/terms/accepted [get]
func (h *TermsHandler) Accepted(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status, err := h.uc.CheckAccepted(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, status)
}
