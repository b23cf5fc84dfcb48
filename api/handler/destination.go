package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/pkg/httpcontext"
	destinationUC "github.com/fastygo/planner/usecase/destination"
)

type DestinationHandler struct {
	baseHandler
	uc *destinationUC.UseCase
}

func NewDestinationHandler(uc *destinationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DestinationHandler {
	return &DestinationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Link the Telegram chat that receives reminders
// @Tags telegram
// @Router /api/v1/telegram/destination [post]
func (h *DestinationHandler) Register(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.DestinationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dest, err := h.uc.Register(stdCtx, userID, req.TelegramChatID, req.TelegramUserID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, dest)
}

// @Summary Current Telegram destination
// @Tags telegram
// @Router /api/v1/telegram/destination [get]
func (h *DestinationHandler) Get(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dest, err := h.uc.Get(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, dest)
}
