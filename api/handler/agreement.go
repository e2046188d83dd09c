package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/rentledger/api/transport"
	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/pkg/httpcontext"
	"github.com/fastygo/rentledger/usecase"
	agreementUC "github.com/fastygo/rentledger/usecase/agreement"
)

// AgreementHandler exposes the agreement use case through the dispatcher.
type AgreementHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
}

func NewAgreementHandler(dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *AgreementHandler {
	return &AgreementHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
}

// @Summary Create agreement
// @Tags agreements
// @Router /api/v1/agreements [post]
func (h *AgreementHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CreateAgreementRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(stdCtx, ctx, domain.ErrInvalidPayload)
		return
	}
	terms, err := req.Terms()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	cmd := agreementUC.CreateCommand{
		Caller: domain.Caller{Principal: httpcontext.Caller(ctx)},
		Terms:  terms,
	}
	result, err := h.dispatcher.ExecuteCommand(stdCtx, agreementUC.CommandCreate, cmd)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Get agreement
// @Tags agreements
// @Router /api/v1/agreements/{id} [get]
func (h *AgreementHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondError(stdCtx, ctx, domain.ErrInvalidPayload)
		return
	}

	result, err := h.dispatcher.ExecuteQuery(stdCtx, agreementUC.QueryGet, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Agreement counter
// @Tags agreements
// @Router /api/v1/stats/agreements [get]
func (h *AgreementHandler) Count(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.ExecuteQuery(stdCtx, agreementUC.QueryCount, nil)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	count, _ := result.(uint32)
	h.respondSuccess(ctx, http.StatusOK, transport.CountResponse{Count: count})
}
