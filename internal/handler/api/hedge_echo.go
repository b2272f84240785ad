package api

import (
	"errors"
	"net/http"

	models "HedgeDesk/internal/domain/models"
	domrepo "HedgeDesk/internal/domain/repository"
	icache "HedgeDesk/internal/service/cache"
	"HedgeDesk/internal/usecase"
	xhttp "HedgeDesk/pkg/http"
	xlogger "HedgeDesk/pkg/logger"
	xutil "HedgeDesk/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HedgeEchoHandler serves the hedge session endpoints.
type HedgeEchoHandler struct {
	logger *xlogger.Logger
	hedge  *usecase.HedgeService
	cache  icache.BytesCache
}

func NewHedgeEchoHandler(logger *xlogger.Logger, hedge *usecase.HedgeService) *HedgeEchoHandler {
	return &HedgeEchoHandler{logger: logger, hedge: hedge}
}

// SetCache injects the shared response cache so session mutations can
// invalidate cached timelines.
func (h *HedgeEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *HedgeEchoHandler) bumpSessionVersion(tenant string) {
	if h.cache == nil {
		return
	}
	_ = h.cache.SetBytes(sessionVersionKey(tenant), []byte(uuid.NewString()), 0)
}

func (h *HedgeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/hedge")
	g.GET("/session", h.Session)
	g.POST("/items", h.UpsertItem)
	g.PUT("/items", h.UpsertItem)
	g.DELETE("/items", h.RemoveItem)
	g.POST("/execute", h.Execute)
}

func (h *HedgeEchoHandler) Session(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	sess, err := h.hedge.Session(c.Request().Context(), tenant)
	if err != nil {
		h.logger.Error("hedge session usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sess)
}

func (h *HedgeEchoHandler) UpsertItem(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.HedgeItemRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	month, ok := xutil.ParseDate(req.ContractMonth)
	if !ok {
		return xhttp.BadRequestResponse(c, "contract_month must be YYYY-MM-DD")
	}

	sess, err := h.hedge.Upsert(c.Request().Context(), tenant, models.HedgeInstruction{
		Commodity:     req.Commodity,
		ContractMonth: xutil.MonthStart(month),
		Quantity:      req.Quantity,
	})
	if err != nil {
		h.logger.Error("hedge upsert usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.bumpSessionVersion(tenant)
	return xhttp.SuccessResponse(c, sess)
}

func (h *HedgeEchoHandler) RemoveItem(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.HedgeItemDeleteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	month, ok := xutil.ParseDate(req.ContractMonth)
	if !ok {
		return xhttp.BadRequestResponse(c, "contract_month must be YYYY-MM-DD")
	}

	sess, err := h.hedge.Remove(c.Request().Context(), tenant, models.BucketKey{
		Commodity: req.Commodity,
		Month:     xutil.MonthStart(month),
	})
	if err != nil {
		h.logger.Error("hedge remove usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.bumpSessionVersion(tenant)
	return xhttp.SuccessResponse(c, sess)
}

func (h *HedgeEchoHandler) Execute(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	sess, err := h.hedge.Execute(c.Request().Context(), tenant)
	if err != nil {
		if errors.Is(err, domrepo.ErrNoActiveSession) {
			return xhttp.NotFoundResponse(c, "no active hedge session")
		}
		if errors.Is(err, usecase.ErrEmptySession) {
			return xhttp.DataResponse(c, http.StatusConflict, err.Error())
		}
		h.logger.Error("hedge execute usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.bumpSessionVersion(tenant)
	return xhttp.SuccessResponse(c, sess)
}
