package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	models "HedgeDesk/internal/domain/models"
	"HedgeDesk/internal/risk"
	icache "HedgeDesk/internal/service/cache"
	"HedgeDesk/internal/service/metrics"
	"HedgeDesk/internal/service/ratelimit"
	"HedgeDesk/internal/usecase"
	xhttp "HedgeDesk/pkg/http"
	xlogger "HedgeDesk/pkg/logger"
	xutil "HedgeDesk/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHeader carries the tenant identity resolved by the API gateway.
const TenantHeader = "X-Tenant-ID"

// RiskEchoHandler serves the VaR timeline, hedge preview, and exposure
// endpoints.
type RiskEchoHandler struct {
	logger   *xlogger.Logger
	timeline *usecase.TimelineService
	preview  *usecase.PreviewService
	exposure *usecase.ExposureService
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	cacheTTL time.Duration
}

func NewRiskEchoHandler(logger *xlogger.Logger, timeline *usecase.TimelineService, preview *usecase.PreviewService, exposure *usecase.ExposureService) *RiskEchoHandler {
	metrics.Register()
	return &RiskEchoHandler{
		logger:   logger,
		timeline: timeline,
		preview:  preview,
		exposure: exposure,
		rl:       ratelimit.New(),
		cacheTTL: 15 * time.Second,
	}
}

// SetCache injects a response cache for the timeline endpoint.
func (h *RiskEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/var/timeline", h.Timeline)
	g.POST("/var/preview", h.Preview)
	g.POST("/exposure/rebuild", h.Rebuild)
	g.GET("/exposure/summary", h.Summary)
}

// timelineCacheKey includes every request parameter the timeline payload
// depends on, plus the tenant's hedge-state version so mutations invalidate
// cached responses immediately instead of waiting out the TTL.
func timelineCacheKey(tenant, start, end string, confidence float64, version []byte) string {
	return "timeline:" + tenant + ":" + start + ":" + end + ":" +
		strconv.FormatFloat(confidence, 'g', -1, 64) + ":" + string(version)
}

func sessionVersionKey(tenant string) string { return "timeline:ver:" + tenant }

func tenantID(c echo.Context) (string, error) {
	t := c.Request().Header.Get(TenantHeader)
	if t == "" {
		return "", xhttp.BadRequestError("missing " + TenantHeader + " header")
	}
	return t, nil
}

func (h *RiskEchoHandler) Timeline(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.RiskLatency.WithLabelValues("timeline").Observe(time.Since(start).Seconds())
	}()

	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.TimelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from, ok := xutil.ParseDate(req.Start)
	if !ok {
		return xhttp.BadRequestResponse(c, "start must be YYYY-MM-DD")
	}
	to, ok := xutil.ParseDate(req.End)
	if !ok {
		return xhttp.BadRequestResponse(c, "end must be YYYY-MM-DD")
	}

	if !h.rl.Allow(tenant+":timeline", 10, 5) {
		metrics.RiskErrors.WithLabelValues("timeline").Inc()
		return c.NoContent(http.StatusTooManyRequests)
	}

	var ver []byte
	if h.cache != nil {
		ver, _, _ = h.cache.GetBytes(sessionVersionKey(tenant))
	}
	cacheKey := timelineCacheKey(tenant, req.Start, req.End, req.Confidence, ver)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			var cached []models.TimelinePoint
			if json.Unmarshal(b, &cached) == nil {
				return xhttp.SuccessResponse(c, cached)
			}
		}
	}

	points, err := h.timeline.Build(c.Request().Context(), tenant, from, to, req.Confidence)
	if err != nil {
		metrics.RiskErrors.WithLabelValues("timeline").Inc()
		return h.riskError(c, "timeline", err)
	}
	metrics.TimelinePoints.WithLabelValues("timeline").Observe(float64(len(points)))

	if h.cache != nil {
		if b, err := json.Marshal(points); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, h.cacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, points)
}

func (h *RiskEchoHandler) Preview(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.RiskLatency.WithLabelValues("preview").Observe(time.Since(start).Seconds())
	}()

	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	req := &models.PreviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	month, ok := xutil.ParseDate(req.ContractMonth)
	if !ok {
		return xhttp.BadRequestResponse(c, "contract_month must be YYYY-MM-DD")
	}

	extra := models.HedgeInstruction{
		Commodity:     req.Commodity,
		ContractMonth: xutil.MonthStart(month),
		Quantity:      req.Quantity,
	}
	res, err := h.preview.Preview(c.Request().Context(), tenant, time.Now().UTC(), extra, req.Confidence)
	if err != nil {
		metrics.RiskErrors.WithLabelValues("preview").Inc()
		return h.riskError(c, "preview", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Rebuild(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	n, err := h.exposure.Rebuild(c.Request().Context(), tenant)
	if err != nil {
		metrics.RiskErrors.WithLabelValues("rebuild").Inc()
		h.logger.Error("rebuild usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.bumpSessionVersion(tenant)
	return xhttp.SuccessResponse(c, map[string]interface{}{"buckets": n})
}

// bumpSessionVersion rotates the tenant's timeline cache salt, dropping any
// cached timeline built on the previous hedge or exposure state.
func (h *RiskEchoHandler) bumpSessionVersion(tenant string) {
	if h.cache == nil {
		return
	}
	_ = h.cache.SetBytes(sessionVersionKey(tenant), []byte(uuid.NewString()), 0)
}

func (h *RiskEchoHandler) Summary(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	from := xutil.ParseDateDefault(c.QueryParam("from"), time.Time{})
	to := xutil.ParseDateDefault(c.QueryParam("to"), time.Time{})

	sum, err := h.exposure.Summary(c.Request().Context(), tenant, from, to)
	if err != nil {
		metrics.RiskErrors.WithLabelValues("summary").Inc()
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sum)
}

// riskError maps engine errors onto HTTP statuses: bad inputs are the
// caller's fault, a missing price is a data gap the caller cannot fix.
func (h *RiskEchoHandler) riskError(c echo.Context, endpoint string, err error) error {
	var invalid *risk.InvalidRangeError
	if errors.As(err, &invalid) {
		return xhttp.BadRequestResponse(c, invalid.Error())
	}
	var missing *risk.MissingPriceError
	if errors.As(err, &missing) {
		return xhttp.DataResponse(c, http.StatusUnprocessableEntity, missing.Error())
	}
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
