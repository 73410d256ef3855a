package handler

import (
	"github.com/gin-gonic/gin"

	fxapp "github.com/procura/backend/internal/application/fx"
	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/interfaces/http/middleware"
)

// FxHandler handles exchange rate endpoints
type FxHandler struct {
	BaseHandler
	rateService *fxapp.RateService
}

// NewFxHandler creates a new FxHandler
func NewFxHandler(rateService *fxapp.RateService) *FxHandler {
	return &FxHandler{rateService: rateService}
}

// RegisterRoutes registers FX routes on the given router group. Storing
// rates is a finance operation; reads and conversions are open
func (h *FxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fx := rg.Group("/fx")
	{
		fx.GET("/rates", h.List)
		fx.GET("/convert", h.Convert)
		fx.PUT("/rates", middleware.RequireRoles(
			identity.RoleAdmin, identity.RoleCFO, identity.RoleFinanceHead, identity.RoleFinance),
			h.StoreRate)
	}
}

// StoreRate godoc
// @ID           storeFxRate
// @Summary      Store an exchange rate
// @Description  Upserts the rate for a currency pair as of a date. The same
// @Description  pair and date overwrite the previous value
// @Tags         fx
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body fxapp.StoreRateRequest true "Rate details"
// @Success      200 {object} APIResponse[fxapp.RateResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /fx/rates [put]
func (h *FxHandler) StoreRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req fxapp.StoreRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rateService.StoreRate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listFxRates
// @Summary      List exchange rates
// @Tags         fx
// @Produce      json
// @Security     BearerAuth
// @Param        page           query int    false "Page number"
// @Param        page_size      query int    false "Page size"
// @Param        base_currency  query string false "Filter by base currency"
// @Param        quote_currency query string false "Filter by quote currency"
// @Success      200 {object} APIResponse[[]fxapp.RateResponse]
// @Router       /fx/rates [get]
func (h *FxHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter fxapp.RateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	page, err := h.rateService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Convert godoc
// @ID           convertFxAmount
// @Summary      Convert an amount between currencies
// @Description  Converts using the most recent stored rate on or before the
// @Description  requested date, trying the inverse pair when the direct rate
// @Description  is missing
// @Tags         fx
// @Produce      json
// @Security     BearerAuth
// @Param        amount_cents  query int    true  "Amount in minor units"
// @Param        from_currency query string true  "Source currency"
// @Param        to_currency   query string true  "Target currency"
// @Param        as_of         query string false "Conversion date (RFC 3339)"
// @Success      200 {object} APIResponse[fx.Conversion]
// @Failure      422 {object} ErrorResponse
// @Router       /fx/convert [get]
func (h *FxHandler) Convert(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req fxapp.ConvertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.rateService.Convert(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
