package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studmarket/studmarket-backend/internal/http/handlers/common"
	"github.com/studmarket/studmarket-backend/internal/service"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: s}
}

// CreateListing POST /services
func (h *CatalogHandler) CreateListing(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Title        string  `json:"title" binding:"required"`
		Description  string  `json:"description" binding:"required"`
		Price        float64 `json:"price" binding:"required"`
		DeliveryDays int     `json:"delivery_days" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.svc.CreateListing(c.Request.Context(), userID, req.Title, req.Description, req.Price, req.DeliveryDays)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// GetListing GET /services/:id
func (h *CatalogHandler) GetListing(c *gin.Context) {
	serviceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, err := h.svc.GetListing(c.Request.Context(), serviceID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// UpdateListing PATCH /services/:id
//
// Правки не блокируются наличием активных заказов: каждое изменённое поле
// записывается вместе с событием журнала, в ответе — итог по каждому полю.
func (h *CatalogHandler) UpdateListing(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	serviceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req service.ListingUpdate
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	listing, outcomes, err := h.svc.UpdateListing(c.Request.Context(), serviceID, userID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service": listing,
		"edits":   outcomes,
	})
}

// ListMyListings GET /services/my
func (h *CatalogHandler) ListMyListings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	listings, err := h.svc.ListSellerListings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}
