package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studmarket/studmarket-backend/internal/http/handlers/common"
	"github.com/studmarket/studmarket-backend/internal/service"
)

// HistoryHandler отдаёт журнал правок услуг: полную историю по услуге
// и сквозную историю действий пользователя. Записи неизменяемы и
// отдаются от новых к старым.
type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(s *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: s}
}

// ServiceHistory GET /services/:id/history?limit=N
func (h *HistoryHandler) ServiceHistory(c *gin.Context) {
	serviceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, err := common.OptionalLimitQuery(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.svc.ServiceHistory(c.Request.Context(), serviceID, limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// UserHistory GET /users/:id/history?limit=N
func (h *HistoryHandler) UserHistory(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, err := common.OptionalLimitQuery(c)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.svc.UserHistory(c.Request.Context(), userID, limit)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
