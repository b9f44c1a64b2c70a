package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studmarket/studmarket-backend/internal/http/handlers/common"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/service"
)

type DisputeHandler struct {
	svc *service.DisputeService
}

func NewDisputeHandler(s *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{svc: s}
}

// OpenDispute POST /orders/:id/dispute
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.Open(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		// При дубликате отдаём существующий спор вместе с ошибкой,
		// чтобы клиент мог показать его без повторного запроса.
		if errors.Is(err, apperror.ErrDuplicateDispute) {
			role, _ := common.CurrentUserRole(c)
			if existing, getErr := h.svc.GetByOrder(c.Request.Context(), orderID, userID, role); getErr == nil {
				c.JSON(http.StatusConflict, gin.H{
					"error":   apperror.ErrDuplicateDispute.Message,
					"code":    apperror.ErrCodeDuplicateDispute,
					"dispute": existing,
				})
				return
			}
		}
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// GetDisputeByOrder GET /orders/:id/dispute
func (h *DisputeHandler) GetDisputeByOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.GetByOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// ListMyDisputes GET /disputes/my
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.svc.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, disputes)
}

// ListOpenDisputes GET /admin/disputes — очередь неразрешённых споров.
func (h *DisputeHandler) ListOpenDisputes(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	disputes, err := h.svc.ListOpenQueue(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, disputes)
}

// BeginReview POST /admin/disputes/:id/review
func (h *DisputeHandler) BeginReview(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.BeginReview(c.Request.Context(), disputeID, adminID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// ResolveDispute POST /admin/disputes/:id/resolve
//
// Решение окончательное: повторный вызов получает 409 и уже вынесенное
// решение в теле ответа.
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Resolution string  `json:"resolution" binding:"required"`
		AdminNote  *string `json:"admin_note"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.Resolve(c.Request.Context(), disputeID, adminID, req.Resolution, req.AdminNote)
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyResolved) {
			if existing, getErr := h.svc.GetByID(c.Request.Context(), disputeID); getErr == nil {
				c.JSON(http.StatusConflict, gin.H{
					"error":   apperror.ErrAlreadyResolved.Message,
					"code":    apperror.ErrCodeAlreadyResolved,
					"dispute": existing,
				})
				return
			}
		}
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// UploadEvidence POST /disputes/:id/evidence — multipart-файл "file".
func (h *DisputeHandler) UploadEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл не передан")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer f.Close()

	evidence, err := h.svc.AttachEvidence(c.Request.Context(), disputeID, userID, fileHeader.Filename, f)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, evidence)
}

// ListEvidence GET /disputes/:id/evidence
func (h *DisputeHandler) ListEvidence(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	evidence, err := h.svc.ListEvidence(c.Request.Context(), disputeID, userID, role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, evidence)
}
