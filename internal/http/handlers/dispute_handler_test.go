package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/studmarket/studmarket-backend/internal/http/middleware"
)

func TestDisputeHandler_OpenDispute_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/orders/:id/dispute", handler.OpenDispute)

	orderID := uuid.New()
	body := strings.NewReader(`{"reason":"Работа не выполнена"}`)
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/dispute", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_OpenDispute_InvalidOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/orders/:id/dispute", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		handler.OpenDispute(c)
	})

	body := strings.NewReader(`{"reason":"Работа не выполнена"}`)
	req, _ := http.NewRequest("POST", "/orders/not-a-uuid/dispute", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_OpenDispute_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/orders/:id/dispute", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		handler.OpenDispute(c)
	})

	orderID := uuid.New()
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/dispute", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_BeginReview_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/admin/disputes/:id/review", handler.BeginReview)

	disputeID := uuid.New()
	req, _ := http.NewRequest("POST", "/admin/disputes/"+disputeID.String()+"/review", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_ResolveDispute_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	adminID := uuid.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/admin/disputes/:id/resolve", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, adminID)
		handler.ResolveDispute(c)
	})

	disputeID := uuid.New()
	req, _ := http.NewRequest("POST", "/admin/disputes/"+disputeID.String()+"/resolve", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_UploadEvidence_NoFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	handler := &DisputeHandler{svc: nil}
	r.POST("/disputes/:id/evidence", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		handler.UploadEvidence(c)
	})

	disputeID := uuid.New()
	req, _ := http.NewRequest("POST", "/disputes/"+disputeID.String()+"/evidence", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_GetDisputeByOrder_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{svc: nil}
	r.GET("/orders/:id/dispute", handler.GetDisputeByOrder)

	orderID := uuid.New()
	req, _ := http.NewRequest("GET", "/orders/"+orderID.String()+"/dispute", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_ListEvidence_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{svc: nil}
	r.GET("/disputes/:id/evidence", handler.ListEvidence)

	disputeID := uuid.New()
	req, _ := http.NewRequest("GET", "/disputes/"+disputeID.String()+"/evidence", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
