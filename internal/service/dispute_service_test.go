package service

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/studmarket/studmarket-backend/internal/logger"
	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// fakeTxRunner исполняет колбэк напрямую, без настоящей транзакции.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error {
	return fn(nil)
}

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) CreateTx(ctx context.Context, ext sqlx.ExtContext, d *models.Dispute) error {
	args := m.Called(ctx, ext, d)
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) MarkUnderReviewTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ext, id, adminID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDisputeRepo) ResolveTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID, resolution string, adminNote *string) (bool, error) {
	args := m.Called(ctx, ext, id, adminID, resolution, adminNote)
	return args.Bool(0), args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

type mockOrderRepoForDispute struct {
	mock.Mock
}

func (m *mockOrderRepoForDispute) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepoForDispute) GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepoForDispute) TransitionStatusTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, from []string, to string) (bool, error) {
	args := m.Called(ctx, ext, id, from, to)
	return args.Bool(0), args.Error(1)
}

type mockEvidenceRepo struct {
	mock.Mock
}

func (m *mockEvidenceRepo) Create(ctx context.Context, e *models.DisputeEvidence) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEvidenceRepo) ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.DisputeEvidence), args.Error(1)
}

type mockEvidenceStore struct {
	mock.Mock
}

func (m *mockEvidenceStore) Save(ctx context.Context, uploaderID uuid.UUID, originalName string, r io.Reader) (string, string, int64, error) {
	args := m.Called(ctx, uploaderID, originalName, r)
	return args.String(0), args.String(1), args.Get(2).(int64), args.Error(3)
}

type mockSettlement struct {
	mock.Mock
}

func (m *mockSettlement) TriggerSettlement(ctx context.Context, order *models.Order, dispute *models.Dispute) error {
	args := m.Called(ctx, order, dispute)
	return args.Error(0)
}

func newDisputeServiceForTest() (*DisputeService, *mockDisputeRepo, *mockOrderRepoForDispute, *mockEvidenceRepo, *mockEvidenceStore, *mockSettlement) {
	disputes := new(mockDisputeRepo)
	orders := new(mockOrderRepoForDispute)
	evidence := new(mockEvidenceRepo)
	files := new(mockEvidenceStore)
	settlement := new(mockSettlement)
	svc := NewDisputeService(fakeTxRunner{}, disputes, orders, evidence, files, settlement)
	return svc, disputes, orders, evidence, files, settlement
}

func TestDisputeService_Open(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: sellerID, Status: models.OrderStatusCompleted}

	svc, disputes, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByIDTx", ctx, nil, orderID).Return(order, nil)
	orders.On("TransitionStatusTx", ctx, nil, orderID, models.DisputableOrderStatuses, models.OrderStatusDisputed).Return(true, nil)
	disputes.On("CreateTx", ctx, nil, mock.AnythingOfType("*models.Dispute")).Return(nil)

	dispute, err := svc.Open(ctx, orderID, buyerID, "Работа не соответствует описанию")
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, buyerID, dispute.InitiatorID)
	assert.Equal(t, orderID, dispute.OrderID)
	disputes.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestDisputeService_Open_EmptyReason(t *testing.T) {
	svc, _, _, _, _, _ := newDisputeServiceForTest()

	_, err := svc.Open(context.Background(), uuid.New(), uuid.New(), "   ")
	assert.True(t, apperror.IsValidation(err))
}

func TestDisputeService_Open_Forbidden(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	stranger := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: uuid.New(), SellerID: uuid.New(), Status: models.OrderStatusActive}

	svc, _, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByIDTx", ctx, nil, orderID).Return(order, nil)

	_, err := svc.Open(ctx, orderID, stranger, "Хочу вмешаться")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDisputeService_Open_AlreadyDisputed(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	buyerID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: uuid.New(), Status: models.OrderStatusCompleted}
	disputed := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: order.SellerID, Status: models.OrderStatusDisputed}

	svc, _, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByIDTx", ctx, nil, orderID).Return(order, nil).Once()
	orders.On("TransitionStatusTx", ctx, nil, orderID, models.DisputableOrderStatuses, models.OrderStatusDisputed).Return(false, nil)
	orders.On("GetByIDTx", ctx, nil, orderID).Return(disputed, nil).Once()

	_, err := svc.Open(ctx, orderID, buyerID, "Спор по уже оспоренному заказу")
	assert.ErrorIs(t, err, apperror.ErrDuplicateDispute)
}

func TestDisputeService_Open_InvalidOrderState(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	buyerID := uuid.New()

	pending := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: uuid.New(), Status: models.OrderStatusPending}

	svc, _, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByIDTx", ctx, nil, orderID).Return(pending, nil)
	orders.On("TransitionStatusTx", ctx, nil, orderID, models.DisputableOrderStatuses, models.OrderStatusDisputed).Return(false, nil)

	_, err := svc.Open(ctx, orderID, buyerID, "Спор по неактивированному заказу")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestDisputeService_BeginReview(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	adminID := uuid.New()

	underReview := &models.Dispute{ID: disputeID, Status: models.DisputeStatusUnderReview, AssignedAdminID: &adminID}

	svc, disputes, _, _, _, _ := newDisputeServiceForTest()
	disputes.On("MarkUnderReviewTx", ctx, nil, disputeID, adminID).Return(true, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(underReview, nil)

	dispute, err := svc.BeginReview(ctx, disputeID, adminID)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusUnderReview, dispute.Status)
}

func TestDisputeService_BeginReview_IdempotentForSameAdmin(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	adminID := uuid.New()

	underReview := &models.Dispute{ID: disputeID, Status: models.DisputeStatusUnderReview, AssignedAdminID: &adminID}

	svc, disputes, _, _, _, _ := newDisputeServiceForTest()
	disputes.On("MarkUnderReviewTx", ctx, nil, disputeID, adminID).Return(false, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(underReview, nil)

	dispute, err := svc.BeginReview(ctx, disputeID, adminID)
	assert.NoError(t, err)
	assert.Equal(t, adminID, *dispute.AssignedAdminID)
}

func TestDisputeService_BeginReview_TakenByAnotherAdmin(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	firstAdmin := uuid.New()
	secondAdmin := uuid.New()

	underReview := &models.Dispute{ID: disputeID, Status: models.DisputeStatusUnderReview, AssignedAdminID: &firstAdmin}

	svc, disputes, _, _, _, _ := newDisputeServiceForTest()
	disputes.On("MarkUnderReviewTx", ctx, nil, disputeID, secondAdmin).Return(false, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(underReview, nil)

	_, err := svc.BeginReview(ctx, disputeID, secondAdmin)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestDisputeService_BeginReview_Resolved(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	adminID := uuid.New()

	resolved := &models.Dispute{ID: disputeID, Status: models.DisputeStatusResolved}

	svc, disputes, _, _, _, _ := newDisputeServiceForTest()
	disputes.On("MarkUnderReviewTx", ctx, nil, disputeID, adminID).Return(false, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(resolved, nil)

	_, err := svc.BeginReview(ctx, disputeID, adminID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestDisputeService_Resolve(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	orderID := uuid.New()
	adminID := uuid.New()
	note := "Согласован возврат 50%"

	resolution := models.ResolutionPartialRefund
	resolvedDispute := &models.Dispute{
		ID:         disputeID,
		OrderID:    orderID,
		Status:     models.DisputeStatusResolved,
		Resolution: &resolution,
		AdminNote:  &note,
		ResolvedBy: &adminID,
	}
	resolvedOrder := &models.Order{ID: orderID, Status: models.OrderStatusResolvedPartialRefund, Price: 80}

	svc, disputes, orders, _, _, settlement := newDisputeServiceForTest()
	disputes.On("ResolveTx", ctx, nil, disputeID, adminID, resolution, &note).Return(true, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(resolvedDispute, nil)
	orders.On("TransitionStatusTx", ctx, nil, orderID, []string{models.OrderStatusDisputed}, models.OrderStatusResolvedPartialRefund).Return(true, nil)
	orders.On("GetByIDTx", ctx, nil, orderID).Return(resolvedOrder, nil)
	settlement.On("TriggerSettlement", ctx, resolvedOrder, resolvedDispute).Return(nil)

	dispute, err := svc.Resolve(ctx, disputeID, adminID, resolution, &note)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, dispute.Status)
	assert.Equal(t, resolution, *dispute.Resolution)

	// Внешний расчёт запускается ровно один раз.
	settlement.AssertNumberOfCalls(t, "TriggerSettlement", 1)
}

func TestDisputeService_Resolve_UnknownResolution(t *testing.T) {
	svc, _, _, _, _, _ := newDisputeServiceForTest()

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), "coin_flip", nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestDisputeService_Resolve_AlreadyResolved(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	adminID := uuid.New()

	resolved := &models.Dispute{ID: disputeID, Status: models.DisputeStatusResolved}

	svc, disputes, _, _, _, settlement := newDisputeServiceForTest()
	disputes.On("ResolveTx", ctx, nil, disputeID, adminID, models.ResolutionRefundBuyer, (*string)(nil)).Return(false, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(resolved, nil)

	_, err := svc.Resolve(ctx, disputeID, adminID, models.ResolutionRefundBuyer, nil)
	assert.ErrorIs(t, err, apperror.ErrAlreadyResolved)

	// Повторное решение не доходит до расчётного сервиса.
	settlement.AssertNotCalled(t, "TriggerSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_Resolve_SettlementErrorDoesNotFailResolve(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	orderID := uuid.New()
	adminID := uuid.New()

	resolution := models.ResolutionReleaseToSeller
	resolvedDispute := &models.Dispute{ID: disputeID, OrderID: orderID, Status: models.DisputeStatusResolved, Resolution: &resolution}
	resolvedOrder := &models.Order{ID: orderID, Status: models.OrderStatusResolvedRelease}

	svc, disputes, orders, _, _, settlement := newDisputeServiceForTest()
	disputes.On("ResolveTx", ctx, nil, disputeID, adminID, resolution, (*string)(nil)).Return(true, nil)
	disputes.On("GetByIDTx", ctx, nil, disputeID).Return(resolvedDispute, nil)
	orders.On("TransitionStatusTx", ctx, nil, orderID, []string{models.OrderStatusDisputed}, models.OrderStatusResolvedRelease).Return(true, nil)
	orders.On("GetByIDTx", ctx, nil, orderID).Return(resolvedOrder, nil)
	settlement.On("TriggerSettlement", ctx, resolvedOrder, resolvedDispute).Return(errors.New("расчётный сервис недоступен"))

	dispute, err := svc.Resolve(ctx, disputeID, adminID, resolution, nil)
	assert.NoError(t, err, "решение уже зафиксировано, ошибка уведомления его не отменяет")
	assert.Equal(t, models.DisputeStatusResolved, dispute.Status)
}

func TestDisputeService_AttachEvidence_ResolvedDispute(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()

	resolved := &models.Dispute{ID: disputeID, Status: models.DisputeStatusResolved}

	svc, disputes, _, _, files, _ := newDisputeServiceForTest()
	disputes.On("GetByID", ctx, disputeID).Return(resolved, nil)

	_, err := svc.AttachEvidence(ctx, disputeID, uuid.New(), "screenshot.png", nil)
	assert.ErrorIs(t, err, apperror.ErrAlreadyResolved)
	files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_AttachEvidence_Forbidden(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	orderID := uuid.New()

	open := &models.Dispute{ID: disputeID, OrderID: orderID, Status: models.DisputeStatusOpen}
	order := &models.Order{ID: orderID, BuyerID: uuid.New(), SellerID: uuid.New(), Status: models.OrderStatusDisputed}

	svc, disputes, orders, _, _, _ := newDisputeServiceForTest()
	disputes.On("GetByID", ctx, disputeID).Return(open, nil)
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.AttachEvidence(ctx, disputeID, uuid.New(), "screenshot.png", nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDisputeService_AttachEvidence(t *testing.T) {
	ctx := context.Background()
	disputeID := uuid.New()
	orderID := uuid.New()
	buyerID := uuid.New()

	open := &models.Dispute{ID: disputeID, OrderID: orderID, Status: models.DisputeStatusOpen}
	order := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: uuid.New(), Status: models.OrderStatusDisputed}

	svc, disputes, orders, evidence, files, _ := newDisputeServiceForTest()
	disputes.On("GetByID", ctx, disputeID).Return(open, nil)
	orders.On("GetByID", ctx, orderID).Return(order, nil)
	files.On("Save", ctx, buyerID, "screenshot.png", nil).Return("evidence/abc.png", "image/png", int64(2048), nil)
	evidence.On("Create", ctx, mock.AnythingOfType("*models.DisputeEvidence")).Return(nil)

	e, err := svc.AttachEvidence(ctx, disputeID, buyerID, "screenshot.png", nil)
	assert.NoError(t, err)
	assert.Equal(t, "evidence/abc.png", e.FilePath)
	assert.Equal(t, "image/png", e.MimeType)
	assert.Equal(t, int64(2048), e.SizeBytes)
}

func TestDisputeService_GetByOrder_AccessControl(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: sellerID, Status: models.OrderStatusDisputed}
	dispute := &models.Dispute{ID: uuid.New(), OrderID: orderID, InitiatorID: buyerID, Status: models.DisputeStatusOpen}

	svc, disputes, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByID", ctx, orderID).Return(order, nil)
	disputes.On("GetByOrderID", ctx, orderID).Return(dispute, nil)

	got, err := svc.GetByOrder(ctx, orderID, buyerID, models.RoleStudent)
	assert.NoError(t, err)
	assert.Equal(t, dispute.ID, got.ID)

	got, err = svc.GetByOrder(ctx, orderID, sellerID, models.RoleStudent)
	assert.NoError(t, err)
	assert.Equal(t, dispute.ID, got.ID)

	got, err = svc.GetByOrder(ctx, orderID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, dispute.ID, got.ID)
}

func TestDisputeService_GetByOrder_StrangerForbidden(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: uuid.New(), SellerID: uuid.New(), Status: models.OrderStatusDisputed}

	svc, disputes, orders, _, _, _ := newDisputeServiceForTest()
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.GetByOrder(ctx, orderID, uuid.New(), models.RoleStudent)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	disputes.AssertNotCalled(t, "GetByOrderID", mock.Anything, mock.Anything)
}

func TestDisputeService_ListEvidence_AccessControl(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	disputeID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: buyerID, SellerID: sellerID, Status: models.OrderStatusDisputed}
	dispute := &models.Dispute{ID: disputeID, OrderID: orderID, InitiatorID: buyerID, Status: models.DisputeStatusOpen}
	rows := []models.DisputeEvidence{{ID: uuid.New(), DisputeID: disputeID, UploaderID: buyerID}}

	svc, disputes, orders, evidence, _, _ := newDisputeServiceForTest()
	disputes.On("GetByID", ctx, disputeID).Return(dispute, nil)
	orders.On("GetByID", ctx, orderID).Return(order, nil)
	evidence.On("ListByDispute", ctx, disputeID).Return(rows, nil)

	got, err := svc.ListEvidence(ctx, disputeID, sellerID, models.RoleStudent)
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	// Администратору заказ для проверки доступа не нужен.
	got, err = svc.ListEvidence(ctx, disputeID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDisputeService_ListEvidence_StrangerForbidden(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	disputeID := uuid.New()

	order := &models.Order{ID: orderID, BuyerID: uuid.New(), SellerID: uuid.New(), Status: models.OrderStatusDisputed}
	dispute := &models.Dispute{ID: disputeID, OrderID: orderID, Status: models.DisputeStatusOpen}

	svc, disputes, orders, evidence, _, _ := newDisputeServiceForTest()
	disputes.On("GetByID", ctx, disputeID).Return(dispute, nil)
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.ListEvidence(ctx, disputeID, uuid.New(), models.RoleStudent)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	evidence.AssertNotCalled(t, "ListByDispute", mock.Anything, mock.Anything)
}
