package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
)

// OrderRepo — контракт хранилища заказов для жизненного цикла.
type OrderRepo interface {
	CreateTx(ctx context.Context, ext sqlx.ExtContext, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Order, error)
	TransitionStatusTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, from []string, to string) (bool, error)
	HasActiveOrders(ctx context.Context, serviceID uuid.UUID) (bool, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
}

// ListingRepoForOrder — чтение услуги в момент оформления заказа.
type ListingRepoForOrder interface {
	GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.ServiceListing, error)
}

// OrderService владеет жизненным циклом заказа. Все переходы статуса
// выполняются условным UPDATE в хранилище: из двух конкурирующих
// переходов (например, подтверждение доставки против открытия спора)
// выигрывает ровно один, проигравший получает ErrInvalidTransition.
type OrderService struct {
	txr      TxRunner
	orders   OrderRepo
	listings ListingRepoForOrder
}

func NewOrderService(txr TxRunner, orders OrderRepo, listings ListingRepoForOrder) *OrderService {
	return &OrderService{txr: txr, orders: orders, listings: listings}
}

// Create оформляет заказ на услугу. Цена снимается с услуги в момент
// создания и дальше живёт в заказе: последующие правки услуги на неё
// не влияют.
func (s *OrderService) Create(ctx context.Context, serviceID, buyerID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		listing, err := s.listings.GetByIDTx(ctx, ext, serviceID)
		if err != nil {
			return err
		}
		if listing.SellerID == buyerID {
			return apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственную услугу")
		}

		order = &models.Order{
			ServiceID: serviceID,
			BuyerID:   buyerID,
			SellerID:  listing.SellerID,
			Price:     listing.Price,
			Status:    models.OrderStatusPending,
		}
		return s.orders.CreateTx(ctx, ext, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Activate — продавец принимает заказ: pending → active.
func (s *OrderService) Activate(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderEventActivate, func(o *models.Order) error {
		if o.SellerID != actorID {
			return apperror.ErrForbidden
		}
		return nil
	})
}

// Complete — покупатель подтверждает доставку: active → completed.
func (s *OrderService) Complete(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderEventComplete, func(o *models.Order) error {
		if o.BuyerID != actorID {
			return apperror.ErrForbidden
		}
		return nil
	})
}

// Cancel — участник отменяет неактивированный заказ: pending → cancelled.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderEventCancel, func(o *models.Order) error {
		if o.BuyerID != actorID && o.SellerID != actorID {
			return apperror.ErrForbidden
		}
		return nil
	})
}

// transition применяет событие машины состояний к заказу одной транзакцией.
// Проверка разрешённости перехода идёт по таблице, сам перевод — условным
// UPDATE от прочитанного статуса, чтобы гонка двух переходов не прошла дважды.
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, event models.OrderEvent, authorize func(*models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		current, err := s.orders.GetByIDTx(ctx, ext, orderID)
		if err != nil {
			return err
		}
		if err := authorize(current); err != nil {
			return err
		}

		next, ok := models.NextOrderStatus(current.Status, event)
		if !ok {
			return apperror.ErrInvalidTransition
		}

		moved, err := s.orders.TransitionStatusTx(ctx, ext, orderID, []string{current.Status}, next)
		if err != nil {
			return err
		}
		if !moved {
			// Статус сменился между чтением и UPDATE — гонку выиграл другой запрос.
			return apperror.ErrInvalidTransition
		}

		order, err = s.orders.GetByIDTx(ctx, ext, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder возвращает заказ участнику или администратору.
func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorRole string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleAdmin && order.BuyerID != actorID && order.SellerID != actorID {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

// ListMine возвращает заказы, в которых пользователь — покупатель или продавец.
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByParticipant(ctx, userID, limit, offset)
}

// HasActiveOrders — внешний запрос «есть ли активные заказы у услуги».
func (s *OrderService) HasActiveOrders(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	return s.orders.HasActiveOrders(ctx, serviceID)
}
