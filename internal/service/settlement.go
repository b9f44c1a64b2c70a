package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/studmarket/studmarket-backend/internal/logger"
	"github.com/studmarket/studmarket-backend/internal/models"
)

// SettlementLogger — продакшен-реализация SettlementNotifier. Движение
// средств выполняет внешний расчётный сервис; ядро только публикует
// окончательное решение в исходящий лог, с которого снимается интеграция.
type SettlementLogger struct{}

func NewSettlementLogger() *SettlementLogger {
	return &SettlementLogger{}
}

func (n *SettlementLogger) TriggerSettlement(_ context.Context, order *models.Order, dispute *models.Dispute) error {
	resolution := ""
	if dispute.Resolution != nil {
		resolution = *dispute.Resolution
	}
	logger.Log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"dispute_id": dispute.ID,
		"resolution": resolution,
		"price":      order.Price,
		"buyer_id":   order.BuyerID,
		"seller_id":  order.SellerID,
	}).Info("спор разрешён, передаём решение расчётному сервису")
	return nil
}
