package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/studmarket/studmarket-backend/internal/models"
)

// AuditReader — чтение журнала изменений.
type AuditReader interface {
	ListByService(ctx context.Context, serviceID uuid.UUID, limit *int) ([]models.ServiceEditEvent, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit *int) ([]models.ServiceEditEvent, error)
}

// UserDirectory резолвит id пользователей в данные для отображения.
// Журнал хранит только id; имена и почта подтягиваются при рендере.
type UserDirectory interface {
	GetRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserRef, error)
}

// EditEventView — событие журнала с данными автора правки для представлений.
type EditEventView struct {
	models.ServiceEditEvent
	Actor *models.UserRef `json:"actor,omitempty"`
}

// HistoryService собирает историю изменений для представлений.
type HistoryService struct {
	audit AuditReader
	users UserDirectory
}

func NewHistoryService(audit AuditReader, users UserDirectory) *HistoryService {
	return &HistoryService{audit: audit, users: users}
}

// ServiceHistory — история изменений услуги, новые первыми.
func (s *HistoryService) ServiceHistory(ctx context.Context, serviceID uuid.UUID, limit *int) ([]EditEventView, error) {
	events, err := s.audit.ListByService(ctx, serviceID, limit)
	if err != nil {
		return nil, err
	}
	return s.withActors(ctx, events)
}

// UserHistory — правки, внесённые пользователем, новые первыми.
func (s *HistoryService) UserHistory(ctx context.Context, userID uuid.UUID, limit *int) ([]EditEventView, error) {
	events, err := s.audit.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.withActors(ctx, events)
}

func (s *HistoryService) withActors(ctx context.Context, events []models.ServiceEditEvent) ([]EditEventView, error) {
	ids := make([]uuid.UUID, 0, len(events))
	seen := make(map[uuid.UUID]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ids = append(ids, e.UserID)
	}

	refs, err := s.users.GetRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]EditEventView, 0, len(events))
	for _, e := range events {
		view := EditEventView{ServiceEditEvent: e}
		if ref, ok := refs[e.UserID]; ok {
			r := ref
			view.Actor = &r
		}
		views = append(views, view)
	}
	return views, nil
}
