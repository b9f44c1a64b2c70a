package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/validation"
)

// ServiceCatalogRepo — минимальный контракт хранилища услуг для каталога.
type ServiceCatalogRepo interface {
	CreateTx(ctx context.Context, ext sqlx.ExtContext, s *models.ServiceListing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceListing, error)
	GetByIDForUpdateTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.ServiceListing, error)
	UpdateFieldTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, field string, value interface{}) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.ServiceListing, error)
}

// ListingUpdate — набор правок услуги; nil означает «поле не трогаем».
type ListingUpdate struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	DeliveryDays *int     `json:"delivery_days,omitempty"`
}

// CatalogService управляет услугами продавцов. Все правки проходят через
// edit guard: запись поля и событие журнала коммитятся одной транзакцией.
type CatalogService struct {
	txr      TxRunner
	services ServiceCatalogRepo
	guard    *EditGuard
}

func NewCatalogService(txr TxRunner, services ServiceCatalogRepo, guard *EditGuard) *CatalogService {
	return &CatalogService{txr: txr, services: services, guard: guard}
}

// CreateListing публикует новую услугу продавца.
func (s *CatalogService) CreateListing(ctx context.Context, sellerID uuid.UUID, title, description string, price float64, deliveryDays int) (*models.ServiceListing, error) {
	if err := validation.ValidateServiceTitle(title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateServiceDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice(price); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDeliveryDays(deliveryDays); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	listing := &models.ServiceListing{
		SellerID:     sellerID,
		Title:        title,
		Description:  description,
		Price:        price,
		DeliveryDays: deliveryDays,
	}
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		return s.services.CreateTx(ctx, ext, listing)
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// GetListing возвращает услугу по id.
func (s *CatalogService) GetListing(ctx context.Context, id uuid.UUID) (*models.ServiceListing, error) {
	return s.services.GetByID(ctx, id)
}

// ListSellerListings возвращает услуги продавца.
func (s *CatalogService) ListSellerListings(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.ServiceListing, error) {
	return s.services.ListBySeller(ctx, sellerID, limit, offset)
}

// UpdateListing применяет правки продавца к услуге. Каждое изменённое поле
// проходит через guard; поля со старым значением, равным новому, пропускаются.
// Вся операция — одна транзакция: либо все поля и их события журнала, либо ничего.
func (s *CatalogService) UpdateListing(ctx context.Context, serviceID, userID uuid.UUID, upd ListingUpdate) (*models.ServiceListing, []EditOutcome, error) {
	if err := validateListingUpdate(upd); err != nil {
		return nil, nil, err
	}

	var listing *models.ServiceListing
	var outcomes []EditOutcome

	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		current, err := s.services.GetByIDForUpdateTx(ctx, ext, serviceID)
		if err != nil {
			return err
		}
		if current.SellerID != userID {
			return apperror.ErrForbidden
		}

		type fieldEdit struct {
			field    string
			oldValue models.FieldValue
			newValue models.FieldValue
			stored   interface{}
		}
		var edits []fieldEdit

		if upd.Title != nil && *upd.Title != current.Title {
			edits = append(edits, fieldEdit{
				field:    models.ServiceFieldTitle,
				oldValue: models.TextValue(current.Title),
				newValue: models.TextValue(*upd.Title),
				stored:   *upd.Title,
			})
		}
		if upd.Description != nil && *upd.Description != current.Description {
			edits = append(edits, fieldEdit{
				field:    models.ServiceFieldDescription,
				oldValue: models.TextValue(current.Description),
				newValue: models.TextValue(*upd.Description),
				stored:   *upd.Description,
			})
		}
		if upd.Price != nil && *upd.Price != current.Price {
			edits = append(edits, fieldEdit{
				field:    models.ServiceFieldPrice,
				oldValue: models.NumberValue(current.Price),
				newValue: models.NumberValue(*upd.Price),
				stored:   *upd.Price,
			})
		}
		if upd.DeliveryDays != nil && *upd.DeliveryDays != current.DeliveryDays {
			edits = append(edits, fieldEdit{
				field:    models.ServiceFieldDeliveryDays,
				oldValue: models.NumberValue(float64(current.DeliveryDays)),
				newValue: models.NumberValue(float64(*upd.DeliveryDays)),
				stored:   *upd.DeliveryDays,
			})
		}

		for _, e := range edits {
			outcome, err := s.guard.GuardedEdit(ctx, ext, serviceID, userID, e.field, e.oldValue, e.newValue)
			if err != nil {
				return err
			}
			if err := s.services.UpdateFieldTx(ctx, ext, serviceID, e.field, e.stored); err != nil {
				return err
			}
			outcomes = append(outcomes, *outcome)
		}

		listing, err = s.services.GetByIDForUpdateTx(ctx, ext, serviceID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return listing, outcomes, nil
}

func validateListingUpdate(upd ListingUpdate) error {
	if upd.Title != nil {
		if err := validation.ValidateServiceTitle(*upd.Title); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if upd.Description != nil {
		if err := validation.ValidateServiceDescription(*upd.Description); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if upd.Price != nil {
		if err := validation.ValidatePrice(*upd.Price); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if upd.DeliveryDays != nil {
		if err := validation.ValidateDeliveryDays(*upd.DeliveryDays); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}
