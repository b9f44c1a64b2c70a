package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/logger"
	"github.com/studmarket/studmarket-backend/internal/models"
	"github.com/studmarket/studmarket-backend/internal/pkg/apperror"
	"github.com/studmarket/studmarket-backend/internal/validation"
)

// DisputeRepo — контракт хранилища споров.
type DisputeRepo interface {
	CreateTx(ctx context.Context, ext sqlx.ExtContext, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Dispute, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	MarkUnderReviewTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID) (bool, error)
	ResolveTx(ctx context.Context, ext sqlx.ExtContext, id, adminID uuid.UUID, resolution string, adminNote *string) (bool, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
}

// OrderRepoForDispute — доступ движка споров к заказам.
type OrderRepoForDispute interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID) (*models.Order, error)
	TransitionStatusTx(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, from []string, to string) (bool, error)
}

// EvidenceRepo — записи о приложенных к спору файлах.
type EvidenceRepo interface {
	Create(ctx context.Context, e *models.DisputeEvidence) error
	ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error)
}

// EvidenceStore — файловое хранилище доказательств.
type EvidenceStore interface {
	Save(ctx context.Context, uploaderID uuid.UUID, originalName string, r io.Reader) (path string, mime string, size int64, err error)
}

// SettlementNotifier получает окончательное решение по спору.
// Само движение средств — ответственность внешнего коллаборатора;
// ядро вызывает уведомление ровно один раз на успешный resolve.
type SettlementNotifier interface {
	TriggerSettlement(ctx context.Context, order *models.Order, dispute *models.Dispute) error
}

// DisputeService создаёт и разрешает споры по заказам. Создание спора и
// перевод заказа в disputed, как и резолюция с переводом заказа в
// resolved_*, выполняются одной транзакцией: частичные состояния
// снаружи не наблюдаемы.
type DisputeService struct {
	txr        TxRunner
	disputes   DisputeRepo
	orders     OrderRepoForDispute
	evidence   EvidenceRepo
	files      EvidenceStore
	settlement SettlementNotifier
}

func NewDisputeService(txr TxRunner, disputes DisputeRepo, orders OrderRepoForDispute, evidence EvidenceRepo, files EvidenceStore, settlement SettlementNotifier) *DisputeService {
	return &DisputeService{
		txr:        txr,
		disputes:   disputes,
		orders:     orders,
		evidence:   evidence,
		files:      files,
		settlement: settlement,
	}
}

// Open открывает спор по заказу и атомарно переводит заказ в disputed.
// Спор допустим только из active/completed; на заказ одновременно
// существует не более одного неразрешённого спора.
func (s *DisputeService) Open(ctx context.Context, orderID, initiatorID uuid.UUID, reason string) (*models.Dispute, error) {
	if err := validation.ValidateDisputeReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var dispute *models.Dispute
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		order, err := s.orders.GetByIDTx(ctx, ext, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != initiatorID && order.SellerID != initiatorID {
			return apperror.ErrForbidden
		}

		moved, err := s.orders.TransitionStatusTx(ctx, ext, orderID, models.DisputableOrderStatuses, models.OrderStatusDisputed)
		if err != nil {
			return err
		}
		if !moved {
			// CAS проиграл: выясняем, чем занят заказ сейчас.
			current, err := s.orders.GetByIDTx(ctx, ext, orderID)
			if err != nil {
				return err
			}
			if current.Status == models.OrderStatusDisputed {
				return apperror.ErrDuplicateDispute
			}
			return apperror.ErrInvalidTransition
		}

		dispute = &models.Dispute{
			OrderID:     orderID,
			InitiatorID: initiatorID,
			Reason:      strings.TrimSpace(reason),
			Status:      models.DisputeStatusOpen,
		}
		// Уникальный индекс по order_id страхует вставку на случай,
		// если заказ оказался в disputed без записи спора.
		return s.disputes.CreateTx(ctx, ext, dispute)
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// BeginReview берёт спор в рассмотрение: open → under_review.
// Повторный вызов тем же администратором — идемпотентный no-op.
func (s *DisputeService) BeginReview(ctx context.Context, disputeID, adminID uuid.UUID) (*models.Dispute, error) {
	var dispute *models.Dispute
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		moved, err := s.disputes.MarkUnderReviewTx(ctx, ext, disputeID, adminID)
		if err != nil {
			return err
		}

		current, err := s.disputes.GetByIDTx(ctx, ext, disputeID)
		if err != nil {
			return err
		}
		if moved {
			dispute = current
			return nil
		}

		switch {
		case current.Status == models.DisputeStatusResolved:
			return apperror.ErrInvalidTransition
		case current.Status == models.DisputeStatusUnderReview &&
			current.AssignedAdminID != nil && *current.AssignedAdminID == adminID:
			dispute = current
			return nil
		default:
			return apperror.ErrInvalidTransition
		}
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// Resolve выносит окончательное решение по спору и атомарно переводит
// заказ в соответствующий resolved_* статус. Решение одноразовое:
// повторный вызов детерминированно получает ErrAlreadyResolved, внешний
// расчёт не запускается дважды.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, adminID uuid.UUID, resolution string, adminNote *string) (*models.Dispute, error) {
	orderStatus, ok := models.OrderStatusForResolution(resolution)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестное решение по спору")
	}
	if adminNote != nil {
		if err := validation.ValidateAdminNote(*adminNote); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	var dispute *models.Dispute
	var order *models.Order
	err := s.txr.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		resolved, err := s.disputes.ResolveTx(ctx, ext, disputeID, adminID, resolution, adminNote)
		if err != nil {
			return err
		}
		if !resolved {
			current, err := s.disputes.GetByIDTx(ctx, ext, disputeID)
			if err != nil {
				return err
			}
			if current.Status == models.DisputeStatusResolved {
				return apperror.ErrAlreadyResolved
			}
			return apperror.ErrInvalidTransition
		}

		dispute, err = s.disputes.GetByIDTx(ctx, ext, disputeID)
		if err != nil {
			return err
		}

		moved, err := s.orders.TransitionStatusTx(ctx, ext, dispute.OrderID, []string{models.OrderStatusDisputed}, orderStatus)
		if err != nil {
			return err
		}
		if !moved {
			// Открытый спор обязан держать заказ в disputed; расхождение —
			// повреждение данных, транзакцию откатываем целиком.
			return apperror.New(apperror.ErrCodeInternal, "несогласованное состояние заказа и спора")
		}

		order, err = s.orders.GetByIDTx(ctx, ext, dispute.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Решение уже зафиксировано; ошибка уведомления — забота внешнего
	// коллаборатора, ядро повторов не делает.
	if err := s.settlement.TriggerSettlement(ctx, order, dispute); err != nil {
		logger.Log.WithError(err).WithField("dispute_id", dispute.ID).
			Error("не удалось уведомить расчётный сервис о решении спора")
	}
	return dispute, nil
}

// GetByOrder возвращает спор по заказу участнику заказа или администратору.
func (s *DisputeService) GetByOrder(ctx context.Context, orderID, actorID uuid.UUID, actorRole string) (*models.Dispute, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleAdmin && order.BuyerID != actorID && order.SellerID != actorID {
		return nil, apperror.ErrForbidden
	}
	return s.disputes.GetByOrderID(ctx, orderID)
}

// GetByID возвращает спор по идентификатору.
func (s *DisputeService) GetByID(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	return s.disputes.GetByID(ctx, disputeID)
}

// ListOpenQueue — очередь неразрешённых споров для администраторов.
func (s *DisputeService) ListOpenQueue(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.disputes.ListOpen(ctx, limit, offset)
}

// ListMine возвращает споры, в которых пользователь — инициатор
// или сторона заказа.
func (s *DisputeService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}

// AttachEvidence сохраняет файл-доказательство и запись о нём.
// К разрешённому спору доказательства не принимаются.
func (s *DisputeService) AttachEvidence(ctx context.Context, disputeID, uploaderID uuid.UUID, originalName string, r io.Reader) (*models.DisputeEvidence, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status == models.DisputeStatusResolved {
		return nil, apperror.ErrAlreadyResolved
	}

	order, err := s.orders.GetByID(ctx, dispute.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != uploaderID && order.SellerID != uploaderID {
		return nil, apperror.ErrForbidden
	}

	path, mime, size, err := s.files.Save(ctx, uploaderID, originalName, r)
	if err != nil {
		return nil, err
	}

	evidence := &models.DisputeEvidence{
		DisputeID:  disputeID,
		UploaderID: uploaderID,
		FilePath:   path,
		MimeType:   mime,
		SizeBytes:  size,
	}
	if err := s.evidence.Create(ctx, evidence); err != nil {
		return nil, err
	}
	return evidence, nil
}

// ListEvidence возвращает доказательства спора участнику заказа
// или администратору.
func (s *DisputeService) ListEvidence(ctx context.Context, disputeID, actorID uuid.UUID, actorRole string) ([]models.DisputeEvidence, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleAdmin {
		order, err := s.orders.GetByID(ctx, dispute.OrderID)
		if err != nil {
			return nil, err
		}
		if order.BuyerID != actorID && order.SellerID != actorID {
			return nil, apperror.ErrForbidden
		}
	}
	return s.evidence.ListByDispute(ctx, disputeID)
}
