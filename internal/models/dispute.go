package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
)

// Resolution константы решений по спорам
const (
	ResolutionRefundBuyer     = "refund_buyer"
	ResolutionPartialRefund   = "partial_refund"
	ResolutionReleaseToSeller = "release_to_seller"
)

// Dispute — формальное оспаривание заказа. На заказ одновременно
// существует не более одного неразрешённого спора (частичный уникальный
// индекс в схеме). Резолюция назначается администратором один раз и
// окончательна.
type Dispute struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderID         uuid.UUID  `db:"order_id" json:"order_id"`
	InitiatorID     uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	Reason          string     `db:"reason" json:"reason"`
	Status          string     `db:"status" json:"status"`
	Resolution      *string    `db:"resolution" json:"resolution,omitempty"`
	AdminNote       *string    `db:"admin_note" json:"admin_note,omitempty"`
	AssignedAdminID *uuid.UUID `db:"assigned_admin_id" json:"assigned_admin_id,omitempty"`
	ResolvedBy      *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// DisputeEvidence — файл-доказательство, приложенный к спору.
type DisputeEvidence struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DisputeID  uuid.UUID `db:"dispute_id" json:"dispute_id"`
	UploaderID uuid.UUID `db:"uploader_id" json:"uploader_id"`
	FilePath   string    `db:"file_path" json:"file_path"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// resolutionOrderStatus сопоставляет решение спора терминальному статусу заказа.
var resolutionOrderStatus = map[string]string{
	ResolutionRefundBuyer:     OrderStatusResolvedRefund,
	ResolutionPartialRefund:   OrderStatusResolvedPartialRefund,
	ResolutionReleaseToSeller: OrderStatusResolvedRelease,
}

// OrderStatusForResolution возвращает статус заказа, соответствующий решению.
func OrderStatusForResolution(resolution string) (string, bool) {
	s, ok := resolutionOrderStatus[resolution]
	return s, ok
}

// ValidResolutions список валидных решений по спорам
var ValidResolutions = map[string]struct{}{
	ResolutionRefundBuyer:     {},
	ResolutionPartialRefund:   {},
	ResolutionReleaseToSeller: {},
}
