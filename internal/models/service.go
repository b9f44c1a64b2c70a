package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceListing описывает услугу, выставленную студентом на продажу.
type ServiceListing struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SellerID     uuid.UUID `db:"seller_id" json:"seller_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	DeliveryDays int       `db:"delivery_days" json:"delivery_days"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Поля услуги, изменения которых проходят через edit guard и журналируются.
const (
	ServiceFieldTitle        = "title"
	ServiceFieldDescription  = "description"
	ServiceFieldPrice        = "price"
	ServiceFieldDeliveryDays = "delivery_days"
)

// EditableServiceFields — поля, которые продавец может менять после публикации.
var EditableServiceFields = map[string]struct{}{
	ServiceFieldTitle:        {},
	ServiceFieldDescription:  {},
	ServiceFieldPrice:        {},
	ServiceFieldDeliveryDays: {},
}
