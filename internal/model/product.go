package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(256);not null" json:"name" validate:"required,max=256"`
	Description string          `gorm:"type:text" json:"description" validate:"max=256"`
	Status      Status          `gorm:"type:varchar(100);not null;default:ACTIVE" json:"status" validate:"status"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id" validate:"uuid_required"`
	Category    *Category       `json:"category,omitempty" validate:"-"`
	BuyingPrice decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"buying_price"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity" validate:"gte=0"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0" json:"total_amount"` // price * quantity
}

func (Product) TableName() string {
	return "products"
}

// RecomputeTotal keeps TotalAmount equal to Price * Quantity.
func (p *Product) RecomputeTotal() {
	p.TotalAmount = p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.RecomputeTotal()
	return nil
}
