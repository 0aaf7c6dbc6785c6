package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Sale is one completed checkout. Sub total, profit and grand total are derived from its details.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	SubTotal      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"sub_total"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"grand_total"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"tax_amount"`
	TaxPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_percentage"`
	AmountPayed   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"amount_payed"`
	AmountChange  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"amount_change"`
	Profit        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"profit"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by"`

	Details []SaleDetail `gorm:"constraint:OnDelete:CASCADE;" json:"details,omitempty"`
}

func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TaxFor returns subTotal * percentage / 100 rounded to cents.
func TaxFor(subTotal, percentage decimal.Decimal) decimal.Decimal {
	return subTotal.Mul(percentage).Div(hundred).Round(2)
}

// ApplyTotals re-derives sub total and profit from details, then grand total and change from the stored tax.
// Calling it again with the same details yields the same values.
func (s *Sale) ApplyTotals(details []SaleDetail) {
	subTotal := decimal.Zero
	profit := decimal.Zero
	for _, d := range details {
		subTotal = subTotal.Add(d.TotalDetail)
		profit = profit.Add(d.Profit)
	}
	s.SubTotal = subTotal
	s.Profit = profit
	s.GrandTotal = s.SubTotal.Add(s.TaxAmount)
	s.AmountChange = s.AmountPayed.Sub(s.GrandTotal)
}

// ApplyPayment sets the tax from the current sub total and derives grand total and change.
func (s *Sale) ApplyPayment(taxPercentage, amountPayed decimal.Decimal) {
	s.TaxPercentage = taxPercentage
	s.AmountPayed = amountPayed
	s.TaxAmount = TaxFor(s.SubTotal, taxPercentage)
	s.GrandTotal = s.SubTotal.Add(s.TaxAmount)
	s.AmountChange = s.AmountPayed.Sub(s.GrandTotal)
}

// SaleDetail is one line of a sale. Price and BuyingPrice are snapshots taken at checkout.
type SaleDetail struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key;" json:"id"`
	SaleID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product            `json:"product,omitempty"`
	Price       decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"price"`
	Quantity    int                 `gorm:"not null" json:"quantity"`
	TotalDetail decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"total_detail"`
	BuyingPrice decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"buying_price"`
	Profit      decimal.Decimal     `gorm:"type:decimal(14,2);not null;default:0" json:"profit"`
}

func (SaleDetail) TableName() string {
	return "sale_details"
}

func (d *SaleDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ComputeTotals sets TotalDetail = Price * Quantity and Profit = TotalDetail - BuyingPrice * Quantity.
// A missing buying price counts as zero cost.
func (d *SaleDetail) ComputeTotals() {
	qty := decimal.NewFromInt(int64(d.Quantity))
	d.TotalDetail = d.Price.Mul(qty)
	d.Profit = d.TotalDetail.Sub(d.UnitCost().Mul(qty))
}

func (d *SaleDetail) UnitCost() decimal.Decimal {
	if d.BuyingPrice.Valid {
		return d.BuyingPrice.Decimal
	}
	return decimal.Zero
}
