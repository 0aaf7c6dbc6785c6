package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Names of the process-wide running counters.
const (
	CounterGrandProductTotal = "grand_product_total"
	CounterGrandSalesTotal   = "grand_total_amount"
)

// RunningTotal is an aggregate counter updated in the same transaction as the write it derives from.
type RunningTotal struct {
	Name      string          `gorm:"type:varchar(50);primaryKey" json:"name"`
	Value     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (RunningTotal) TableName() string {
	return "running_totals"
}
