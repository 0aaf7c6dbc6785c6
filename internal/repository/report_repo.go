package repository

import (
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Period is a half-open [From, To) range on sales.date. Zero bounds are open.
type Period struct {
	From time.Time
	To   time.Time
}

// SalesTotals aggregates sale headers over a period.
type SalesTotals struct {
	Count    int64           `json:"count"`
	Earnings decimal.Decimal `json:"earnings"`
	Average  decimal.Decimal `json:"average"`
}

// TopProduct is a product ranked by quantity sold.
type TopProduct struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	TotalQuantity int64     `json:"total_quantity"`
}

type ReportRepository interface {
	DetailProfit(p Period) (decimal.Decimal, error)
	SalesTotals(p Period) (*SalesTotals, error)
	CostOfGoods(p Period) (decimal.Decimal, error)
	SaleCount(p Period) (int64, error)
	TopProducts(limit int) ([]TopProduct, error)
	ProductTotals() (decimal.Decimal, decimal.Decimal, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func within(q *gorm.DB, column string, p Period) *gorm.DB {
	if !p.From.IsZero() {
		q = q.Where(column+" >= ?", p.From)
	}
	if !p.To.IsZero() {
		q = q.Where(column+" < ?", p.To)
	}
	return q
}

type sumRow struct {
	Total decimal.Decimal
}

// DetailProfit sums line profit for sales dated inside the period.
func (r *reportRepo) DetailProfit(p Period) (decimal.Decimal, error) {
	var row sumRow
	q := r.db.Model(&model.SaleDetail{}).
		Joins("JOIN sales ON sales.id = sale_details.sale_id").
		Select("COALESCE(SUM(sale_details.profit), 0) AS total")
	if err := within(q, "sales.date", p).Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *reportRepo) SalesTotals(p Period) (*SalesTotals, error) {
	var row struct {
		Count    int64
		Earnings decimal.Decimal
		Average  decimal.Decimal
	}
	q := r.db.Model(&model.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(grand_total), 0) AS earnings, COALESCE(AVG(grand_total), 0) AS average")
	if err := within(q, "date", p).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &SalesTotals{Count: row.Count, Earnings: row.Earnings, Average: row.Average}, nil
}

// CostOfGoods sums buying_price * quantity over the lines of sales in the period. Missing cost counts as zero.
func (r *reportRepo) CostOfGoods(p Period) (decimal.Decimal, error) {
	var row sumRow
	q := r.db.Model(&model.SaleDetail{}).
		Joins("JOIN sales ON sales.id = sale_details.sale_id").
		Select("COALESCE(SUM(COALESCE(sale_details.buying_price, 0) * sale_details.quantity), 0) AS total")
	if err := within(q, "sales.date", p).Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *reportRepo) SaleCount(p Period) (int64, error) {
	var n int64
	err := within(r.db.Model(&model.Sale{}), "date", p).Count(&n).Error
	return n, err
}

// TopProducts ranks products by total quantity sold, ties broken by product id.
func (r *reportRepo) TopProducts(limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.Model(&model.SaleDetail{}).
		Select("sale_details.product_id AS product_id, COALESCE(MAX(products.name), '') AS name, SUM(sale_details.quantity) AS total_quantity").
		Joins("LEFT JOIN products ON products.id = sale_details.product_id").
		Group("sale_details.product_id").
		Order("total_quantity DESC").
		Order("sale_details.product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// ProductTotals returns the on-hand value of live products and the all-time sales total,
// used to initialise the running counters.
func (r *reportRepo) ProductTotals() (decimal.Decimal, decimal.Decimal, error) {
	var stock, sales sumRow
	if err := r.db.Model(&model.Product{}).Select("COALESCE(SUM(total_amount), 0) AS total").Scan(&stock).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := r.db.Model(&model.Sale{}).Select("COALESCE(SUM(grand_total), 0) AS total").Scan(&sales).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return stock.Total, sales.Total, nil
}
