package repository

import (
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleFilter narrows the sales list by sale date. Zero times are unbounded.
type SaleFilter struct {
	From time.Time
	To   time.Time
}

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	CreateDetail(tx *gorm.DB, detail *model.SaleDetail) error
	FindDetails(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleDetail, error)
	FindInTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	SaveTotals(tx *gorm.DB, sale *model.Sale) error
	FindAll(filter SaleFilter) ([]model.Sale, error)
	FindByID(id uuid.UUID) (*model.Sale, error)
	Delete(id uuid.UUID) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit(clause.Associations).Create(sale).Error
}

func (r *saleRepo) CreateDetail(tx *gorm.DB, detail *model.SaleDetail) error {
	return tx.Omit(clause.Associations).Create(detail).Error
}

func (r *saleRepo) FindDetails(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleDetail, error) {
	var details []model.SaleDetail
	err := tx.Where("sale_id = ?", saleID).Order("id ASC").Find(&details).Error
	return details, err
}

func (r *saleRepo) FindInTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := tx.First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaveTotals writes only the derived columns of a sale.
func (r *saleRepo) SaveTotals(tx *gorm.DB, sale *model.Sale) error {
	return tx.Model(&model.Sale{}).Where("id = ?", sale.ID).Updates(map[string]interface{}{
		"sub_total":     sale.SubTotal,
		"tax_amount":    sale.TaxAmount,
		"grand_total":   sale.GrandTotal,
		"amount_change": sale.AmountChange,
		"profit":        sale.Profit,
	}).Error
}

func (r *saleRepo) FindAll(filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.Preload("Customer", unscoped)
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("date < ?", filter.To)
	}
	err := q.Order("date DESC").Order("id ASC").Find(&sales).Error
	return sales, err
}

// FindByID loads a sale with its customer, lines and line products, including soft-deleted ones.
func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.
		Preload("Customer", unscoped).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Details.Product", unscoped).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Delete removes a sale and its lines.
func (r *saleRepo) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&model.SaleDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Sale{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
