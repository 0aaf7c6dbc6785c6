package repository

import (
	"strings"

	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	Search(term string, limit int) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID, deletedBy string) error
	Count() (int64, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	SaveStock(tx *gorm.DB, product *model.Product) error
	SumTotalByCategory(categoryID uuid.UUID) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) ProductRepository
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Category").Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Search matches active products by name, case-insensitively.
func (r *productRepo) Search(term string, limit int) ([]model.Product, error) {
	var products []model.Product
	q := r.db.Preload("Category").Where("status = ?", model.StatusActive)
	if term = strings.TrimSpace(term); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	err := q.Order("name ASC").Limit(limit).Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Omit(clause.Associations).Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Count(&n).Error
	return n, err
}

// FindForUpdate loads and row-locks a product inside tx.
func (r *productRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SaveStock persists quantity and the recomputed total amount.
func (r *productRepo) SaveStock(tx *gorm.DB, product *model.Product) error {
	product.RecomputeTotal()
	return tx.Model(product).Select("quantity", "total_amount", "updated_by").Updates(map[string]interface{}{
		"quantity":     product.Quantity,
		"total_amount": product.TotalAmount,
		"updated_by":   product.UpdatedBy,
	}).Error
}

// SumTotalByCategory returns the stock value of the live products in a category.
func (r *productRepo) SumTotalByCategory(categoryID uuid.UUID) (decimal.Decimal, error) {
	var row sumRow
	err := r.db.Model(&model.Product{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("category_id = ?", categoryID).
		Scan(&row).Error
	return row.Total, err
}

// WithTx returns a repository bound to tx.
func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}
