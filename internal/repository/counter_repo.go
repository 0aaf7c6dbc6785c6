package repository

import (
	"time"

	"go-pos-backoffice/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CounterRepository interface {
	Ensure(name string, initial decimal.Decimal) error
	Increment(tx *gorm.DB, name string, delta decimal.Decimal) error
	FindAll() ([]model.RunningTotal, error)
	Get(name string) (decimal.Decimal, error)
}

type counterRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCounterRepo(db *gorm.DB) CounterRepository {
	return &counterRepo{db: db, now: time.Now}
}

// Ensure creates the counter with the initial value unless it already exists.
func (r *counterRepo) Ensure(name string, initial decimal.Decimal) error {
	return r.insertIfMissing(r.db, name, initial)
}

func (r *counterRepo) insertIfMissing(tx *gorm.DB, name string, value decimal.Decimal) error {
	row := model.RunningTotal{Name: name, Value: value, UpdatedAt: r.now()}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// Increment adds delta to the counter in place, so concurrent sales never lose an update.
func (r *counterRepo) Increment(tx *gorm.DB, name string, delta decimal.Decimal) error {
	if err := r.insertIfMissing(tx, name, decimal.Zero); err != nil {
		return err
	}
	return tx.Model(&model.RunningTotal{}).Where("name = ?", name).Updates(map[string]interface{}{
		"value":      gorm.Expr("value + ?", delta),
		"updated_at": r.now(),
	}).Error
}

func (r *counterRepo) FindAll() ([]model.RunningTotal, error) {
	var totals []model.RunningTotal
	err := r.db.Order("name ASC").Find(&totals).Error
	return totals, err
}

func (r *counterRepo) Get(name string) (decimal.Decimal, error) {
	var row model.RunningTotal
	if err := r.db.First(&row, "name = ?", name).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Value, nil
}
