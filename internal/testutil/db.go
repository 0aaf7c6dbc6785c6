// Package testutil opens throwaway SQLite databases with the full schema for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"go-pos-backoffice/internal/model"
)

// NewDB returns a migrated database backed by a file in t.TempDir().
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", filepath.Join(t.TempDir(), "pos.db"))
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps writers serialised the way a single sqlite file needs.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Status: model.StatusActive}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func CreateProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name, price, buyingPrice string, qty int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:        name,
		Status:      model.StatusActive,
		CategoryID:  categoryID,
		Price:       Dec(price),
		BuyingPrice: Dec(buyingPrice),
		Quantity:    qty,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func CreateCustomer(t *testing.T, db *gorm.DB, first, last string) *model.Customer {
	t.Helper()
	c := &model.Customer{FirstName: first, LastName: last}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func ReloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Product {
	t.Helper()
	var p model.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

func CountRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
