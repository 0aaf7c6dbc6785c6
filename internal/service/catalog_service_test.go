package service

import (
	"errors"
	"testing"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/testutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func newTestCatalogService(db *gorm.DB) CatalogService {
	return NewCatalogService(
		db,
		repository.NewCategoryRepo(db),
		repository.NewProductRepo(db),
		repository.NewCounterRepo(db),
		nil, logrus.New(),
	)
}

func productCounter(t *testing.T, db *gorm.DB) string {
	t.Helper()
	v, err := repository.NewCounterRepo(db).Get(model.CounterGrandProductTotal)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	return v.String()
}

func TestCatalogProductLifecycleKeepsCounter(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestCatalogService(db)

	cat := &model.Category{Name: "Drinks"}
	if err := svc.CreateCategory(cat, "u"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.Status != model.StatusActive {
		t.Fatalf("expected default ACTIVE status, got %q", cat.Status)
	}

	p := &model.Product{Name: "Cola", CategoryID: cat.ID, Price: dec("2.50"), BuyingPrice: dec("1"), Quantity: 10}
	if err := svc.CreateProduct(p, "u"); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	assertDec(t, "total_amount", p.TotalAmount, "25")
	if got := productCounter(t, db); got != "25" {
		t.Fatalf("expected counter 25, got %s", got)
	}

	updated, err := svc.UpdateProduct(p.ID, &model.Product{
		Name: "Cola Zero", Status: model.StatusActive, CategoryID: cat.ID,
		Price: dec("3"), BuyingPrice: dec("1.2"), Quantity: 4,
	}, "u")
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	assertDec(t, "updated total", updated.TotalAmount, "12")
	if got := productCounter(t, db); got != "12" {
		t.Fatalf("expected counter 12, got %s", got)
	}

	if err := svc.DeleteProduct(p.ID, "u"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if got := productCounter(t, db); got != "0" {
		t.Fatalf("expected counter 0, got %s", got)
	}
	if _, err := svc.GetProduct(p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
}

func TestCatalogCreateProductRejectsBadInput(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestCatalogService(db)
	cat := testutil.CreateCategory(t, db, "Drinks")

	err := svc.CreateProduct(&model.Product{Name: "Cola", CategoryID: uuid.New(), Price: dec("1")}, "u")
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	err = svc.CreateProduct(&model.Product{Name: "Cola", CategoryID: cat.ID, Price: dec("-1")}, "u")
	if !IsValidation(err) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}

	err = svc.CreateProduct(&model.Product{CategoryID: cat.ID, Price: dec("1")}, "u")
	if !IsValidation(err) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
}

func TestCatalogRejectsFractionsOfACent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestCatalogService(db)
	cat := testutil.CreateCategory(t, db, "Drinks")

	err := svc.CreateProduct(&model.Product{Name: "Cola", CategoryID: cat.ID, Price: dec("0.125"), Quantity: 10}, "u")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "Product.Price" || verr.Tag != "cents" {
		t.Fatalf("expected cents validation error on price, got %v", err)
	}
	if n := testutil.CountRows(t, db, &model.Product{}); n != 0 {
		t.Fatalf("expected no product stored, got %d", n)
	}

	p := &model.Product{Name: "Cola", CategoryID: cat.ID, Price: dec("0.130"), BuyingPrice: dec("0.10"), Quantity: 10}
	if err := svc.CreateProduct(p, "u"); err != nil {
		t.Fatalf("trailing zeros are whole cents: %v", err)
	}
	assertDec(t, "total_amount", testutil.ReloadProduct(t, db, p.ID).TotalAmount, "1.30")

	_, err = svc.UpdateProduct(p.ID, &model.Product{
		Name: "Cola", Status: model.StatusActive, CategoryID: cat.ID,
		Price: dec("0.13"), BuyingPrice: dec("0.105"), Quantity: 10,
	}, "u")
	if !errors.As(err, &verr) || verr.Field != "Product.BuyingPrice" {
		t.Fatalf("expected cents validation error on buying price, got %v", err)
	}
	assertDec(t, "buying_price", testutil.ReloadProduct(t, db, p.ID).BuyingPrice, "0.10")
}

func TestCatalogDeleteCategoryCascades(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestCatalogService(db)
	cat := testutil.CreateCategory(t, db, "Drinks")
	other := testutil.CreateCategory(t, db, "Food")
	testutil.CreateProduct(t, db, cat.ID, "Cola", "2", "1", 5)
	testutil.CreateProduct(t, db, cat.ID, "Juice", "3", "1", 5)
	keep := testutil.CreateProduct(t, db, other.ID, "Rice", "4", "1", 5)

	if err := repository.NewCounterRepo(db).Ensure(model.CounterGrandProductTotal, dec("45")); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCategory(cat.ID, "u"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	products, err := svc.ListProducts()
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != keep.ID {
		t.Fatalf("expected only Rice to remain, got %+v", products)
	}
	var deleted int64
	db.Unscoped().Model(&model.Product{}).Where("category_id = ? AND deleted_at IS NOT NULL", cat.ID).Count(&deleted)
	if deleted != 2 {
		t.Fatalf("expected 2 soft-deleted products, got %d", deleted)
	}
	if got := productCounter(t, db); got != "20" {
		t.Fatalf("expected counter 20, got %s", got)
	}
	if err := svc.DeleteCategory(cat.ID, "u"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound on second delete, got %v", err)
	}
}

func TestCatalogSearchProducts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestCatalogService(db)
	cat := testutil.CreateCategory(t, db, "Drinks")
	testutil.CreateProduct(t, db, cat.ID, "Cola", "2", "1", 5)
	testutil.CreateProduct(t, db, cat.ID, "Coconut water", "3", "1", 5)
	inactive := testutil.CreateProduct(t, db, cat.ID, "Cocoa", "3", "1", 5)
	if err := db.Model(inactive).Update("status", model.StatusInactive).Error; err != nil {
		t.Fatal(err)
	}

	options, err := svc.SearchProducts("co")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 active matches, got %+v", options)
	}
	if options[0].Text != "Coconut water" || options[0].Category != "Drinks" || options[0].Quantity != 1 || options[0].Stock != 5 {
		t.Fatalf("unexpected option: %+v", options[0])
	}
}
