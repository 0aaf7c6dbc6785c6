package service

import (
	"errors"
	"testing"
	"time"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var dec = testutil.Dec

func newTestSaleService(t *testing.T, db *gorm.DB) *saleService {
	t.Helper()
	svc := NewSaleService(
		db,
		repository.NewSaleRepo(db),
		repository.NewProductRepo(db),
		repository.NewCustomerRepo(db),
		repository.NewCounterRepo(db),
		nil, nil, logrus.New(),
	).(*saleService)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return svc
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got)
	}
}

func TestCreateSaleComputesTotals(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 10)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	counters := repository.NewCounterRepo(db)
	if err := counters.Ensure(model.CounterGrandProductTotal, dec("1000")); err != nil {
		t.Fatal(err)
	}

	sale, err := svc.CreateSale(&CreateSaleRequest{
		Customer:      customer.ID,
		TaxPercentage: dec("10"),
		AmountPayed:   dec("250"),
		Products:      []CartLine{{ID: product.ID, Price: dec("100"), Quantity: 2}},
	}, "user-1", "Cashier")
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	stored, err := svc.GetSale(sale.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	assertDec(t, "sub_total", stored.SubTotal, "200")
	assertDec(t, "tax_amount", stored.TaxAmount, "20")
	assertDec(t, "grand_total", stored.GrandTotal, "220")
	assertDec(t, "amount_change", stored.AmountChange, "30")
	assertDec(t, "profit", stored.Profit, "60")
	if stored.CreatedBy != "user-1" {
		t.Fatalf("expected created_by user-1, got %q", stored.CreatedBy)
	}

	if len(stored.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(stored.Details))
	}
	d := stored.Details[0]
	assertDec(t, "total_detail", d.TotalDetail, "200")
	assertDec(t, "detail profit", d.Profit, "60")
	assertDec(t, "detail buying price", d.BuyingPrice.Decimal, "70")
	if d.Product == nil || d.Product.Name != "Rice" {
		t.Fatalf("expected product preloaded, got %+v", d.Product)
	}

	p := testutil.ReloadProduct(t, db, product.ID)
	if p.Quantity != 8 {
		t.Fatalf("expected quantity 8, got %d", p.Quantity)
	}
	assertDec(t, "product total_amount", p.TotalAmount, "800")

	stock, _ := counters.Get(model.CounterGrandProductTotal)
	assertDec(t, "grand_product_total", stock, "800")
	sales, _ := counters.Get(model.CounterGrandSalesTotal)
	assertDec(t, "grand_total_amount", sales, "220")
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Beans", "12.50", "8", 10)
	customer := testutil.CreateCustomer(t, db, "Ana", "")

	before := testutil.ReloadProduct(t, db, product.ID)
	_, err := svc.CreateSale(&CreateSaleRequest{
		Customer: customer.ID,
		Products: []CartLine{{ID: product.ID, Quantity: 3}},
	}, "u", "Cashier")
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	after := testutil.ReloadProduct(t, db, product.ID)
	if after.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", after.Quantity)
	}
	if !before.TotalAmount.Sub(after.TotalAmount).Equal(dec("37.5")) {
		t.Fatalf("expected total_amount to drop by 37.5, got %s -> %s", before.TotalAmount, after.TotalAmount)
	}
}

func TestCreateSaleStoresServerTotals(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 10)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	sale, err := svc.CreateSale(&CreateSaleRequest{
		Customer:   customer.ID,
		SubTotal:   dec("1"),
		GrandTotal: dec("1"),
		Products:   []CartLine{{ID: product.ID, Price: dec("100.00"), Quantity: 1, TotalProduct: dec("1")}},
	}, "u", "Cashier")
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	assertDec(t, "sub_total", sale.SubTotal, "100")
	assertDec(t, "grand_total", sale.GrandTotal, "100")
}

func TestCreateSaleRejectsStalePrice(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 10)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	_, err := svc.CreateSale(&CreateSaleRequest{
		Customer: customer.ID,
		Products: []CartLine{{ID: product.ID, Price: dec("90"), Quantity: 1}},
	}, "u", "Cashier")
	if !errors.Is(err, ErrPriceChanged) || !IsValidation(err) {
		t.Fatalf("expected ErrPriceChanged, got %v", err)
	}
	if n := testutil.CountRows(t, db, &model.Sale{}); n != 0 {
		t.Fatalf("expected no sales, got %d", n)
	}
	if p := testutil.ReloadProduct(t, db, product.ID); p.Quantity != 10 {
		t.Fatalf("expected stock unchanged, got %d", p.Quantity)
	}
}

// failingCounters breaks the last write of the sale transaction, after the
// sale, its details and the stock have been written.
type failingCounters struct {
	repository.CounterRepository
	failOn string
}

var errCounterDown = errors.New("counter store unavailable")

func (f *failingCounters) Increment(tx *gorm.DB, name string, delta decimal.Decimal) error {
	if name == f.failOn {
		return errCounterDown
	}
	return f.CounterRepository.Increment(tx, name, delta)
}

func TestCreateSaleRollsBackWrittenRows(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	counters := repository.NewCounterRepo(db)
	svc.counterRepo = &failingCounters{CounterRepository: counters, failOn: model.CounterGrandSalesTotal}

	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 4)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")
	if err := counters.Ensure(model.CounterGrandProductTotal, dec("400")); err != nil {
		t.Fatal(err)
	}
	if err := counters.Ensure(model.CounterGrandSalesTotal, dec("0")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.CreateSale(&CreateSaleRequest{
		Customer:      customer.ID,
		TaxPercentage: dec("10"),
		AmountPayed:   dec("300"),
		Products:      []CartLine{{ID: product.ID, Quantity: 2}},
	}, "u", "Cashier")
	if !errors.Is(err, errCounterDown) {
		t.Fatalf("expected counter failure, got %v", err)
	}

	if n := testutil.CountRows(t, db, &model.Sale{}); n != 0 {
		t.Fatalf("expected no sales, got %d", n)
	}
	if n := testutil.CountRows(t, db, &model.SaleDetail{}); n != 0 {
		t.Fatalf("expected no sale details, got %d", n)
	}
	p := testutil.ReloadProduct(t, db, product.ID)
	if p.Quantity != 4 {
		t.Fatalf("expected stock 4, got %d", p.Quantity)
	}
	assertDec(t, "product total_amount", p.TotalAmount, "400")
	for name, want := range map[string]string{
		model.CounterGrandProductTotal: "400",
		model.CounterGrandSalesTotal:   "0",
	} {
		got, err := counters.Get(name)
		if err != nil {
			t.Fatalf("counter %s: %v", name, err)
		}
		assertDec(t, name, got, want)
	}
}

func TestCreateSaleRollsBackOnFailure(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	product := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 4)
	inactive := testutil.CreateProduct(t, db, cat.ID, "Old stock", "5", "2", 4)
	if err := db.Model(inactive).Update("status", model.StatusInactive).Error; err != nil {
		t.Fatal(err)
	}
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	cases := []struct {
		name string
		req  *CreateSaleRequest
		want error
	}{
		{
			name: "unknown product",
			req: &CreateSaleRequest{Customer: customer.ID, Products: []CartLine{
				{ID: product.ID, Quantity: 1},
				{ID: uuid.New(), Quantity: 1},
			}},
			want: ErrProductNotFound,
		},
		{
			name: "unknown customer",
			req:  &CreateSaleRequest{Customer: uuid.New(), Products: []CartLine{{ID: product.ID, Quantity: 1}}},
			want: ErrCustomerNotFound,
		},
		{
			name: "stock exhausted across repeated lines",
			req: &CreateSaleRequest{Customer: customer.ID, Products: []CartLine{
				{ID: product.ID, Quantity: 2},
				{ID: product.ID, Quantity: 3},
			}},
			want: ErrInsufficientStock,
		},
		{
			name: "inactive product",
			req:  &CreateSaleRequest{Customer: customer.ID, Products: []CartLine{{ID: inactive.ID, Quantity: 1}}},
			want: ErrProductInactive,
		},
		{
			name: "empty cart",
			req:  &CreateSaleRequest{Customer: customer.ID},
			want: ErrEmptyCart,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(tc.req, "u", "Cashier")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if n := testutil.CountRows(t, db, &model.Sale{}); n != 0 {
				t.Fatalf("expected no sales, got %d", n)
			}
			if n := testutil.CountRows(t, db, &model.SaleDetail{}); n != 0 {
				t.Fatalf("expected no sale details, got %d", n)
			}
			if n := testutil.CountRows(t, db, &model.RunningTotal{}); n != 0 {
				t.Fatalf("expected counters untouched, got %d rows", n)
			}
			if p := testutil.ReloadProduct(t, db, product.ID); p.Quantity != 4 {
				t.Fatalf("expected stock unchanged, got %d", p.Quantity)
			}
		})
	}
}

func TestCreateSaleValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	cases := []*CreateSaleRequest{
		{Customer: customer.ID, Products: []CartLine{{ID: uuid.New(), Quantity: 0}}},
		{Customer: uuid.Nil, Products: []CartLine{{ID: uuid.New(), Quantity: 1}}},
		{Customer: customer.ID, TaxPercentage: dec("-1"), Products: []CartLine{{ID: uuid.New(), Quantity: 1}}},
		{Customer: customer.ID, AmountPayed: dec("-5"), Products: []CartLine{{ID: uuid.New(), Quantity: 1}}},
		{Customer: customer.ID, TaxPercentage: dec("7.125"), Products: []CartLine{{ID: uuid.New(), Quantity: 1}}},
		{Customer: customer.ID, AmountPayed: dec("10.005"), Products: []CartLine{{ID: uuid.New(), Quantity: 1}}},
	}
	for i, req := range cases {
		_, err := svc.CreateSale(req, "u", "Cashier")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d: IsValidation should be true", i)
		}
	}
}

func TestRecomputeTotalsIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newTestSaleService(t, db)
	cat := testutil.CreateCategory(t, db, "Food")
	a := testutil.CreateProduct(t, db, cat.ID, "Rice", "100", "70", 10)
	b := testutil.CreateProduct(t, db, cat.ID, "Salt", "3.35", "1.10", 10)
	customer := testutil.CreateCustomer(t, db, "Ana", "Lim")

	sale, err := svc.CreateSale(&CreateSaleRequest{
		Customer:      customer.ID,
		TaxPercentage: dec("7.5"),
		AmountPayed:   dec("300"),
		Products:      []CartLine{{ID: a.ID, Quantity: 2}, {ID: b.ID, Quantity: 3}},
	}, "u", "Cashier")
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	first, err := svc.RecomputeTotals(sale.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	second, err := svc.RecomputeTotals(sale.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	pairs := [][2]decimal.Decimal{
		{first.SubTotal, second.SubTotal},
		{first.GrandTotal, second.GrandTotal},
		{first.Profit, second.Profit},
		{first.AmountChange, second.AmountChange},
	}
	for i, p := range pairs {
		if !p[0].Equal(p[1]) {
			t.Fatalf("field %d changed between recomputes: %s vs %s", i, p[0], p[1])
		}
	}
	assertDec(t, "sub_total", second.SubTotal.Round(2), "210.05")
	assertDec(t, "grand_total", second.GrandTotal.Round(2), "225.80")
	if !second.GrandTotal.Equal(second.SubTotal.Add(second.TaxAmount)) {
		t.Fatalf("grand_total %s != sub_total %s + tax %s", second.GrandTotal, second.SubTotal, second.TaxAmount)
	}

	if _, err := svc.RecomputeTotals(uuid.New()); !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}
